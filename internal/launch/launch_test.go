package launch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"funstart/internal/binfo"
	"funstart/internal/config"
	"funstart/internal/fault"
	"funstart/internal/flags"
	"funstart/internal/paths"
)

func TestCommandArgumentOrder(t *testing.T) {
	set := flags.Set{
		Harness: []string{"--comparejit", "--random-flags", "--repo=/h/trees/mozilla-central/"},
		Shell:   []string{"-m", "-n", "-a", "-d"},
		Timeout: 10,
	}
	c := NewCommand("/h/fuzzing/jsfunfuzz", set, "/h/fuzzing/js-known/mozilla-central", "/s/js-opt-32-mc-linux")

	sep := string(filepath.Separator)
	want := []string{
		"-u", filepath.Join("/h/fuzzing/jsfunfuzz", "multi_timed_run.py"),
		"--comparejit", "--random-flags", "--repo=/h/trees/mozilla-central/",
		"10", "/h/fuzzing/js-known/mozilla-central" + sep, "/s/js-opt-32-mc-linux",
		"-m", "-n", "-a", "-d",
	}
	require.Equal(t, "python", c.Program)
	require.Equal(t, want, c.Args())
	require.Equal(t, "python "+strings.Join(want, " "), c.String())

	set.Shell[0] = "changed"
	require.Equal(t, "-m", c.Shell[0], "command must not alias the flag set")
}

func TestCopySupportFiles(t *testing.T) {
	harness := t.TempDir()
	root := t.TempDir()
	for _, name := range SupportFiles {
		require.NoError(t, os.WriteFile(filepath.Join(harness, name), []byte(name), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "analysis.py"), []byte("stale"), 0o644))

	require.NoError(t, CopySupportFiles(harness, root))
	for _, name := range SupportFiles {
		data, err := os.ReadFile(filepath.Join(root, name))
		require.NoError(t, err)
		require.Equal(t, name, string(data))
	}
}

func TestCopySupportFilesMissing(t *testing.T) {
	err := CopySupportFiles(t.TempDir(), t.TempDir())
	require.ErrorIs(t, err, fault.Staging)
}

func TestVerify(t *testing.T) {
	cfg := config.RunConfig{Arch: config.Arch32, Profile: config.Optimized}

	require.NoError(t, Verify(binfo.Info{Arch: 32, Debug: false}, cfg))

	err := Verify(binfo.Info{Arch: 64, Debug: false}, cfg)
	require.ErrorIs(t, err, fault.Verification)
	require.Contains(t, err.Error(), "64-bit")

	err = Verify(binfo.Info{Arch: 32, Debug: true}, cfg)
	require.ErrorIs(t, err, fault.Verification)
	require.Contains(t, err.Error(), "dbg")
}

type echoHarness struct {
	dir  string
	args []string
	err  error
}

func (h *echoHarness) Run(_ context.Context, c Command, dir string, stdout io.Writer) error {
	h.dir = dir
	h.args = c.Args()
	if _, err := io.WriteString(stdout, "iteration 1\n"); err != nil {
		return err
	}
	return h.err
}

func TestRunTeesOutputToLog(t *testing.T) {
	root := t.TempDir()
	st := paths.Staging{Root: root, LogPath: filepath.Join(root, "log-jsfunfuzz")}
	h := &echoHarness{}
	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), h, Command{Program: "python", Script: "m.py"}, st, &out))
	require.Equal(t, root, h.dir)
	require.Equal(t, "iteration 1\n", out.String())
	logged, err := os.ReadFile(st.LogPath)
	require.NoError(t, err)
	require.Equal(t, "iteration 1\n", string(logged))
}

func TestRunReturnsHarnessError(t *testing.T) {
	root := t.TempDir()
	st := paths.Staging{Root: root, LogPath: filepath.Join(root, "log-jsfunfuzz")}
	boom := errors.New("boom")
	err := Run(context.Background(), &echoHarness{err: boom}, Command{}, st, io.Discard)
	require.ErrorIs(t, err, boom)
}

func TestRunMissingRoot(t *testing.T) {
	st := paths.Staging{LogPath: filepath.Join(t.TempDir(), "missing", "log-jsfunfuzz")}
	require.Error(t, Run(context.Background(), &echoHarness{}, Command{}, st, io.Discard))
}

func TestBanner(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	cfg := config.RunConfig{Arch: config.Arch64, Profile: config.Debug, Branch: "im"}
	when := time.Date(2011, 3, 4, 5, 6, 7, 0, time.UTC)
	require.NoError(t, Banner(&buf, cfg, when))
	require.Contains(t, buf.String(), "!  Fuzzing 64-bit dbg im js shell builds now  !")
	require.Contains(t, buf.String(), "DATE: Fri Mar  4 05:06:07 2011")
}
