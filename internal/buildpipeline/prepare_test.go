package buildpipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"funstart/internal/binfo"
	"funstart/internal/branch"
	"funstart/internal/config"
	"funstart/internal/fault"
	"funstart/internal/flags"
	"funstart/internal/host"
	"funstart/internal/launch"
	"funstart/internal/paths"
	"funstart/internal/stage"
	"funstart/internal/vcs"
	"funstart/internal/workdir"
)

var linuxHost = host.Info{OS: "linux", Machine: "x86_64", Node: "fuzz1"}

type stubSCM struct{ rev vcs.Revision }

func (s stubSCM) Identify(context.Context) (vcs.Revision, error) { return s.rev, nil }

type stubApplier struct{ code int }

func (s stubApplier) Apply(context.Context, string, string) (int, error) { return s.code, nil }

// recorder logs collaborator calls together with the working directory.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(t *testing.T, call string) {
	t.Helper()
	cwd, err := workdir.Current()
	require.NoError(t, err)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call+"@"+cwd)
}

type stubConfigurer struct {
	t   *testing.T
	rec *recorder
	err error
}

func (c stubConfigurer) Autoconf(_ context.Context, dir string) error {
	c.rec.add(c.t, "autoconf "+filepath.Base(dir))
	return nil
}

func (c stubConfigurer) Configure(_ context.Context, p ConfigureParams) error {
	c.rec.add(c.t, "configure "+string(p.Profile))
	return c.err
}

type stubCompiler struct {
	t   *testing.T
	rec *recorder
}

func (c stubCompiler) CompileCopy(_ context.Context, p CompileParams) (string, error) {
	c.rec.add(c.t, "compile "+string(p.Profile))
	dst := filepath.Join(p.StagingRoot, ShellName(p.Arch, p.Profile, p.Branch, p.Host))
	if err := os.WriteFile(dst, []byte("shell"), 0o755); err != nil {
		return "", err
	}
	return dst, nil
}

type stubInspector struct{ info binfo.Info }

func (s stubInspector) Inspect(string) (binfo.Info, error) { return s.info, nil }

type fixture struct {
	layout paths.Layout
	rec    *recorder
	tc     Toolchain
	cfg    config.RunConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	home := workdir.Canonical(t.TempDir())
	layout := paths.NewLayout(config.PathSettings{}, home)
	mkfile := func(path string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(filepath.Base(path)), 0o644))
	}
	mkfile(filepath.Join(layout.Trees, "mozilla-central", "js", "src", "configure.in"))
	mkfile(filepath.Join(layout.Trees, "mozilla-central", "js", "public", "Value.h"))
	for _, name := range launch.SupportFiles {
		mkfile(filepath.Join(layout.Fuzzing, "jsfunfuzz", name))
	}

	rec := &recorder{}
	return &fixture{
		layout: layout,
		rec:    rec,
		tc: Toolchain{
			SCM:        stubSCM{rev: vcs.Revision{Number: "1234", Hash: "abcdef012345", Tip: true}},
			Copier:     stage.DirCopier{},
			Applier:    stubApplier{},
			Configurer: stubConfigurer{t: t, rec: rec},
			Compiler:   stubCompiler{t: t, rec: rec},
			Inspector:  stubInspector{info: binfo.Info{Format: "elf", Arch: 32, Size: 1234567}},
		},
		cfg: config.RunConfig{
			Arch:    config.Arch32,
			Profile: config.Optimized,
			Branch:  branch.MozillaCentral,
			Host:    linuxHost,
			Timeout: linuxHost.HarnessTimeout(),
			JIT:     flags.DefaultToggles(),
		},
	}
}

func (f *fixture) prepare(t *testing.T, sink ProgressSink) (Session, error) {
	t.Helper()
	return Prepare(context.Background(), f.tc, Request{Config: f.cfg, Layout: f.layout, Progress: sink})
}

func TestPrepareOptimized32OnCentral(t *testing.T) {
	f := newFixture(t)
	before, err := os.Getwd()
	require.NoError(t, err)

	var events []Event
	sess, err := f.prepare(t, SinkFunc(func(ev Event) { events = append(events, ev) }))
	require.NoError(t, err)

	after, err := os.Getwd()
	require.NoError(t, err)
	require.Equal(t, before, after, "working directory must be restored")

	root := filepath.Join(f.layout.Desktop, "jsfunfuzz-opt-32-mc-1234-abcdef012345")
	require.Equal(t, root, sess.Staging.Root)
	compile := filepath.Join(root, "compilePath", "js", "src")
	require.FileExists(t, filepath.Join(compile, "configure.in"))
	require.FileExists(t, filepath.Join(root, "compilePath", "js", "public", "Value.h"))
	require.DirExists(t, filepath.Join(compile, "opt-objdir"))
	require.DirExists(t, filepath.Join(compile, "dbg-objdir"))
	for _, name := range launch.SupportFiles {
		require.FileExists(t, filepath.Join(root, name))
	}

	optDir := filepath.Join(compile, "opt-objdir")
	dbgDir := filepath.Join(compile, "dbg-objdir")
	require.Equal(t, []string{
		"autoconf src@" + workdir.Canonical(before),
		"configure opt@" + optDir,
		"compile opt@" + optDir,
		"autoconf src@" + workdir.Canonical(before),
		"configure dbg@" + dbgDir,
		"compile dbg@" + dbgDir,
	}, f.rec.calls)

	binary := filepath.Join(root, "js-opt-32-mc-linux")
	require.Equal(t, binary, sess.Build.BinaryPath)
	require.Equal(t, config.Optimized, sess.Build.Profile)

	sep := string(filepath.Separator)
	require.Equal(t, []string{
		"-u", filepath.Join(f.layout.Fuzzing, "jsfunfuzz", "multi_timed_run.py"),
		"--comparejit", "--random-flags", "--repo=" + filepath.Join(f.layout.Trees, "mozilla-central") + sep,
		"10", filepath.Join(f.layout.Fuzzing, "js-known", "mozilla-central") + sep, binary,
		"-m", "-n", "-a", "-d",
	}, sess.Command.Args())

	last := events[len(events)-1]
	require.Equal(t, StageVerify, last.Stage)
	require.Equal(t, StatusDone, last.Status)
	require.Equal(t, "elf 32-bit optimized, 1,234,567 bytes", last.Detail)
	require.True(t, sess.Timings.Has(StageCompile))
}

func TestPrepareAutoconfRunsInCallerDirectory(t *testing.T) {
	// Autoconf receives the compile directory explicitly; only configure and
	// compile run with the object directory as working directory.
	f := newFixture(t)
	t.Chdir(f.layout.Home)
	_, err := f.prepare(t, nil)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(f.rec.calls[0], "@"+f.layout.Home))
}

func TestPrepareVerificationMismatch(t *testing.T) {
	f := newFixture(t)
	f.tc.Inspector = stubInspector{info: binfo.Info{Format: "elf", Arch: 64}}
	_, err := f.prepare(t, nil)
	require.ErrorIs(t, err, fault.Verification)
}

func TestPrepareDebugMismatch(t *testing.T) {
	f := newFixture(t)
	f.tc.Inspector = stubInspector{info: binfo.Info{Format: "elf", Arch: 32, Debug: true}}
	_, err := f.prepare(t, nil)
	require.ErrorIs(t, err, fault.Verification)
}

func TestPreparePatchFailureStopsBeforeBuild(t *testing.T) {
	f := newFixture(t)
	f.cfg.Patches = []string{filepath.Join(f.layout.Home, "fix.diff")}
	f.tc.Applier = stubApplier{code: 1}

	sess, err := f.prepare(t, nil)
	require.ErrorIs(t, err, fault.Patch)
	require.Empty(t, f.rec.calls)
	require.Equal(t, "patched", filepath.Base(sess.Staging.Root))
}

func TestPrepareExistingStagingRoot(t *testing.T) {
	f := newFixture(t)
	_, err := f.prepare(t, nil)
	require.NoError(t, err)

	_, err = f.prepare(t, nil)
	require.ErrorIs(t, err, fault.Staging)
}

func TestPrepareMissingBranchTree(t *testing.T) {
	f := newFixture(t)
	f.cfg.Branch = branch.IonMonkey
	_, err := f.prepare(t, nil)
	require.ErrorIs(t, err, fault.Path)
}

func TestPrepareConfigureFailureAborts(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("configure: error: no C compiler")
	f.tc.Configurer = stubConfigurer{t: t, rec: f.rec, err: boom}

	var failed []Event
	_, err := f.prepare(t, SinkFunc(func(ev Event) {
		if ev.Status == StatusError {
			failed = append(failed, ev)
		}
	}))
	require.ErrorIs(t, err, boom)
	require.Len(t, failed, 1)
	require.Equal(t, "configure opt", failed[0].Key())
	for _, call := range f.rec.calls {
		require.NotContains(t, call, "compile")
	}
}
