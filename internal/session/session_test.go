package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"funstart/internal/binfo"
	"funstart/internal/buildpipeline"
	"funstart/internal/config"
	"funstart/internal/flags"
	"funstart/internal/host"
	"funstart/internal/launch"
	"funstart/internal/paths"
	"funstart/internal/vcs"
)

func sampleSession(root string) (config.RunConfig, buildpipeline.Session) {
	cfg := config.RunConfig{
		Arch:    config.Arch32,
		Profile: config.Optimized,
		Branch:  "mc",
		Host:    host.Info{OS: "linux", Machine: "x86_64", Node: "fuzz1"},
	}
	sess := buildpipeline.Session{
		Revision: vcs.Revision{Number: "1234", Hash: "abcdef012345", Tip: true},
		Staging:  paths.Staging{Root: root, CompileDir: filepath.Join(root, "compilePath", "js", "src"), LogPath: filepath.Join(root, "log-jsfunfuzz")},
		Build: buildpipeline.BuildResult{
			Profile:    config.Optimized,
			BinaryPath: filepath.Join(root, "js-opt-32-mc-linux"),
			Binary:     binfo.Info{Format: "elf", Arch: 32, Size: 4096},
		},
		Command: launch.NewCommand("/f/jsfunfuzz", flags.Set{Harness: []string{"--random-flags"}, Timeout: 10}, "/f/js-known/mozilla-central", "js"),
	}
	sess.Timings.Set(buildpipeline.StageCompile, 3*time.Second)
	return cfg, sess
}

func TestWriteRead(t *testing.T) {
	root := t.TempDir()
	cfg, sess := sampleSession(root)
	now := time.Date(2011, 3, 4, 5, 6, 7, 0, time.UTC)

	rec, err := New(cfg, sess, now)
	require.NoError(t, err)
	require.NoError(t, Write(Path(root), rec))

	got, err := Read(Path(root))
	require.NoError(t, err)
	require.Equal(t, uint8(32), got.Arch)
	require.Equal(t, "opt", got.Profile)
	require.Equal(t, "abcdef012345", got.Hash)
	require.Equal(t, uint64(4096), got.BinarySize)
	require.Equal(t, sess.Command.Args(), got.Args)
	require.Equal(t, int64(3*time.Second), got.Timings["compile"])
	require.True(t, got.CreatedAt.Equal(now))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must not be left behind")
}

func TestNewRejectsNegativeSize(t *testing.T) {
	cfg, sess := sampleSession(t.TempDir())
	sess.Build.Binary.Size = -1
	_, err := New(cfg, sess, time.Now())
	require.Error(t, err)
}

func TestReadRejectsOtherSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	data, err := msgpack.Marshal(&Record{Schema: schemaVersion + 1})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Read(path)
	require.True(t, errors.Is(err, ErrSchema))
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), FileName))
	require.ErrorIs(t, err, os.ErrNotExist)
}
