package stage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"funstart/internal/fault"
	"funstart/internal/paths"
)

func writeFile(t *testing.T, path, body string, mode os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), mode); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func staging(root string) paths.Staging {
	compile := filepath.Join(root, "compilePath", "js", "src")
	return paths.Staging{Root: root, CompileDir: compile}
}

func TestStageCopiesRequiredAndOptionalTrees(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "js", "src", "configure.in"), "AC_INIT", 0o644)
	writeFile(t, filepath.Join(src, "js", "src", "build", "autoconf.sh"), "#!/bin/sh", 0o755)
	writeFile(t, filepath.Join(src, "js", "src", ".hg", "store"), "x", 0o644)
	writeFile(t, filepath.Join(src, "mfbt", "Assertions.h"), "#pragma once", 0o644)

	st := staging(filepath.Join(t.TempDir(), "Desktop", "jsfunfuzz-opt-32-mc-1-aa"))
	if err := (Stager{Copier: DirCopier{}}).Stage(context.Background(), src, st); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	if _, err := os.Stat(filepath.Join(st.CompileDir, "configure.in")); err != nil {
		t.Fatalf("js/src not copied: %v", err)
	}
	info, err := os.Stat(filepath.Join(st.CompileDir, "build", "autoconf.sh"))
	if err != nil || info.Mode().Perm()&0o100 == 0 {
		t.Fatalf("executable bit not kept: %v %v", info, err)
	}
	if _, err := os.Stat(filepath.Join(st.CompileDir, ".hg")); !os.IsNotExist(err) {
		t.Fatalf(".hg must be skipped, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(st.Root, "compilePath", "mfbt", "Assertions.h")); err != nil {
		t.Fatalf("mfbt not copied: %v", err)
	}
	if _, err := os.Stat(filepath.Join(st.Root, "compilePath", "js", "public")); !os.IsNotExist(err) {
		t.Fatalf("absent js/public must be skipped, stat err = %v", err)
	}
}

func TestStageRefusesExistingRoot(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "js", "src", "a.cpp"), "", 0o644)
	root := t.TempDir()

	err := (Stager{Copier: DirCopier{}}).Stage(context.Background(), src, staging(root))
	if !errors.Is(err, fault.Staging) {
		t.Fatalf("Stage error = %v, want StagingError", err)
	}
}

func TestStageMissingSourceTree(t *testing.T) {
	st := staging(filepath.Join(t.TempDir(), "root"))
	err := (Stager{Copier: DirCopier{}}).Stage(context.Background(), t.TempDir(), st)
	if !errors.Is(err, fault.Staging) {
		t.Fatalf("Stage error = %v, want StagingError", err)
	}
}

type failingCopier struct{}

func (failingCopier) CopyTree(context.Context, string, string) error {
	return errors.New("read-only file system")
}

func TestStageCopyFailure(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "js", "src", "a.cpp"), "", 0o644)
	st := staging(filepath.Join(t.TempDir(), "root"))
	err := (Stager{Copier: failingCopier{}}).Stage(context.Background(), src, st)
	if !errors.Is(err, fault.Staging) {
		t.Fatalf("Stage error = %v, want StagingError", err)
	}
}

func TestCopyFileOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.js")
	dst := filepath.Join(dir, "dst.js")
	writeFile(t, src, "new", 0o644)
	writeFile(t, dst, "old contents", 0o644)
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "new" {
		t.Fatalf("dst = %q, want new", data)
	}
}

// A patched root lives inside the unpatched root of the same revision, so
// the two orders of running them behave differently.
func TestStagePatchedAndPlainShareRevisionRoot(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "js", "src", "configure.in"), "AC_INIT", 0o644)
	stager := Stager{Copier: DirCopier{}}

	t.Run("patched after plain nests", func(t *testing.T) {
		plain := filepath.Join(t.TempDir(), "jsfunfuzz-dbg-64-mc-7-bb")
		if err := stager.Stage(context.Background(), src, staging(plain)); err != nil {
			t.Fatalf("plain Stage: %v", err)
		}
		patched := staging(filepath.Join(plain, "patched"))
		if err := stager.Stage(context.Background(), src, patched); err != nil {
			t.Fatalf("patched Stage: %v", err)
		}
		if _, err := os.Stat(filepath.Join(patched.CompileDir, "configure.in")); err != nil {
			t.Fatalf("patched tree not copied: %v", err)
		}
	})

	t.Run("plain after patched is refused", func(t *testing.T) {
		plain := filepath.Join(t.TempDir(), "jsfunfuzz-dbg-64-mc-7-bb")
		if err := stager.Stage(context.Background(), src, staging(filepath.Join(plain, "patched"))); err != nil {
			t.Fatalf("patched Stage: %v", err)
		}
		err := stager.Stage(context.Background(), src, staging(plain))
		if !errors.Is(err, fault.Staging) {
			t.Fatalf("plain Stage err = %v, want StagingError", err)
		}
	})
}
