package paths

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"funstart/internal/branch"
	"funstart/internal/config"
	"funstart/internal/fault"
)

func newHome(t *testing.T, trees ...string) string {
	t.Helper()
	home := t.TempDir()
	for _, tree := range trees {
		if err := os.MkdirAll(filepath.Join(home, "trees", tree), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	return home
}

func hasSegment(path, seg string) bool {
	return slices.Contains(strings.Split(filepath.ToSlash(path), "/"), seg)
}

func TestPatchedSegment(t *testing.T) {
	home := newHome(t, "mozilla-central")
	layout := NewLayout(config.PathSettings{}, home)
	info := lookupBranch(t, branch.MozillaCentral)

	plain := config.RunConfig{Arch: config.Arch32, Profile: config.Optimized, Branch: info.ID}
	p, err := New(plain, info, layout)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s := p.Resolve("-100-abc"); hasSegment(s.Root, "patched") {
		t.Fatalf("unpatched root has patched segment: %s", s.Root)
	}

	patched := plain
	patched.Patches = []string{"/p/one.diff", "/p/two.diff"}
	p, err = New(patched, info, layout)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s := p.Resolve("-100-abc")
	if !hasSegment(s.Root, "patched") {
		t.Fatalf("patched root lacks patched segment: %s", s.Root)
	}
	if !strings.HasPrefix(s.CompileDir, s.Root) || !strings.HasPrefix(s.LogPath, s.Root) {
		t.Fatalf("staging directories must live under root: %+v", s)
	}
}

func TestLayoutAndNames(t *testing.T) {
	home := newHome(t, "ionmonkey")
	layout := NewLayout(config.PathSettings{}, home)
	info := lookupBranch(t, branch.IonMonkey)
	cfg := config.RunConfig{Arch: config.Arch64, Profile: config.Debug, Branch: info.ID}

	p, err := New(cfg, info, layout)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := map[string]string{
		"branch root":  filepath.Join(home, "trees", "ionmonkey"),
		"known issues": filepath.Join(home, "fuzzing", "js-known", "mozilla-central"),
		"harness":      filepath.Join(home, "fuzzing", "jsfunfuzz"),
		"staging":      filepath.Join(home, "Desktop", "jsfunfuzz-dbg-64-im"),
	}
	got := map[string]string{
		"branch root":  p.BranchRoot,
		"known issues": p.KnownIssues,
		"harness":      p.HarnessDir,
		"staging":      p.StagingBase,
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s = %q, want %q", k, got[k], v)
		}
	}
	if !strings.HasSuffix(p.RepoPath(), string(filepath.Separator)) {
		t.Fatalf("RepoPath must end with a separator: %q", p.RepoPath())
	}

	s := p.Resolve("-7-deadbeef")
	if s.Root != filepath.Join(home, "Desktop", "jsfunfuzz-dbg-64-im-7-deadbeef") {
		t.Fatalf("Root = %q", s.Root)
	}
	if s.ObjDir(config.Debug) == s.ObjDir(config.Optimized) {
		t.Fatalf("object directories must differ")
	}
	if filepath.Dir(s.DbgObjDir) != s.CompileDir || filepath.Base(s.OptObjDir) != "opt-objdir" {
		t.Fatalf("unexpected objdirs %+v", s)
	}
}

func TestMissingTreeIsPathError(t *testing.T) {
	home := newHome(t)
	info := lookupBranch(t, branch.Larch)
	cfg := config.RunConfig{Arch: config.Arch32, Profile: config.Optimized, Branch: info.ID}
	_, err := New(cfg, info, NewLayout(config.PathSettings{}, home))
	if !errors.Is(err, fault.Path) {
		t.Fatalf("New error = %v, want PathError", err)
	}
}

func TestLayoutOverrides(t *testing.T) {
	l := NewLayout(config.PathSettings{Home: "~/alt", Trees: "/srv/trees"}, "/home/u")
	if l.Home != filepath.Clean("/home/u/alt") {
		t.Fatalf("Home = %q", l.Home)
	}
	if l.Trees != filepath.Clean("/srv/trees") {
		t.Fatalf("Trees = %q", l.Trees)
	}
	if l.Fuzzing != filepath.Join("/home/u/alt", "fuzzing") {
		t.Fatalf("Fuzzing = %q", l.Fuzzing)
	}
}

func lookupBranch(t *testing.T, id branch.ID) branch.Info {
	t.Helper()
	info, ok := branch.Lookup(id)
	if !ok {
		t.Fatalf("unknown branch %q", id)
	}
	return info
}
