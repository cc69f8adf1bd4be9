// Package paths plans every filesystem location used by a launch.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"funstart/internal/branch"
	"funstart/internal/config"
	"funstart/internal/fault"
)

const (
	stagingPrefix  = "jsfunfuzz-"
	patchedSegment = "patched"
	logName        = "log-jsfunfuzz"
)

// Layout holds the top-level roots. Every field is an absolute, cleaned path.
type Layout struct {
	Home    string
	Fuzzing string // fuzzing repository checkout
	Trees   string // parent of the branch checkouts
	Desktop string // parent of the staging roots
}

// NewLayout derives the roots from the settings, expanding a leading ~ to
// userHome. Unset roots default to directories under Home.
func NewLayout(s config.PathSettings, userHome string) Layout {
	home := expand(s.Home, userHome)
	if home == "" {
		home = filepath.Clean(userHome)
	}
	pick := func(v string, def ...string) string {
		if v = expand(v, userHome); v != "" {
			return v
		}
		return filepath.Join(append([]string{home}, def...)...)
	}
	return Layout{
		Home:    home,
		Fuzzing: pick(s.Fuzzing, "fuzzing"),
		Trees:   pick(s.Trees, "trees"),
		Desktop: pick(s.Desktop, "Desktop"),
	}
}

func expand(p, userHome string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if p == "~" {
		return filepath.Clean(userHome)
	}
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		p = filepath.Join(userHome, p[2:])
	}
	return filepath.Clean(filepath.FromSlash(p))
}

// Plan is everything known before the revision is tagged.
type Plan struct {
	Layout
	Branch      branch.Info
	BranchRoot  string
	KnownIssues string
	HarnessDir  string // <fuzzing>/jsfunfuzz
	StagingBase string // staging root before the revision suffix
	Patched     bool
}

// Staging holds the per-run directories under a staging root.
type Staging struct {
	Root       string
	CompileDir string // <root>/compilePath/js/src
	DbgObjDir  string
	OptObjDir  string
	LogPath    string
}

// New plans the locations for cfg. It fails with a PathError when the
// branch's checkout does not exist.
func New(cfg config.RunConfig, info branch.Info, layout Layout) (Plan, error) {
	root := filepath.Join(layout.Trees, info.Tree)
	st, err := os.Stat(root)
	if err != nil {
		return Plan{}, fault.Wrap(fault.Path, "plan", fmt.Errorf("the directory for %q is not found: %w", info.ID, err))
	}
	if !st.IsDir() {
		return Plan{}, fault.New(fault.Path, "plan", "the source root for %q is not a directory: %s", info.ID, root)
	}
	name := stagingPrefix + string(cfg.Profile) + "-" + cfg.Arch.String() + "-" + string(info.ID)
	return Plan{
		Layout:      layout,
		Branch:      info,
		BranchRoot:  root,
		KnownIssues: filepath.Join(layout.Fuzzing, "js-known", info.KnownIssues),
		HarnessDir:  filepath.Join(layout.Fuzzing, "jsfunfuzz"),
		StagingBase: filepath.Join(layout.Desktop, name),
		Patched:     cfg.Patched(),
	}, nil
}

// RepoPath is the branch root as passed to the harness's --repo flag. The
// harness expects a trailing separator.
func (p Plan) RepoPath() string {
	return p.BranchRoot + string(filepath.Separator)
}

// Resolve applies the revision suffix and returns the staging directories.
// Patched runs get their own `patched` subdirectory so they never share a
// tree with unpatched builds.
func (p Plan) Resolve(revisionSuffix string) Staging {
	root := p.StagingBase + revisionSuffix
	if p.Patched {
		root = filepath.Join(root, patchedSegment)
	}
	compile := filepath.Join(root, "compilePath", "js", "src")
	return Staging{
		Root:       root,
		CompileDir: compile,
		DbgObjDir:  filepath.Join(compile, string(config.Debug)+"-objdir"),
		OptObjDir:  filepath.Join(compile, string(config.Optimized)+"-objdir"),
		LogPath:    filepath.Join(root, logName),
	}
}

// ObjDir returns the object directory for profile.
func (s Staging) ObjDir(profile config.Profile) string {
	if profile == config.Debug {
		return s.DbgObjDir
	}
	return s.OptObjDir
}
