// Package config resolves the launcher's positional arguments and settings
// file into a validated RunConfig.
package config

import (
	"path/filepath"
	"strings"

	"funstart/internal/branch"
	"funstart/internal/fault"
	"funstart/internal/flags"
	"funstart/internal/host"
)

// Arch is the word size of the shell to build.
type Arch int

const (
	Arch32 Arch = 32
	Arch64 Arch = 64
)

func (a Arch) String() string {
	switch a {
	case Arch32:
		return "32"
	case Arch64:
		return "64"
	default:
		return "invalid"
	}
}

// Profile is the compile profile.
type Profile string

const (
	Debug     Profile = "dbg"
	Optimized Profile = "opt"
)

// Opposite returns the other profile.
func (p Profile) Opposite() Profile {
	if p == Debug {
		return Optimized
	}
	return Debug
}

// IsDebug reports whether p is the debug profile.
func (p Profile) IsDebug() bool { return p == Debug }

const (
	patchToken    = "patch"
	valgrindToken = "valgrind"
	maxPatches    = 2
	minArgs       = 3
)

// Usage is the positional argument synopsis.
const Usage = "<32|64> <dbg|opt> <branch> [patch <file1> [patch <file2>]] [valgrind]"

// RunConfig is the validated configuration of one launch.
type RunConfig struct {
	Arch       Arch
	Profile    Profile
	Branch     branch.ID
	Patches    []string // absolute paths, applied in order
	Valgrind   bool
	Host       host.Info
	Timeout    int // harness per-run timeout in seconds before flag overrides
	JIT        flags.Toggles
	ThreadSafe bool
	Jobs       int
	Paths      PathSettings
}

// Patched reports whether at least one patch is applied.
func (c RunConfig) Patched() bool { return len(c.Patches) > 0 }

// Resolve validates args and builds a RunConfig. It never touches the
// filesystem; cwd is only used to make patch paths absolute.
func Resolve(args []string, h host.Info, s Settings, cwd string) (RunConfig, error) {
	if len(args) < minArgs {
		return RunConfig{}, fault.New(fault.Config, "", "too few arguments: want %s", Usage)
	}

	var cfg RunConfig
	switch args[0] {
	case "32":
		cfg.Arch = Arch32
	case "64":
		cfg.Arch = Arch64
	default:
		return RunConfig{}, fault.New(fault.Config, "arch", "unsupported architecture %q (expected 32 or 64)", args[0])
	}

	switch Profile(args[1]) {
	case Debug, Optimized:
		cfg.Profile = Profile(args[1])
	default:
		return RunConfig{}, fault.New(fault.Config, "profile", "unsupported profile %q (expected dbg or opt)", args[1])
	}

	id := branch.ID(args[2])
	if _, ok := branch.Lookup(id); !ok {
		return RunConfig{}, fault.New(fault.Config, "branch", "unknown branch %q (expected one of %s)", args[2], knownBranches())
	}
	cfg.Branch = id

	if cfg.Arch == Arch64 && !h.IsWindows() && !h.IsX8664() {
		return RunConfig{}, fault.New(fault.Config, "arch", "64-bit builds are only supported on x86_64 hosts, not %s", h.Machine)
	}

	patches, valgrind, err := parseTail(args[minArgs:])
	if err != nil {
		return RunConfig{}, err
	}
	for _, p := range patches {
		if !filepath.IsAbs(p) {
			p = filepath.Join(cwd, p)
		}
		cfg.Patches = append(cfg.Patches, filepath.Clean(p))
	}
	if valgrind && !h.SupportsValgrind() {
		return RunConfig{}, fault.New(fault.Config, "valgrind", "valgrind runs are only supported on Linux and macOS hosts")
	}
	cfg.Valgrind = valgrind

	cfg.Host = h
	cfg.Timeout = h.HarnessTimeout()
	cfg.JIT = s.Toggles()
	cfg.ThreadSafe = s.Build.ThreadSafe
	cfg.Jobs = s.Build.Jobs
	cfg.Paths = s.Paths
	return cfg, nil
}

// parseTail reads `[patch <file1> [patch <file2>]] [valgrind]`.
func parseTail(tail []string) ([]string, bool, error) {
	var (
		patches  []string
		valgrind bool
	)
	for i := 0; i < len(tail); i++ {
		switch tail[i] {
		case patchToken:
			if valgrind {
				return nil, false, fault.New(fault.Config, "patch", "patch arguments must come before valgrind")
			}
			if i+1 >= len(tail) || strings.TrimSpace(tail[i+1]) == "" {
				return nil, false, fault.New(fault.Config, "patch", "patch flag given without a file path")
			}
			if len(patches) == maxPatches {
				return nil, false, fault.New(fault.Config, "patch", "at most %d patches are supported", maxPatches)
			}
			i++
			patches = append(patches, tail[i])
		case valgrindToken:
			if i != len(tail)-1 {
				return nil, false, fault.New(fault.Config, "valgrind", "valgrind must be the last argument")
			}
			valgrind = true
		default:
			return nil, false, fault.New(fault.Config, "", "unexpected argument %q", tail[i])
		}
	}
	return patches, valgrind, nil
}

func knownBranches() string {
	all := branch.All()
	ids := make([]string, 0, len(all))
	for _, info := range all {
		ids = append(ids, string(info.ID))
	}
	return strings.Join(ids, ", ")
}
