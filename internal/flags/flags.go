// Package flags composes the harness and shell feature flags for a branch.
package flags

import (
	"funstart/internal/branch"
	"funstart/internal/host"
)

// Toggles are the static JIT switches. They are read once from settings and
// never mutated.
type Toggles struct {
	MethodJIT    bool // -m -n, and a prerequisite for compareJIT
	MethodJITAll bool // -a
	DebugJIT     bool // -d
}

// DefaultToggles enables every JIT switch.
func DefaultToggles() Toggles {
	return Toggles{MethodJIT: true, MethodJITAll: true, DebugJIT: true}
}

// IonCombos are the useful Ion tier settings:
// {--ion -n, --ion, --ion-eager} x {--ion-regalloc=greedy, --ion-regalloc=lsra}.
var IonCombos = [6][]string{
	{"--ion", "-n", "--ion-regalloc=greedy"},
	{"--ion", "--ion-regalloc=greedy"},
	{"--ion-eager", "--ion-regalloc=greedy"},
	{"--ion", "-n", "--ion-regalloc=lsra"},
	{"--ion", "--ion-regalloc=lsra"},
	{"--ion-eager", "--ion-regalloc=lsra"},
}

// IonDefault is the pinned IonCombos index. The combination is meant to be
// drawn at random inside the harness eventually; until then it stays fixed at
// ion-eager with lsra.
const IonDefault = 5

// Set is the composed flag vocabulary for one run.
type Set struct {
	// Harness options, placed before the positional arguments.
	Harness []string
	// Shell flags, placed after the binary path.
	Shell []string
	// Timeout is the harness per-run timeout in seconds.
	Timeout int
	// CompareJIT reports whether --comparejit was selected.
	CompareJIT bool
}

// Compose derives the flag set. repoPath is the branch's source root as it
// should appear in --repo=.
func Compose(info branch.Info, t Toggles, valgrind bool, timeout int, repoPath string) Set {
	set := Set{Timeout: timeout}

	set.CompareJIT = t.MethodJIT && info.CompareJIT && !valgrind
	if set.CompareJIT {
		set.Harness = append(set.Harness, "--comparejit")
	}
	set.Harness = append(set.Harness, "--random-flags")
	if info.RepoFlag {
		set.Harness = append(set.Harness, "--repo="+repoPath)
	}
	if valgrind {
		set.Harness = append(set.Harness, "--valgrind")
		set.Timeout = host.ValgrindTimeout
	}

	if t.MethodJIT {
		set.Shell = append(set.Shell, "-m", "-n")
		if t.MethodJITAll {
			set.Shell = append(set.Shell, "-a")
		}
	}
	if t.DebugJIT && info.DebugJIT {
		set.Shell = append(set.Shell, "-d")
	}
	if info.Ion {
		set.Shell = append(set.Shell, IonCombos[IonDefault]...)
	}
	return set
}
