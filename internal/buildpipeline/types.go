// Package buildpipeline prepares a fuzzing session: it stages the engine
// sources, builds both shell profiles and composes the harness command.
package buildpipeline

import (
	"time"

	"funstart/internal/config"
)

// Stage is one phase of Prepare.
type Stage string

const (
	// StagePlan resolves every filesystem location.
	StagePlan Stage = "plan"
	// StageTag identifies the checkout revision.
	StageTag Stage = "tag"
	// StageCopy copies the source subtrees into the staging root.
	StageCopy Stage = "copy"
	// StagePatch applies the operator's patches.
	StagePatch Stage = "patch"
	// StageAutoconf regenerates the configure script.
	StageAutoconf Stage = "autoconf"
	// StageConfigure configures one object directory.
	StageConfigure Stage = "configure"
	// StageCompile builds one shell and copies it into the staging root.
	StageCompile Stage = "compile"
	// StageInspect reads the built binary's headers.
	StageInspect Stage = "inspect"
	// StageSupport copies the harness support files.
	StageSupport Stage = "support"
	// StageVerify checks the binary against the configuration.
	StageVerify Stage = "verify"
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StagePlan, StageTag, StageCopy, StagePatch, StageAutoconf,
	StageConfigure, StageCompile, StageInspect, StageSupport, StageVerify,
}

// Rows lists the progress rows of a run in execution order: one row per
// stage, with the per-profile stages repeated for the requested profile and
// then its opposite.
func Rows(requested config.Profile) []Event {
	rows := []Event{{Stage: StagePlan}, {Stage: StageTag}, {Stage: StageCopy}, {Stage: StagePatch}}
	for _, p := range []config.Profile{requested, requested.Opposite()} {
		rows = append(rows,
			Event{Stage: StageAutoconf, Target: string(p)},
			Event{Stage: StageConfigure, Target: string(p)},
			Event{Stage: StageCompile, Target: string(p)})
	}
	return append(rows, Event{Stage: StageInspect}, Event{Stage: StageSupport}, Event{Stage: StageVerify})
}

// Status is the state of one progress row.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped" // nothing to do, e.g. no patches
	StatusError   Status = "error"
)

// Event reports progress for a stage. Target names the profile for
// per-profile stages (autoconf, configure, compile) and is empty otherwise.
type Event struct {
	Stage   Stage
	Target  string
	Status  Status
	Detail  string
	Err     error
	Elapsed time.Duration
}

// Key identifies the progress row an event belongs to.
func (e Event) Key() string {
	if e.Target == "" {
		return string(e.Stage)
	}
	return string(e.Stage) + " " + e.Target
}

// ProgressSink receives progress events. Prepare calls it synchronously
// from the pipeline goroutine.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings accumulates wall time per stage. Per-profile stages add up
// across both builds. The zero value is ready to use.
type Timings struct {
	stages map[Stage]time.Duration
}

// Set records dur for stage, replacing any earlier value.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration, len(Stages))
	}
	t.stages[stage] = dur
}

// Add adds dur to stage.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t != nil {
		t.Set(stage, t.stages[stage]+dur)
	}
}

func (t Timings) Has(stage Stage) bool {
	_, ok := t.stages[stage]
	return ok
}

func (t Timings) Duration(stage Stage) time.Duration { return t.stages[stage] }

// Sum totals the given stages, or every stage when none are given.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if len(stages) == 0 {
		stages = Stages
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
