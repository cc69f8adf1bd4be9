// Package vcs tags a staging path with the revision of the branch checkout.
package vcs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"funstart/internal/fault"
	"funstart/internal/host"
	"funstart/internal/paths"
	"funstart/internal/workdir"
)

// Revision identifies the working-copy parent of a checkout.
type Revision struct {
	Number string
	Hash   string
	// Tip is true when the working copy sits on the default branch tip.
	Tip bool
}

// Suffix is appended to the staging base to make it revision specific.
func (r Revision) Suffix() string {
	return "-" + r.Number + "-" + r.Hash
}

// SourceControl inspects the checkout in the current working directory.
type SourceControl interface {
	Identify(ctx context.Context) (Revision, error)
}

// Tagged is the outcome of tagging.
type Tagged struct {
	Staging  paths.Staging
	Revision Revision
	// UsePymake selects the alternate make driver. Only Windows on the
	// default tip uses it.
	UsePymake bool
}

// Tagger runs source-control staging inside the branch checkout.
type Tagger struct {
	SCM SourceControl
	Log *zap.Logger
}

// Tag identifies the checkout's revision and returns the revision-qualified
// staging paths. The working directory is restored whatever happens.
func (t Tagger) Tag(ctx context.Context, plan paths.Plan, h host.Info) (Tagged, error) {
	log := t.Log
	if log == nil {
		log = zap.NewNop()
	}
	var (
		rev     Revision
		entered bool
	)
	err := workdir.Within(plan.BranchRoot, func() error {
		entered = true
		var idErr error
		rev, idErr = t.SCM.Identify(ctx)
		return idErr
	})
	if err != nil {
		if !entered {
			return Tagged{}, fault.Wrap(fault.Path, "tag", fmt.Errorf("the directory for %q cannot be entered: %w", plan.Branch.ID, err))
		}
		return Tagged{}, fmt.Errorf("identify revision of %s: %w", plan.BranchRoot, err)
	}
	log.Debug("identified revision",
		zap.String("branch", string(plan.Branch.ID)),
		zap.String("rev", rev.Number),
		zap.String("hash", rev.Hash),
		zap.Bool("tip", rev.Tip))

	if h.IsWindows() && !rev.Tip {
		return Tagged{}, fault.New(fault.Unsupported, "tag", "only the default tip is supported on Windows hosts (checkout is at %s)", rev.Hash)
	}
	return Tagged{
		Staging:   plan.Resolve(rev.Suffix()),
		Revision:  rev,
		UsePymake: h.IsWindows() && rev.Tip,
	}, nil
}
