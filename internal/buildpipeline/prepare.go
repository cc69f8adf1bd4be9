package buildpipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"funstart/internal/binfo"
	"funstart/internal/branch"
	"funstart/internal/config"
	"funstart/internal/fault"
	"funstart/internal/flags"
	"funstart/internal/launch"
	"funstart/internal/patch"
	"funstart/internal/paths"
	"funstart/internal/stage"
	"funstart/internal/trace"
	"funstart/internal/vcs"
)

// Toolchain bundles the external collaborators of a run.
type Toolchain struct {
	SCM        vcs.SourceControl
	Copier     stage.Copier
	Applier    patch.Applier
	Configurer Configurer
	Compiler   Compiler
	Inspector  binfo.Inspector
}

// DefaultToolchain shells out to hg, patch, autoconf, configure and make.
func DefaultToolchain(runner Runner) Toolchain {
	return Toolchain{
		SCM:        vcs.Mercurial{},
		Copier:     stage.DirCopier{},
		Applier:    patch.Tool{Output: runner.Stdout},
		Configurer: Autotools{Runner: runner},
		Compiler:   Make{Runner: runner},
		Inspector:  binfo.ObjectInspector{},
	}
}

// Request configures Prepare.
type Request struct {
	Config   config.RunConfig
	Layout   paths.Layout
	Progress ProgressSink
	Log      *zap.Logger
}

// Session is a prepared fuzzing session, ready to launch.
type Session struct {
	Plan     paths.Plan
	Revision vcs.Revision
	Staging  paths.Staging
	Build    BuildResult
	Flags    flags.Set
	Command  launch.Command
	Timings  Timings
}

// Prepare runs everything up to the harness launch: it plans the paths,
// tags the revision, stages and patches the sources, builds both profiles,
// copies the harness support files, composes the command and verifies the
// binary.
func Prepare(ctx context.Context, tc Toolchain, req Request) (Session, error) {
	var sess Session
	if ctx == nil {
		ctx = context.Background()
	}
	log := req.Log
	if log == nil {
		log = zap.NewNop()
	}
	cfg := req.Config
	steps := stepper{sink: req.Progress, timings: &sess.Timings}

	ctx, span := trace.Start(ctx, trace.ScopeRun, "prepare")
	span.WithExtra("branch", string(cfg.Branch)).
		WithExtra("profile", string(cfg.Profile)).
		WithExtra("arch", cfg.Arch.String())
	var err error
	defer func() { span.EndErr(err) }()

	for _, row := range Rows(cfg.Profile) {
		row.Status = StatusQueued
		report(req.Progress, row)
	}

	err = steps.run(ctx, StagePlan, "", func(context.Context) (string, error) {
		info, ok := branch.Lookup(cfg.Branch)
		if !ok {
			return "", fault.New(fault.Config, "plan", "unknown branch %q", cfg.Branch)
		}
		plan, planErr := paths.New(cfg, info, req.Layout)
		if planErr != nil {
			return "", planErr
		}
		sess.Plan = plan
		return plan.BranchRoot, nil
	})
	if err != nil {
		return sess, err
	}
	log.Debug("planned paths",
		zap.String("branch_root", sess.Plan.BranchRoot),
		zap.String("known_issues", sess.Plan.KnownIssues),
		zap.String("staging_base", sess.Plan.StagingBase))

	var tagged vcs.Tagged
	err = steps.run(ctx, StageTag, "", func(ctx context.Context) (string, error) {
		var tagErr error
		tagged, tagErr = vcs.Tagger{SCM: tc.SCM, Log: log}.Tag(ctx, sess.Plan, cfg.Host)
		return tagged.Revision.Suffix(), tagErr
	})
	if err != nil {
		return sess, err
	}
	sess.Revision = tagged.Revision
	sess.Staging = tagged.Staging

	err = steps.run(ctx, StageCopy, "", func(ctx context.Context) (string, error) {
		return sess.Staging.Root, stage.Stager{Copier: tc.Copier, Log: log}.Stage(ctx, sess.Plan.BranchRoot, sess.Staging)
	})
	if err != nil {
		return sess, err
	}

	if len(cfg.Patches) == 0 {
		steps.skip(ctx, StagePatch, "", "no patches")
	} else {
		err = steps.run(ctx, StagePatch, "", func(ctx context.Context) (string, error) {
			return fmt.Sprintf("%d applied", len(cfg.Patches)),
				patch.Patcher{Applier: tc.Applier, Log: log}.Apply(ctx, sess.Staging.CompileDir, cfg.Patches)
		})
		if err != nil {
			return sess, err
		}
	}

	builder := DualBuilder{
		Configurer: tc.Configurer,
		Compiler:   tc.Compiler,
		Inspector:  tc.Inspector,
		Log:        log,
	}
	sess.Build, err = builder.Build(ctx, BuildRequest{
		Config:    cfg,
		Staging:   sess.Staging,
		UsePymake: tagged.UsePymake,
		Progress:  req.Progress,
		Timings:   &sess.Timings,
	})
	if err != nil {
		return sess, err
	}

	err = steps.run(ctx, StageSupport, "", func(context.Context) (string, error) {
		return fmt.Sprintf("%d files", len(launch.SupportFiles)), launch.CopySupportFiles(sess.Plan.HarnessDir, sess.Staging.Root)
	})
	if err != nil {
		return sess, err
	}

	sess.Flags = flags.Compose(sess.Plan.Branch, cfg.JIT, cfg.Valgrind, cfg.Timeout, sess.Plan.RepoPath())
	sess.Command = launch.NewCommand(sess.Plan.HarnessDir, sess.Flags, sess.Plan.KnownIssues, sess.Build.BinaryPath)
	log.Debug("composed harness command", zap.Strings("args", sess.Command.Args()))

	err = steps.run(ctx, StageVerify, "", func(context.Context) (string, error) {
		return describeBinary(sess.Build.Binary), launch.Verify(sess.Build.Binary, cfg)
	})
	return sess, err
}

var sizePrinter = message.NewPrinter(language.English)

// describeBinary summarizes a binary, for example "elf 32-bit debug, 12,345,678 bytes".
func describeBinary(info binfo.Info) string {
	var sb strings.Builder
	sb.WriteString(sizePrinter.Sprintf("%s %d-bit", info.Format, info.Arch))
	if info.Debug {
		sb.WriteString(" debug")
	} else {
		sb.WriteString(" optimized")
	}
	sb.WriteString(sizePrinter.Sprintf(", %d bytes", info.Size))
	return sb.String()
}
