package buildpipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"funstart/internal/binfo"
	"funstart/internal/config"
	"funstart/internal/fault"
	"funstart/internal/paths"
	"funstart/internal/workdir"
)

// BuildRequest configures a dual build.
type BuildRequest struct {
	Config    config.RunConfig
	Staging   paths.Staging
	UsePymake bool
	Progress  ProgressSink
	Timings   *Timings
}

// BuildResult describes the requested profile's binary. The opposite
// profile's binary is built into the staging root too but not reported.
type BuildResult struct {
	Profile    config.Profile
	BinaryPath string
	Binary     binfo.Info
	DbgObjDir  string
	OptObjDir  string
}

// DualBuilder builds the requested profile and then its opposite from the
// same staged tree.
type DualBuilder struct {
	Configurer Configurer
	Compiler   Compiler
	Inspector  binfo.Inspector
	Log        *zap.Logger
}

// Build runs the dual-build sequence. Any configure or compile failure
// aborts the build; nothing is retried.
func (b DualBuilder) Build(ctx context.Context, req BuildRequest) (BuildResult, error) {
	log := b.Log
	if log == nil {
		log = zap.NewNop()
	}
	timings := req.Timings
	if timings == nil {
		timings = &Timings{}
	}
	steps := stepper{sink: req.Progress, timings: timings}
	cfg := req.Config
	st := req.Staging
	requested := cfg.Profile
	opposite := requested.Opposite()

	result := BuildResult{
		Profile:   requested,
		DbgObjDir: st.DbgObjDir,
		OptObjDir: st.OptObjDir,
	}

	if err := b.autoconf(ctx, steps, st.CompileDir, requested); err != nil {
		return result, err
	}
	for _, dir := range []string{st.ObjDir(requested), st.ObjDir(opposite)} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			return result, fmt.Errorf("create object directory: %w", err)
		}
	}

	binary, err := b.buildProfile(ctx, steps, req, requested)
	if err != nil {
		return result, err
	}
	result.BinaryPath = binary
	log.Debug("built requested shell", zap.String("path", binary))

	// One level up from the objdir must be the compile dir, inside src.
	if err := checkLanding(filepath.Join(st.ObjDir(requested), ".."), func(cwd string) error {
		if err := checkInSource(cwd); err != nil {
			return err
		}
		return checkSameDir(cwd, st.CompileDir, "compile directory")
	}); err != nil {
		return result, err
	}

	if err := b.autoconf(ctx, steps, st.CompileDir, opposite); err != nil {
		return result, err
	}
	if _, err := b.buildProfile(ctx, steps, req, opposite); err != nil {
		return result, err
	}

	// objdir, src, js and compilePath sit between the opposite objdir and
	// the staging root.
	if err := checkLanding(filepath.Join(st.ObjDir(opposite), "..", "..", "..", ".."), func(cwd string) error {
		return checkSameDir(cwd, st.Root, "staging root")
	}); err != nil {
		return result, err
	}

	err = steps.run(ctx, StageInspect, "", func(context.Context) (string, error) {
		info, inspectErr := b.Inspector.Inspect(binary)
		if inspectErr != nil {
			return "", fault.Wrap(fault.Verification, "inspect", fmt.Errorf("%s: %w", binary, inspectErr))
		}
		result.Binary = info
		return describeBinary(info), nil
	})
	return result, err
}

func (b DualBuilder) autoconf(ctx context.Context, steps stepper, dir string, target config.Profile) error {
	return steps.run(ctx, StageAutoconf, string(target), func(ctx context.Context) (string, error) {
		return "", b.Configurer.Autoconf(ctx, dir)
	})
}

// buildProfile configures and compiles one profile inside its object
// directory and returns the copied binary's path.
func (b DualBuilder) buildProfile(ctx context.Context, steps stepper, req BuildRequest, profile config.Profile) (string, error) {
	cfg := req.Config
	st := req.Staging
	objDir := st.ObjDir(profile)
	var binary string
	err := workdir.Within(objDir, func() error {
		if err := steps.run(ctx, StageConfigure, string(profile), func(ctx context.Context) (string, error) {
			return "", b.Configurer.Configure(ctx, ConfigureParams{
				Script:     filepath.Join(st.CompileDir, "configure"),
				ObjDir:     objDir,
				Arch:       cfg.Arch,
				Profile:    profile,
				Host:       cfg.Host,
				ThreadSafe: cfg.ThreadSafe,
				Valgrind:   cfg.Valgrind,
				MethodJIT:  cfg.JIT.MethodJIT,
			})
		}); err != nil {
			return fmt.Errorf("configure %s: %w", profile, err)
		}
		return steps.run(ctx, StageCompile, string(profile), func(ctx context.Context) (string, error) {
			path, err := b.Compiler.CompileCopy(ctx, CompileParams{
				ObjDir:      objDir,
				CompileDir:  st.CompileDir,
				StagingRoot: st.Root,
				Arch:        cfg.Arch,
				Profile:     profile,
				Branch:      cfg.Branch,
				Host:        cfg.Host,
				UsePymake:   req.UsePymake,
				Jobs:        cfg.Jobs,
			})
			if err != nil {
				return "", fmt.Errorf("compile %s: %w", profile, err)
			}
			binary = path
			return filepath.Base(path), nil
		})
	})
	return binary, err
}

// checkInSource asserts that cwd lies inside a src directory.
func checkInSource(cwd string) error {
	for _, part := range strings.Split(filepath.ToSlash(cwd), "/") {
		if part == "src" {
			return nil
		}
	}
	return fault.New(fault.Invariant, "build", "working directory %s is not inside the src subtree", cwd)
}

// checkLanding enters dir and runs check on the resulting working
// directory. Failing to enter dir is itself an invariant violation.
func checkLanding(dir string, check func(cwd string) error) error {
	entered := false
	err := workdir.Within(dir, func() error {
		entered = true
		cwd, err := workdir.Current()
		if err != nil {
			return err
		}
		return check(cwd)
	})
	if err != nil && !entered {
		return fault.Wrap(fault.Invariant, "build", fmt.Errorf("cannot enter %s: %w", dir, err))
	}
	return err
}

// checkSameDir asserts that cwd is want.
func checkSameDir(cwd, want, what string) error {
	if workdir.Canonical(cwd) == workdir.Canonical(want) {
		return nil
	}
	return fault.New(fault.Invariant, "build", "working directory %s is not the %s %s", cwd, what, want)
}
