package buildpipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"funstart/internal/branch"
	"funstart/internal/config"
	"funstart/internal/host"
	"funstart/internal/stage"
	"funstart/internal/trace"
)

// Configurer prepares an object directory for compilation.
type Configurer interface {
	// Autoconf regenerates the configure script in dir.
	Autoconf(ctx context.Context, dir string) error
	// Configure runs the configure script inside p.ObjDir.
	Configure(ctx context.Context, p ConfigureParams) error
}

// Compiler builds a configured object directory.
type Compiler interface {
	// CompileCopy builds the shell in p.ObjDir and copies it into
	// p.StagingRoot, returning the copied binary's path.
	CompileCopy(ctx context.Context, p CompileParams) (string, error)
}

// ConfigureParams describes one configure run.
type ConfigureParams struct {
	Script     string // path of the configure script
	ObjDir     string
	Arch       config.Arch
	Profile    config.Profile
	Host       host.Info
	ThreadSafe bool
	Valgrind   bool
	MethodJIT  bool
}

// CompileParams describes one compile-and-copy run.
type CompileParams struct {
	ObjDir      string
	CompileDir  string
	StagingRoot string
	Arch        config.Arch
	Profile     config.Profile
	Branch      branch.ID
	Host        host.Info
	UsePymake   bool
	Jobs        int
}

// ShellName is the file name a built shell is copied to, for example
// js-dbg-32-mc-linux.
func ShellName(arch config.Arch, profile config.Profile, id branch.ID, h host.Info) string {
	name := "js-" + string(profile) + "-" + arch.String() + "-" + string(id) + "-" + h.OS
	if h.IsWindows() {
		name += ".exe"
	}
	return name
}

// Runner executes external build commands.
type Runner struct {
	// PrintCommands echoes every command line before running it.
	PrintCommands bool
	// Stdout receives the command's standard output; nil means os.Stdout.
	Stdout io.Writer
	Log    *zap.Logger
}

func (r Runner) stdout() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}
	return r.Stdout
}

// run runs name in dir. Standard error is captured and its tail becomes the
// error message on failure.
func (r Runner) run(ctx context.Context, dir string, env []string, name string, args ...string) error {
	line := strings.TrimSpace(strings.Join(env, " ") + " " + name + " " + strings.Join(args, " "))
	if r.PrintCommands {
		if _, err := fmt.Fprintln(r.stdout(), line); err != nil {
			return fmt.Errorf("failed to print command: %w", err)
		}
	}
	if r.Log != nil {
		r.Log.Debug("run", zap.String("dir", dir), zap.String("cmd", line))
	}
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeCommand, name, trace.ParentFrom(ctx))
	span.WithExtra("dir", dir)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.Stdout = r.stdout()
	var stderr strings.Builder
	cmd.Stderr = &stderr
	err := cmd.Run()
	span.EndErr(err)
	if err != nil {
		msg := tail(stderr.String(), 20)
		if msg == "" {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%s: %w\n%s", name, err, msg)
	}
	return nil
}

// tail returns the last n non-empty lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Autotools is the default Configurer: autoconf 2.13 and the engine's
// configure script.
type Autotools struct {
	Runner
	// Autoconf overrides the autoconf binary name.
	AutoconfBinary string
}

// Autoconf implements Configurer.
func (a Autotools) Autoconf(ctx context.Context, dir string) error {
	bin := a.AutoconfBinary
	if bin == "" {
		bin = "autoconf-2.13"
		if runtime.GOOS == "darwin" {
			bin = "autoconf213"
		}
	}
	return a.run(ctx, dir, nil, bin)
}

// Configure implements Configurer.
func (a Autotools) Configure(ctx context.Context, p ConfigureParams) error {
	env, args := ConfigureCommand(p)
	return a.run(ctx, p.ObjDir, env, "sh", append([]string{p.Script}, args...)...)
}

// ConfigureCommand returns the environment and configure arguments for p.
func ConfigureCommand(p ConfigureParams) (env, args []string) {
	if p.Arch == config.Arch32 && !p.Host.IsWindows() {
		switch p.Host.OS {
		case "darwin":
			env = []string{"CC=gcc -m32 -arch i386", "CXX=g++ -m32 -arch i386", "HOST_CC=gcc", "HOST_CXX=g++", "AR=ar", "CROSS_COMPILE=1"}
			args = append(args, "--target=i386-apple-darwin9.2.0")
		default:
			if p.Host.IsX8664() {
				env = []string{"CC=gcc -m32", "CXX=g++ -m32", "AR=ar"}
				args = append(args, "--target=i686-pc-linux")
			}
		}
	}
	if p.Arch == config.Arch64 && p.Host.OS == "darwin" {
		args = append(args, "--target=x86_64-apple-darwin10.0.0")
	}
	if p.Profile.IsDebug() {
		args = append(args, "--disable-optimize", "--enable-debug")
	} else {
		args = append(args, "--enable-optimize", "--disable-debug")
	}
	if p.MethodJIT {
		args = append(args, "--enable-methodjit")
	}
	if p.Valgrind {
		args = append(args, "--enable-valgrind")
	}
	if p.ThreadSafe {
		args = append(args, "--enable-threadsafe", "--with-system-nspr")
	}
	return env, args
}

// Make is the default Compiler: make, or pymake on Windows tip.
type Make struct {
	Runner
	// Binary overrides the make binary name.
	Binary string
}

// CompileCopy implements Compiler.
func (m Make) CompileCopy(ctx context.Context, p CompileParams) (string, error) {
	jobs := p.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	jobsFlag := "-j" + strconv.Itoa(jobs)
	if p.UsePymake {
		pymake := filepath.Join(p.CompileDir, "build", "pymake", "make.py")
		if err := m.run(ctx, p.ObjDir, nil, "python", "-O", pymake, jobsFlag, "-s"); err != nil {
			return "", err
		}
	} else {
		bin := m.Binary
		if bin == "" {
			bin = "make"
		}
		if err := m.run(ctx, p.ObjDir, nil, bin, "-s", jobsFlag); err != nil {
			return "", err
		}
	}

	built := filepath.Join(p.ObjDir, "js")
	if p.Host.IsWindows() {
		built += ".exe"
	}
	dst := filepath.Join(p.StagingRoot, ShellName(p.Arch, p.Profile, p.Branch, p.Host))
	if err := stage.CopyFile(built, dst); err != nil {
		return "", fmt.Errorf("copy %s: %w", built, err)
	}
	return dst, nil
}
