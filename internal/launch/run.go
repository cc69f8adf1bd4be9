package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"funstart/internal/paths"
	"funstart/internal/trace"
)

// Harness runs the fuzzing harness.
type Harness interface {
	// Run runs cmd in dir with standard output sent to stdout and blocks
	// until the harness exits.
	Run(ctx context.Context, cmd Command, dir string, stdout io.Writer) error
}

// ExecHarness runs the harness as a child process.
type ExecHarness struct {
	// Stderr receives the harness's standard error; nil means os.Stderr.
	Stderr io.Writer
	// WaitDelay bounds how long to wait for output after cancellation.
	WaitDelay time.Duration
}

// Run implements Harness.
func (h ExecHarness) Run(ctx context.Context, c Command, dir string, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, c.Program, c.Args()...)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = h.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.WaitDelay = h.WaitDelay
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("harness exited with code %d: %w", exitErr.ExitCode(), err)
		}
		return fmt.Errorf("run harness: %w", err)
	}
	return nil
}

// Run runs the harness in the staging root. Standard output goes to out and
// to the staging log file.
func Run(ctx context.Context, h Harness, c Command, st paths.Staging, out io.Writer) (err error) {
	// #nosec G304 -- the log path is planned inside the staging root
	logFile, err := os.Create(st.LogPath)
	if err != nil {
		return fmt.Errorf("create harness log: %w", err)
	}
	defer func() {
		if closeErr := logFile.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close harness log: %w", closeErr)
		}
	}()

	ctx, span := trace.Start(ctx, trace.ScopeRun, "harness")
	span.WithExtra("cmd", c.String())
	err = h.Run(ctx, c, st.Root, io.MultiWriter(out, logFile))
	span.EndErr(err)
	return err
}
