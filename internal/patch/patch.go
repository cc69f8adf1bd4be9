// Package patch applies operator-supplied patches to the staged tree.
package patch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"funstart/internal/fault"
)

// Applier applies one patch file inside dir and reports the tool's exit code.
// A non-nil error means the tool could not be run at all.
type Applier interface {
	Apply(ctx context.Context, dir, file string) (int, error)
}

// Patcher applies patches in order.
type Patcher struct {
	Applier Applier
	Log     *zap.Logger
}

// Apply applies every patch in order and stops at the first failure. Any
// non-zero exit code is fatal, including the patch tool's 1 (some hunks
// failed) and 2 (serious trouble).
func (p Patcher) Apply(ctx context.Context, dir string, patches []string) error {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	for i, file := range patches {
		code, err := p.Applier.Apply(ctx, dir, file)
		if err != nil {
			return fault.Wrap(fault.Patch, "patch", fmt.Errorf("patch %d (%s): %w", i+1, file, err))
		}
		if code != 0 {
			return fault.New(fault.Patch, "patch", "patch %d (%s) failed with exit code %d", i+1, file, code)
		}
		log.Debug("applied patch", zap.Int("index", i+1), zap.String("file", file))
	}
	return nil
}

// Tool runs `patch -p3 -i <file>`.
type Tool struct {
	// Binary defaults to "patch".
	Binary string
	// Strip is the -p level; zero means 3, which matches patches made
	// against the full tree and applied from js/src.
	Strip int
	// Output receives the tool's stdout and stderr; nil means the
	// process's own.
	Output io.Writer
}

// Apply runs the patch tool in dir.
func (t Tool) Apply(ctx context.Context, dir, file string) (int, error) {
	bin := t.Binary
	if bin == "" {
		bin = "patch"
	}
	strip := t.Strip
	if strip == 0 {
		strip = 3
	}
	cmd := exec.CommandContext(ctx, bin, fmt.Sprintf("-p%d", strip), "-i", file)
	cmd.Dir = dir
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	if t.Output != nil {
		cmd.Stdout, cmd.Stderr = t.Output, t.Output
	}
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}
