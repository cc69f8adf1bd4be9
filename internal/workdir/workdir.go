// Package workdir provides scoped working-directory changes.
package workdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Within changes into dir, runs fn, and changes back to the previous working
// directory on every exit path, including a panic in fn. An error restoring
// the previous directory is joined with fn's error.
func Within(dir string, fn func() error) (err error) {
	prev, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("enter %s: %w", dir, err)
	}
	defer func() {
		if restoreErr := os.Chdir(prev); restoreErr != nil {
			err = errors.Join(err, fmt.Errorf("restore %s: %w", prev, restoreErr))
		}
	}()
	return fn()
}

// Current returns the working directory with symlinks resolved, so it can be
// compared against paths planned ahead of time.
func Current() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}
	return Canonical(wd), nil
}

// Canonical cleans path and resolves symlinks when possible.
func Canonical(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return filepath.Clean(resolved)
	}
	return filepath.Clean(path)
}
