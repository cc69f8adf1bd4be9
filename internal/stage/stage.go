// Package stage creates a fresh staging root and copies the engine sources
// into it.
package stage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"funstart/internal/fault"
	"funstart/internal/paths"
)

// Copier copies a directory tree into dst, creating dst.
type Copier interface {
	CopyTree(ctx context.Context, src, dst string) error
}

// subtree is one directory copied from the branch checkout. Destinations are
// relative to the compile directory.
type subtree struct {
	name     string
	src      []string
	dst      []string
	required bool
}

var subtrees = []subtree{
	{name: "js/src", src: []string{"js", "src"}, required: true},
	{name: "js/public", src: []string{"js", "public"}, dst: []string{"..", "public"}},
	{name: "mfbt", src: []string{"mfbt"}, dst: []string{"..", "..", "mfbt"}},
}

// Stager copies the branch sources into the staging root.
type Stager struct {
	Copier Copier
	Log    *zap.Logger
}

// Stage creates staging.Root, which must not exist yet, and copies the
// source subtrees of branchRoot into the compile directory. Optional
// subtrees missing from the checkout are skipped.
func (s Stager) Stage(ctx context.Context, branchRoot string, staging paths.Staging) error {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(staging.Root), 0o755); err != nil {
		return fault.Wrap(fault.Staging, "stage", fmt.Errorf("create parent of %s: %w", staging.Root, err))
	}
	if err := os.Mkdir(staging.Root, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fault.New(fault.Staging, "stage", "the fuzzing path at %q already exists", staging.Root)
		}
		return fault.Wrap(fault.Staging, "stage", err)
	}

	for _, st := range subtrees {
		src := filepath.Join(append([]string{branchRoot}, st.src...)...)
		dst := filepath.Clean(filepath.Join(append([]string{staging.CompileDir}, st.dst...)...))
		info, err := os.Stat(src)
		switch {
		case err == nil && info.IsDir():
		case st.required:
			if err == nil {
				err = fmt.Errorf("%s is not a directory", src)
			}
			return fault.Wrap(fault.Staging, "stage", fmt.Errorf("required subtree %s: %w", st.name, err))
		default:
			log.Debug("skipping absent subtree", zap.String("subtree", st.name))
			continue
		}
		if err := s.Copier.CopyTree(ctx, src, dst); err != nil {
			return fault.Wrap(fault.Staging, "stage", fmt.Errorf("copy %s: %w", st.name, err))
		}
		log.Debug("copied subtree", zap.String("subtree", st.name), zap.String("dst", dst))
	}
	return nil
}
