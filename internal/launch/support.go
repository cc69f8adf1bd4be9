package launch

import (
	"fmt"
	"path/filepath"

	"funstart/internal/fault"
	"funstart/internal/stage"
)

// SupportFiles are copied from the harness directory into the staging root
// before every run so the latest harness helpers are used.
var SupportFiles = []string{
	"jsfunfuzz.js",
	"analysis.py",
	"runFindInterestingFiles.py",
	"4test.py",
}

// CopySupportFiles copies SupportFiles from harnessDir into root,
// overwriting existing copies.
func CopySupportFiles(harnessDir, root string) error {
	for _, name := range SupportFiles {
		src := filepath.Join(harnessDir, name)
		if err := stage.CopyFile(src, filepath.Join(root, name)); err != nil {
			return fault.Wrap(fault.Staging, "support", fmt.Errorf("copy %s: %w", name, err))
		}
	}
	return nil
}
