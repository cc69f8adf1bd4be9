//go:build !linux && !darwin && !freebsd

package host

import (
	"os"
	"runtime"
)

// Detect derives the host identity from the Go runtime.
func Detect() (Info, error) {
	node, err := os.Hostname()
	if err != nil {
		node = ""
	}
	return Info{
		OS:      runtime.GOOS,
		Machine: machineFromGOARCH(runtime.GOARCH),
		Node:    node,
	}, nil
}

// EnableCoreDumps is a no-op where core limits are not managed per process.
func EnableCoreDumps() error { return nil }
