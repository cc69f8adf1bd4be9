//go:build linux || darwin || freebsd

package host

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Detect reads the host identity from uname(2).
func Detect() (Info, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return Info{}, fmt.Errorf("uname: %w", err)
	}
	return Info{
		OS:      runtime.GOOS,
		Machine: unix.ByteSliceToString(u.Machine[:]),
		Node:    unix.ByteSliceToString(u.Nodename[:]),
	}, nil
}

// EnableCoreDumps raises the soft core-file limit to the hard limit so the
// harness and the shells it starts leave core files behind on crashes.
func EnableCoreDumps() error {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_CORE, &lim); err != nil {
		return fmt.Errorf("getrlimit core: %w", err)
	}
	if lim.Cur == lim.Max {
		return nil
	}
	lim.Cur = lim.Max
	if err := unix.Setrlimit(unix.RLIMIT_CORE, &lim); err != nil {
		return fmt.Errorf("setrlimit core: %w", err)
	}
	return nil
}
