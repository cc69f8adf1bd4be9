// Package host describes the machine the launcher runs on.
//
// Host identity is never user supplied; it drives the 64-bit policy, the
// harness timeout tier, Valgrind availability and Windows tip restrictions.
package host

import "strings"

// Harness timeouts in seconds.
const (
	DefaultTimeout  = 10
	TegraTimeout    = 180
	ARMTimeout      = 600
	ValgrindTimeout = 300
)

// tegraNode is the node name of the one ARM board that gets the medium tier.
const tegraNode = "tegra-ubuntu"

// Info identifies a host.
type Info struct {
	OS      string // runtime.GOOS spelling: linux, darwin, windows, ...
	Machine string // uname -m spelling: x86_64, i686, armv7l, aarch64, ...
	Node    string // network node name
}

// IsWindows reports whether the host is a Windows-class platform.
func (h Info) IsWindows() bool { return h.OS == "windows" }

// IsX8664 reports whether the host machine is 64-bit x86.
func (h Info) IsX8664() bool {
	switch strings.ToLower(h.Machine) {
	case "x86_64", "amd64":
		return true
	}
	return false
}

// IsARM reports whether the host machine is any ARM variant.
func (h Info) IsARM() bool {
	m := strings.ToLower(h.Machine)
	return strings.HasPrefix(m, "arm") || m == "aarch64"
}

// SupportsValgrind reports whether Valgrind runs are possible on the host.
func (h Info) SupportsValgrind() bool {
	return h.OS == "linux" || h.OS == "darwin"
}

// HarnessTimeout returns the per-run harness timeout for the host.
func (h Info) HarnessTimeout() int {
	if !h.IsARM() {
		return DefaultTimeout
	}
	if h.Node == tegraNode {
		return TegraTimeout
	}
	return ARMTimeout
}

// machineFromGOARCH maps a Go architecture name to uname -m spelling.
func machineFromGOARCH(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "386":
		return "i686"
	case "arm":
		return "armv7l"
	case "arm64":
		return "aarch64"
	default:
		return goarch
	}
}
