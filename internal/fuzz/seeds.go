package fuzztests

import (
	"strings"
	"testing"
)

const maxSeedBytes = 64 << 10 // 64 KiB

// argSeeds are positional argument lines, space separated.
var argSeeds = []string{
	"32 opt mc",
	"64 dbg im",
	"32 dbg 192 valgrind",
	"32 opt mc patch a.diff",
	"64 opt jm patch a.diff patch b.diff valgrind",
	"32 opt mc patch",
	"32 opt mc patch a patch b patch c",
	"32 opt mc valgrind patch a.diff",
	"16 opt mc",
	"32 release mc",
	"32 opt nope",
	"",
}

// settingsSeeds are settings file bodies.
var settingsSeeds = []string{
	"",
	"[paths]\nhome = \"~/work\"\ntrees = \"/srv/trees\"\n",
	"[jit]\nmethod = false\nmethod_all = false\ndebug = true\n",
	"[build]\nthreadsafe = true\njobs = 8\n",
	"[build]\njobs = -1\n",
	"[jit]\ntrace = true\n",
	"not toml at all",
}

func addArgSeeds(f *testing.F) {
	for _, s := range argSeeds {
		f.Add(s)
	}
}

func addSettingsSeeds(f *testing.F) {
	for _, s := range settingsSeeds {
		f.Add([]byte(s))
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func splitArgs(line string) []string {
	if len(line) > maxSeedBytes {
		line = line[:maxSeedBytes]
	}
	return strings.Fields(line)
}
