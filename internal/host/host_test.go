package host

import "testing"

func TestHarnessTimeoutTiers(t *testing.T) {
	cases := []struct {
		name string
		info Info
		want int
	}{
		{"x86_64 linux", Info{OS: "linux", Machine: "x86_64", Node: "box"}, DefaultTimeout},
		{"tegra board", Info{OS: "linux", Machine: "armv7l", Node: "tegra-ubuntu"}, TegraTimeout},
		{"other arm board", Info{OS: "linux", Machine: "armv7l", Node: "panda"}, ARMTimeout},
		{"aarch64", Info{OS: "linux", Machine: "aarch64", Node: "pi"}, ARMTimeout},
		{"windows", Info{OS: "windows", Machine: "x86_64"}, DefaultTimeout},
	}
	for _, tc := range cases {
		if got := tc.info.HarnessTimeout(); got != tc.want {
			t.Fatalf("%s: HarnessTimeout() = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestMachinePredicates(t *testing.T) {
	if !(Info{Machine: "AMD64"}).IsX8664() {
		t.Fatalf("AMD64 should count as x86_64")
	}
	if (Info{Machine: "i686"}).IsX8664() {
		t.Fatalf("i686 is not x86_64")
	}
	if !(Info{OS: "darwin"}).SupportsValgrind() || (Info{OS: "windows"}).SupportsValgrind() {
		t.Fatalf("valgrind support must be limited to linux and darwin")
	}
	if got := machineFromGOARCH("arm64"); got != "aarch64" {
		t.Fatalf("machineFromGOARCH(arm64) = %q", got)
	}
}

func TestDetect(t *testing.T) {
	info, err := Detect()
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if info.OS == "" || info.Machine == "" {
		t.Fatalf("Detect returned incomplete info: %+v", info)
	}
}
