package launch

import (
	"funstart/internal/binfo"
	"funstart/internal/config"
	"funstart/internal/fault"
)

// Verify checks that the built binary matches the requested architecture and
// profile.
func Verify(info binfo.Info, cfg config.RunConfig) error {
	if info.Arch != int(cfg.Arch) {
		return fault.New(fault.Verification, "verify", "binary is %d-bit, requested %s-bit", info.Arch, cfg.Arch)
	}
	if info.Debug != cfg.Profile.IsDebug() {
		got := config.Optimized
		if info.Debug {
			got = config.Debug
		}
		return fault.New(fault.Verification, "verify", "binary looks like a %s build, requested %s", got, cfg.Profile)
	}
	return nil
}
