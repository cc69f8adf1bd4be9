package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"funstart/internal/flags"
)

// SettingsFileName is looked up in the home directory when --config is not given.
const SettingsFileName = ".funstart.toml"

// Settings is the optional TOML settings file.
type Settings struct {
	Paths PathSettings  `toml:"paths"`
	JIT   JITSettings   `toml:"jit"`
	Build BuildSettings `toml:"build"`
}

// PathSettings overrides filesystem roots. Empty values keep the defaults
// derived from Home.
type PathSettings struct {
	Home    string `toml:"home"`
	Fuzzing string `toml:"fuzzing"`
	Trees   string `toml:"trees"`
	Desktop string `toml:"desktop"`
}

// JITSettings are the static JIT switches.
type JITSettings struct {
	Method    bool `toml:"method"`
	MethodAll bool `toml:"method_all"`
	Debug     bool `toml:"debug"`
}

// BuildSettings tune the native build.
type BuildSettings struct {
	ThreadSafe bool `toml:"threadsafe"`
	Jobs       int  `toml:"jobs"`
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() Settings {
	t := flags.DefaultToggles()
	return Settings{
		JIT: JITSettings{Method: t.MethodJIT, MethodAll: t.MethodJITAll, Debug: t.DebugJIT},
	}
}

// Toggles converts the JIT section into the immutable toggle set.
func (s Settings) Toggles() flags.Toggles {
	return flags.Toggles{
		MethodJIT:    s.JIT.Method,
		MethodJITAll: s.JIT.MethodAll,
		DebugJIT:     s.JIT.Debug,
	}
}

// LoadSettings decodes path on top of the defaults. Keys missing from the
// file keep their default value; unknown keys are an error.
func LoadSettings(path string) (Settings, error) {
	cfg := DefaultSettings()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Settings{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Build.Jobs < 0 {
		return Settings{}, fmt.Errorf("%s: [build].jobs must not be negative", path)
	}
	return cfg, nil
}

// FindSettings resolves the settings file: explicit wins, otherwise
// ~/.funstart.toml when it exists. ok is false when no file applies.
func FindSettings(explicit, home string) (path string, ok bool, err error) {
	if explicit != "" {
		return explicit, true, nil
	}
	if home == "" {
		return "", false, nil
	}
	candidate := filepath.Join(home, SettingsFileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, true, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
	}
	return "", false, nil
}
