package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Runtime is the global runtime configuration, loaded from one TOML file.
type Runtime struct {
	DBPath           string  `toml:"db_path"`
	StationTomlsGlob string  `toml:"station_tomls_glob"`
	NoiseFile        string  `toml:"noise_file"`
	AudioDevice      string  `toml:"audio_device"`
	MasterVol        int     `toml:"master_vol"`
	FreqMin          float64 `toml:"freq_min"`
	FreqMax          float64 `toml:"freq_max"`
	Step             float64 `toml:"step"`
	LockWindow       float64 `toml:"lock_window"`
	FadeWindow       float64 `toml:"fade_window"`
	TickS            float64 `toml:"tick_s"`
	APIHost          string  `toml:"api_host"`
	APIPort          int     `toml:"api_port"`
}

// defaultRuntime returns the runtime config with every spec-mandated default
// applied, before the TOML file's values are layered on top.
func defaultRuntime() Runtime {
	return Runtime{
		DBPath:           "./radio.db",
		StationTomlsGlob: "./stations/*.toml",
		NoiseFile:        "./noise.wav",
		AudioDevice:      "default",
		MasterVol:        60,
		FreqMin:          88.0,
		FreqMax:          108.0,
		Step:             0.1,
		LockWindow:       0.2,
		FadeWindow:       0.5,
		TickS:            0.25,
		APIHost:          "127.0.0.1",
		APIPort:          8080,
	}
}

// LoadRuntime reads and parses the runtime TOML file at path, applying
// defaults for any field the file omits.
func LoadRuntime(path string) (*Runtime, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read runtime config %q: %w", path, err)
	}

	cfg := defaultRuntime()
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse runtime config %q: %w", path, err)
	}

	if cfg.FreqMin <= 0 || cfg.FreqMax <= cfg.FreqMin {
		return nil, fmt.Errorf("config: invalid freq_min/freq_max in %q", path)
	}

	return &cfg, nil
}
