// Package config loads wifitify's TOML configuration file and parses its
// CLI flags (§6). The config file carries collector/database tuning; the
// CLI carries the device to capture on and the verbosity level.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// CollectorConfig holds the scheduler's timing knobs, serialized in
// milliseconds/seconds on disk and converted to time.Duration on load.
type CollectorConfig struct {
	SweepOnStartup            bool `toml:"sweep_on_startup"`
	AlwaysSweep               bool `toml:"always_sweep"`
	FixedChannel              *int `toml:"fixed_channel"`
	TimeBetweenSweeps         int  `toml:"time_between_sweeps"`
	SweepChannelSwitchTimeout int  `toml:"sweep_channel_switch_timeout"`
	ChannelSwitchTimeout      int  `toml:"channel_switch_timeout"`
}

// FileConfig is the on-disk TOML shape (§6).
type FileConfig struct {
	DatabaseURL string          `toml:"database_url"`
	Collector   CollectorConfig `toml:"collector"`
	AdminAddr   string          `toml:"admin_addr"`
}

// defaultFileConfig matches §6's documented defaults exactly.
func defaultFileConfig() FileConfig {
	return FileConfig{
		DatabaseURL: "postgres://localhost/wifitify",
		Collector: CollectorConfig{
			SweepOnStartup:            true,
			AlwaysSweep:               false,
			FixedChannel:              nil,
			TimeBetweenSweeps:         7200,
			SweepChannelSwitchTimeout: 5000,
			ChannelSwitchTimeout:      250,
		},
		AdminAddr: "127.0.0.1:7700",
	}
}

// Config is the fully-resolved configuration: the parsed file plus the
// CLI-supplied device and verbosity.
type Config struct {
	File     FileConfig
	Device   string
	LogLevel slog.Level

	TimeBetweenSweeps         time.Duration
	SweepChannelSwitchTimeout time.Duration
	ChannelSwitchTimeout      time.Duration
}

// Load parses the process's CLI flags/positional args, then reads (or
// creates) the TOML config file at os.UserConfigDir()/wifitify/wifitify.toml.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("wifitify", flag.ExitOnError)
	var verbosity verboseCount
	fs.Var(&verbosity, "v", "increase log verbosity (repeatable)")
	fs.Var(&verbosity, "verbose", "increase log verbosity (repeatable)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	positional := fs.Args()
	if len(positional) < 1 {
		return nil, fmt.Errorf("config: usage: wifitify [-v...] <device>")
	}
	device := positional[0]

	file, err := loadOrInitFile()
	if err != nil {
		return nil, err
	}

	return &Config{
		File:                      file,
		Device:                    device,
		LogLevel:                  verbosity.level(),
		TimeBetweenSweeps:         time.Duration(file.Collector.TimeBetweenSweeps) * time.Second,
		SweepChannelSwitchTimeout: time.Duration(file.Collector.SweepChannelSwitchTimeout) * time.Millisecond,
		ChannelSwitchTimeout:      time.Duration(file.Collector.ChannelSwitchTimeout) * time.Millisecond,
	}, nil
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "wifitify", "wifitify.toml"), nil
}

// loadOrInitFile reads the TOML config file, writing out the documented
// defaults on first run (§6).
func loadOrInitFile() (FileConfig, error) {
	path, err := configPath()
	if err != nil {
		return FileConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := defaultFileConfig()
		if writeErr := writeFile(path, cfg); writeErr != nil {
			return FileConfig{}, writeErr
		}
		return cfg, nil
	}
	if err != nil {
		return FileConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := defaultFileConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func writeFile(path string, cfg FileConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create config dir: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal defaults: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// verboseCount implements flag.Value so -v can be repeated (§6: each
// occurrence raises verbosity by one step: Error -> Warn -> Info -> Debug).
type verboseCount int

func (v *verboseCount) String() string {
	if v == nil {
		return "0"
	}
	return fmt.Sprintf("%d", int(*v))
}

func (v *verboseCount) Set(string) error {
	*v++
	return nil
}

func (v *verboseCount) IsBoolFlag() bool { return true }

func (v verboseCount) level() slog.Level {
	switch {
	case v <= 0:
		return slog.LevelError
	case v == 1:
		return slog.LevelWarn
	case v == 2:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
