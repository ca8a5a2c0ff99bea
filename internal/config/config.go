package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Physics    PhysicsConfig    `toml:"physics"`
	Content    ContentConfig    `toml:"content"`
	Logging    LoggingConfig    `toml:"logging"`
	Profiling  ProfilingConfig  `toml:"profiling"`
}

type SimulationConfig struct {
	TickRate time.Duration `toml:"tick_rate"`
	MaxTicks uint64        `toml:"max_ticks"` // 0 = run until interrupted
}

type PhysicsConfig struct {
	// Broad-phase scan stops once the next box starts further than both half
	// widths plus this margin to the right. Boxes wider than the margin can be
	// missed.
	BroadPhaseMargin float64 `toml:"broad_phase_margin"`
	SensorDistance   float64 `toml:"sensor_distance"` // half thickness of edge probes
}

type ContentConfig struct {
	Assets     string `toml:"assets"`
	Level      string `toml:"level"`
	ScriptsDir string `toml:"scripts_dir"`
	HotReload  bool   `toml:"hot_reload"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ProfilingConfig struct {
	Enabled bool   `toml:"enabled"`
	Mode    string `toml:"mode"` // cpu, mem, allocs, block, mutex, trace
	Path    string `toml:"path"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Simulation.TickRate <= 0 {
		errs = append(errs, errors.New("simulation.tick_rate must be positive"))
	}
	if c.Physics.BroadPhaseMargin < 0 {
		errs = append(errs, errors.New("physics.broad_phase_margin must not be negative"))
	}
	if c.Physics.SensorDistance <= 0 {
		errs = append(errs, errors.New("physics.sensor_distance must be positive"))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q: want json or console", c.Logging.Format))
	}
	if c.Profiling.Enabled {
		switch c.Profiling.Mode {
		case "cpu", "mem", "allocs", "block", "mutex", "trace":
		default:
			errs = append(errs, fmt.Errorf("profiling.mode %q is not supported", c.Profiling.Mode))
		}
	}
	return errors.Join(errs...)
}

// Defaults returns the configuration used for any key the file leaves out.
func Defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TickRate: 20 * time.Millisecond,
		},
		Physics: PhysicsConfig{
			BroadPhaseMargin: 16,
			SensorDistance:   1,
		},
		Content: ContentConfig{
			Assets:     "data/assets.yaml",
			Level:      "data/levels/1-1.yaml",
			ScriptsDir: "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Profiling: ProfilingConfig{
			Mode: "cpu",
			Path: ".",
		},
	}
}
