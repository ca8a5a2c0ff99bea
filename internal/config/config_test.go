package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boxsim.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[simulation]
tick_rate = "10ms"
max_ticks = 300

[physics]
broad_phase_margin = 32

[logging]
format = "json"
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Simulation.TickRate != 10*time.Millisecond || cfg.Simulation.MaxTicks != 300 {
		t.Fatalf("simulation not read: %+v", cfg.Simulation)
	}
	if cfg.Physics.BroadPhaseMargin != 32 {
		t.Fatalf("expected margin 32, got %v", cfg.Physics.BroadPhaseMargin)
	}
	if cfg.Physics.SensorDistance != 1 {
		t.Fatalf("sensor distance should keep its default, got %v", cfg.Physics.SensorDistance)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging %+v", cfg.Logging)
	}
	if cfg.Content.ScriptsDir != "scripts" {
		t.Fatalf("content defaults lost: %+v", cfg.Content)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		expect string
	}{
		{"zero_tick", "[simulation]\ntick_rate = \"0s\"\n", "tick_rate"},
		{"negative_margin", "[physics]\nbroad_phase_margin = -1\n", "broad_phase_margin"},
		{"bad_format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"bad_profile", "[profiling]\nenabled = true\nmode = \"gpu\"\n", "profiling.mode"},
		{"bad_toml", "[simulation\n", "parse config"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, c.body))
			if err == nil || !strings.Contains(err.Error(), c.expect) {
				t.Fatalf("expected error containing %q, got %v", c.expect, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
