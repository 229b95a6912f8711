package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/pthm-cable/flock/systems"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}

	if cfg.Flock.Count != 3000 {
		t.Errorf("count = %d, want 3000", cfg.Flock.Count)
	}
	if cfg.Derived.Cols != 100 || cfg.Derived.Rows != 60 {
		t.Errorf("grid = %dx%d, want 100x60", cfg.Derived.Cols, cfg.Derived.Rows)
	}
	if cfg.Derived.Border != systems.BorderReflective {
		t.Errorf("border = %v, want reflective", cfg.Derived.Border)
	}
	if cfg.Render.GridColor != [4]uint8{30, 30, 30, 10} {
		t.Errorf("grid color = %v", cfg.Render.GridColor)
	}
	if cfg.Derived.Workers < 1 || cfg.Derived.Workers > runtime.NumCPU() {
		t.Errorf("workers = %d", cfg.Derived.Workers)
	}
}

func TestLoadOverlays(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "flock.yaml",
			content: `
flock:
  count: 42
  border: toroidal
world:
  cell_size: 30
`,
		},
		{
			name: "toml",
			file: "flock.toml",
			content: `
[flock]
count = 42
border = "toroidal"

[world]
cell_size = 30.0
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tc.file, tc.content))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Flock.Count != 42 {
				t.Errorf("count = %d, want 42", cfg.Flock.Count)
			}
			if cfg.Derived.Border != systems.BorderToroidal {
				t.Errorf("border = %v, want toroidal", cfg.Derived.Border)
			}
			if cfg.Derived.Cols != 50 || cfg.Derived.Rows != 30 {
				t.Errorf("grid = %dx%d, want 50x30", cfg.Derived.Cols, cfg.Derived.Rows)
			}
			// untouched keys keep their defaults
			if cfg.Flock.MaxSpeed != 10 {
				t.Errorf("max speed = %v, want default 10", cfg.Flock.MaxSpeed)
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero count", "flock:\n  count: 0\n"},
		{"negative cell size", "world:\n  cell_size: -1\n"},
		{"no grid columns", "world:\n  width: 10\n  cell_size: 20\n"},
		{"negative radius", "flock:\n  alignment_radius: -3\n"},
		{"zero max speed", "flock:\n  max_speed: 0\n"},
		{"zero dt", "physics:\n  dt: 0\n"},
		{"negative workers", "parallel:\n  workers: -2\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "bad.yaml", tc.content))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Load = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeFile(t, "broken.yaml", "flock: [")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestUnknownBorderFallsBackToReflective(t *testing.T) {
	cfg, err := Load(writeFile(t, "b.yaml", "flock:\n  border: spiral\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Derived.Border != systems.BorderReflective {
		t.Errorf("border = %v, want reflective", cfg.Derived.Border)
	}
}

func TestEffectiveWorkers(t *testing.T) {
	cpus := runtime.NumCPU()
	tests := []struct {
		requested int
		want      int
	}{
		{1, 1},
		{cpus, cpus},
		{cpus + 100, cpus},
		{0, min(runtime.GOMAXPROCS(0), cpus)},
	}

	for _, tc := range tests {
		if got := EffectiveWorkers(tc.requested); got != tc.want {
			t.Errorf("EffectiveWorkers(%d) = %d, want %d", tc.requested, got, tc.want)
		}
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	cfg.Flock.SeparationRadius = 7.5

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Flock.SeparationRadius != 7.5 {
		t.Errorf("separation radius = %v, want 7.5", loaded.Flock.SeparationRadius)
	}
}

func TestCfgBeforeInitPanics(t *testing.T) {
	saved := global
	global = nil
	defer func() {
		global = saved
		if recover() == nil {
			t.Error("Cfg did not panic before Init")
		}
	}()
	Cfg()
}
