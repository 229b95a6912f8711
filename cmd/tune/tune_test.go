package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/telemetry"
)

func TestParamVectorNormalizeRoundTrip(t *testing.T) {
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	pv := NewParamVector(cfg)

	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestParamVectorApplyClamps(t *testing.T) {
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	pv := NewParamVector(cfg)

	pv.ApplyToConfig(cfg, []float64{-5, 25, 1000})
	got := pv.ExtractFromConfig(cfg)
	want := []float64{1, 25, 60}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s = %v, want %v", pv.Specs[i].Name, got[i], want[i])
		}
	}
}

func TestSettledPolarization(t *testing.T) {
	windows := []telemetry.WindowStats{
		{Polarization: 0.1},
		{Polarization: 0.2},
		{Polarization: 0.6},
		{Polarization: 0.8},
	}
	if got := settledPolarization(windows); math.Abs(got-0.7) > 1e-9 {
		t.Errorf("settledPolarization = %v, want 0.7", got)
	}
	if got := settledPolarization(nil); got != 0 {
		t.Errorf("settledPolarization(nil) = %v, want 0", got)
	}
}

func TestEvaluateSmallFlock(t *testing.T) {
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	cfg.World = config.WorldConfig{Width: 200, Height: 200, CellSize: 20}
	cfg.Flock.Count = 60
	cfg.Spawn.Velocity = "random"
	if err := cfg.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	pv := NewParamVector(cfg)
	fe := NewFitnessEvaluator(pv, 40, []int64{1, 2}, cfg)

	fitness := fe.Evaluate(pv.DefaultVector())
	if err := fe.LastErr(); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if fitness > 0 || fitness < -1 {
		t.Errorf("fitness = %v, want within [-1, 0]", fitness)
	}
	if q := fe.LastQuality(); math.Abs(q+fitness) > 1e-12 {
		t.Errorf("LastQuality = %v, want %v", q, -fitness)
	}
}
