package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != ":8420" {
		t.Errorf("Addr = %q, want :8420", cfg.Addr)
	}
	if cfg.HitRadius != 50 || cfg.TapMaxDurationMs != 350 {
		t.Errorf("judgment defaults wrong: radius=%v tap=%v", cfg.HitRadius, cfg.TapMaxDurationMs)
	}
	if cfg.MinConfidence != 0.7 {
		t.Errorf("MinConfidence = %v, want 0.7", cfg.MinConfidence)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TAALA_ADDR", ":9000")
	t.Setenv("TAALA_HIT_RADIUS", "75")
	t.Setenv("TAALA_CAMERA_ID", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != ":9000" {
		t.Errorf("Addr = %q, want :9000", cfg.Addr)
	}
	if cfg.HitRadius != 75 {
		t.Errorf("HitRadius = %v, want 75", cfg.HitRadius)
	}
	if cfg.CameraID != 2 {
		t.Errorf("CameraID = %d, want 2", cfg.CameraID)
	}
	// Untouched fields keep their defaults.
	if cfg.MotionThreshold != 1.0 {
		t.Errorf("MotionThreshold = %v, want 1.0", cfg.MotionThreshold)
	}
}

func TestLoad_FileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taala.yaml")
	yaml := "addr: \":7000\"\nmove_threshold: 45\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("TAALA_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != ":7000" {
		t.Errorf("Addr = %q, want :7000", cfg.Addr)
	}
	if cfg.MoveThreshold != 45 {
		t.Errorf("MoveThreshold = %v, want 45", cfg.MoveThreshold)
	}
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taala.yaml")
	if err := os.WriteFile(path, []byte("addr: \":7000\"\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("TAALA_CONFIG", path)
	t.Setenv("TAALA_ADDR", ":9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("Addr = %q, want env to win over file", cfg.Addr)
	}
}

func TestLoad_InvalidConfidence(t *testing.T) {
	t.Setenv("TAALA_MIN_CONFIDENCE", "1.5")

	if _, err := Load(); err == nil {
		t.Error("Load() accepted out-of-range min_confidence")
	}
}
