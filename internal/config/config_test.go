package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("DEFAULT_ALPHA", "")
	t.Setenv("DEFAULT_ADJUSTMENT", "")
	t.Setenv("DEFAULT_MISSING", "")
	t.Setenv("ANALYSIS_SEED", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("port: %s", cfg.Server.Port)
	}
	if cfg.Analysis.DefaultAlpha != 0.05 {
		t.Fatalf("alpha: %v", cfg.Analysis.DefaultAlpha)
	}
	if cfg.Analysis.DefaultAdjustment != "holm" {
		t.Fatalf("adjustment: %s", cfg.Analysis.DefaultAdjustment)
	}
	if cfg.Analysis.DefaultMissing != "drop" {
		t.Fatalf("missing policy: %s", cfg.Analysis.DefaultMissing)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DEFAULT_ALPHA", "0.01")
	t.Setenv("DEFAULT_ADJUSTMENT", "BH")
	t.Setenv("ANALYSIS_SEED", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Fatalf("port: %s", cfg.Server.Port)
	}
	if cfg.Analysis.DefaultAlpha != 0.01 {
		t.Fatalf("alpha: %v", cfg.Analysis.DefaultAlpha)
	}
	if cfg.Analysis.DefaultAdjustment != "BH" {
		t.Fatalf("adjustment: %s", cfg.Analysis.DefaultAdjustment)
	}
	if cfg.Analysis.Seed != 42 {
		t.Fatalf("seed: %d", cfg.Analysis.Seed)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("DEFAULT_ALPHA", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable alpha")
	}

	t.Setenv("DEFAULT_ALPHA", "1.5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for alpha outside (0,1)")
	}

	t.Setenv("DEFAULT_ALPHA", "0.05")
	t.Setenv("ANALYSIS_SEED", "abc")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable seed")
	}
}
