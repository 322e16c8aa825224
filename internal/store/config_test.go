package store

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.DataSource != "LIVE" {
		t.Errorf("DataSource = %q, want LIVE", cfg.DataSource)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.Dividends.Window != 12 {
		t.Errorf("Dividends.Window = %d, want 12", cfg.Dividends.Window)
	}
	if cfg.Dividends.RequireFull {
		t.Errorf("RequireFull should default to accept-partial")
	}
	if cfg.Valuation.BazinTargetYield != 6.0 {
		t.Errorf("BazinTargetYield = %v, want 6.0", cfg.Valuation.BazinTargetYield)
	}
	if cfg.Valuation.GrahamPE*cfg.Valuation.GrahamPB != 22.5 {
		t.Errorf("Graham product = %v, want 22.5", cfg.Valuation.GrahamPE*cfg.Valuation.GrahamPB)
	}
	if len(cfg.Output.SafetyMargins) == 0 {
		t.Errorf("expected default safety margin thresholds")
	}
	if len(cfg.Normalize.CurrencyPrefixes) == 0 || cfg.Normalize.CurrencyPrefixes[0] != "R$" {
		t.Errorf("expected R$ currency prefix default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
data_source: MOCK
workers: 2
dividends:
  window: 6
  require_full: true
valuation:
  bazin_target_yield_pct: 5.0
output:
  dir: out
  safety_margins: [10, 30]
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DataSource != "MOCK" {
		t.Errorf("DataSource = %q", cfg.DataSource)
	}
	if cfg.Dividends.Window != 6 || !cfg.Dividends.RequireFull {
		t.Errorf("dividends = %+v", cfg.Dividends)
	}
	if cfg.Valuation.BazinTargetYield != 5.0 {
		t.Errorf("BazinTargetYield = %v", cfg.Valuation.BazinTargetYield)
	}
	if cfg.Output.Dir != "out" || len(cfg.Output.SafetyMargins) != 2 {
		t.Errorf("output = %+v", cfg.Output)
	}
	// Untouched fields still get defaults.
	if cfg.Sources.FundamentusURL == "" {
		t.Errorf("expected fundamentus URL default")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*Config)
	}{
		{"bad data source", func(c *Config) { c.DataSource = "REPLAY" }},
		{"bad universe mode", func(c *Config) { c.Universe.Mode = "DYNAMIC" }},
		{"static without symbols", func(c *Config) { c.Universe.Mode = "STATIC"; c.Universe.Static = nil }},
		{"zero bazin target", func(c *Config) { c.Valuation.BazinTargetYield = -1 }},
		{"negative window", func(c *Config) { c.Dividends.Window = -3 }},
		{"zero workers", func(c *Config) { c.Workers = -1 }},
	}

	for _, tc := range cases {
		cfg := Default()
		tc.mod(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadConfigValidationFailure(t *testing.T) {
	path := writeConfig(t, "data_source: NOPE\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation failure")
	}
}
