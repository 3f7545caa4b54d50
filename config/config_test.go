package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "inventory:\n  api_url: http://inv.local\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Log.Level)
	}
	if cfg.Store.Path != "activity.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
	if !cfg.Recon.PercentThresholdDec().Equal(decimal.NewFromInt(3)) {
		t.Errorf("percent threshold = %s, want 3", cfg.Recon.PercentThresholdDec())
	}
	if !cfg.Recon.ImpactCapDec().Equal(decimal.NewFromInt(500)) {
		t.Errorf("impact cap = %s, want 500", cfg.Recon.ImpactCapDec())
	}
	if cfg.Recon.ApprovalTTL() != 24*time.Hour {
		t.Errorf("approval ttl = %s, want 24h", cfg.Recon.ApprovalTTL())
	}
	if cfg.Recon.SweepInterval() != 10*time.Minute {
		t.Errorf("sweep interval = %s, want 10m", cfg.Recon.SweepInterval())
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 9090
recon:
  percent_threshold: "2.5"
  fee_delta_cap: "100"
  approval_ttl_hours: 48
users:
  - username: alice
    password: secret
    tenant: acme
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if !cfg.Recon.PercentThresholdDec().Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("percent threshold = %s, want 2.5", cfg.Recon.PercentThresholdDec())
	}
	if !cfg.Recon.FeeDeltaCapDec().Equal(decimal.NewFromInt(100)) {
		t.Errorf("fee delta cap = %s, want 100", cfg.Recon.FeeDeltaCapDec())
	}
	if cfg.Recon.ApprovalTTL() != 48*time.Hour {
		t.Errorf("approval ttl = %s, want 48h", cfg.Recon.ApprovalTTL())
	}

	user := cfg.FindUser("alice")
	if user == nil || user.Tenant != "acme" {
		t.Errorf("FindUser(alice) = %+v", user)
	}
	if cfg.FindUser("nobody") != nil {
		t.Error("FindUser(nobody) should be nil")
	}
}

func TestLoadBadThresholdFallsBack(t *testing.T) {
	cfg, err := Load(writeConfig(t, "recon:\n  percent_threshold: \"not-a-number\"\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Recon.PercentThresholdDec().Equal(decimal.NewFromInt(3)) {
		t.Errorf("bad threshold should fall back to 3, got %s", cfg.Recon.PercentThresholdDec())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
