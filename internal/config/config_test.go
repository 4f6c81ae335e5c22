package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_defaults(t *testing.T) {
	os.Clearenv()
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Addr != ":3000" {
		t.Errorf("Addr = %q", c.Addr)
	}
	if c.RefreshInterval != 20*time.Minute {
		t.Errorf("RefreshInterval = %v", c.RefreshInterval)
	}
	if c.SignatureTTL != 3*time.Hour {
		t.Errorf("SignatureTTL = %v", c.SignatureTTL)
	}
	if len(c.Groups) != 1 || c.Groups[0] != "Italy" {
		t.Errorf("Groups = %v", c.Groups)
	}
	if c.PlaylistPath != filepath.Join("./data", "channels.m3u8") {
		t.Errorf("PlaylistPath = %q", c.PlaylistPath)
	}
	if c.DeviceID == "" || len(c.DeviceID) != 16 {
		t.Errorf("DeviceID = %q, want generated 16 hex chars", c.DeviceID)
	}
}

func TestLoad_envOverrides(t *testing.T) {
	os.Clearenv()
	os.Setenv("FLUSSO_ADDR", ":8080")
	os.Setenv("FLUSSO_REFRESH", "5m")
	os.Setenv("FLUSSO_GROUPS", "Italy, Germany ,")
	os.Setenv("FLUSSO_PAGE_LIMIT", "7")
	os.Setenv("FLUSSO_DEVICE_ID", "d10e5d99ab665233")
	os.Setenv("FLUSSO_ADULT", "true")
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Addr != ":8080" {
		t.Errorf("Addr = %q", c.Addr)
	}
	if c.RefreshInterval != 5*time.Minute {
		t.Errorf("RefreshInterval = %v", c.RefreshInterval)
	}
	if len(c.Groups) != 2 || c.Groups[0] != "Italy" || c.Groups[1] != "Germany" {
		t.Errorf("Groups = %v", c.Groups)
	}
	if c.PageLimit != 7 {
		t.Errorf("PageLimit = %d", c.PageLimit)
	}
	if c.DeviceID != "d10e5d99ab665233" {
		t.Errorf("DeviceID = %q", c.DeviceID)
	}
	if !c.Adult {
		t.Error("Adult not set")
	}
}

func TestLoad_yamlFileThenEnvWins(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()
	path := filepath.Join(dir, "flusso.yaml")
	yml := "addr: \":9000\"\nmediaflow_url: mfp.example.org\nrefresh_interval: 10m\ngroups:\n  - Italy\n  - Austria\n"
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	os.Setenv("FLUSSO_CONFIG", path)
	os.Setenv("FLUSSO_ADDR", ":7777") // env beats file

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Addr != ":7777" {
		t.Errorf("Addr = %q, want env value", c.Addr)
	}
	if c.MediaFlowURL != "mfp.example.org" {
		t.Errorf("MediaFlowURL = %q", c.MediaFlowURL)
	}
	if c.RefreshInterval != 10*time.Minute {
		t.Errorf("RefreshInterval = %v", c.RefreshInterval)
	}
	if len(c.Groups) != 2 || c.Groups[1] != "Austria" {
		t.Errorf("Groups = %v", c.Groups)
	}
}

func TestLoad_badYAMLFails(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()
	path := filepath.Join(dir, "flusso.yaml")
	if err := os.WriteFile(path, []byte("addr: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	os.Setenv("FLUSSO_CONFIG", path)
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_badDurationInFileFails(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()
	path := filepath.Join(dir, "flusso.yaml")
	if err := os.WriteFile(path, []byte("refresh_interval: soon\n"), 0644); err != nil {
		t.Fatal(err)
	}
	os.Setenv("FLUSSO_CONFIG", path)
	if _, err := Load(); err == nil {
		t.Error("expected error for unparseable duration")
	}
}
