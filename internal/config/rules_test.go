package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRules_seedsDefaultsOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	r, err := LoadRules(dir)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if r.Categories.Len() == 0 {
		t.Error("default categories empty")
	}
	if len(r.Include) == 0 || len(r.Remove) == 0 {
		t.Errorf("default keyword lists empty: %d include, %d remove", len(r.Include), len(r.Remove))
	}
	// All four files now exist on disk for hand editing.
	for _, name := range []string{CategoriesFile, FiltersFile, RemoveFile, LogosFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not seeded: %v", name, err)
		}
	}
	// Category order from the seeded file must match the built-in order.
	names := r.Categories.Names()
	if names[0] != "SKY" || names[1] != "RAI" {
		t.Errorf("category order = %v", names)
	}
}

func TestLoadRules_readsEditedFiles(t *testing.T) {
	dir := t.TempDir()
	writeJSON := func(name string, v any) {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), b, 0644); err != nil {
			t.Fatal(err)
		}
	}
	writeJSON(FiltersFile, []string{"rai"})
	writeJSON(RemoveFile, []string{"shop"})
	writeJSON(LogosFile, map[string]string{"Rai 1": "https://logos.example/rai1.png"})
	if err := os.WriteFile(filepath.Join(dir, CategoriesFile), []byte(`{"RAI":["rai"]}`), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadRules(dir)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(r.Include) != 1 || r.Include[0] != "rai" {
		t.Errorf("Include = %v", r.Include)
	}
	if got := r.Categories.Match("Rai 1"); got != "RAI" {
		t.Errorf("Match(Rai 1) = %q", got)
	}
	// Logo keys are normalized to lowercase on load.
	if got := r.Logos["rai 1"]; got != "https://logos.example/rai1.png" {
		t.Errorf("Logos[rai 1] = %q", got)
	}
}

func TestLoadRules_invalidFileIsError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FiltersFile), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(dir); err == nil {
		t.Error("expected error for invalid JSON, got nil")
	}
}

func TestLoadRules_secondRunKeepsSeededFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadRules(dir); err != nil {
		t.Fatalf("first LoadRules: %v", err)
	}
	// Edit one seeded file, reload, edit must stick.
	if err := os.WriteFile(filepath.Join(dir, RemoveFile), []byte(`["qvc"]`), 0644); err != nil {
		t.Fatal(err)
	}
	r, err := LoadRules(dir)
	if err != nil {
		t.Fatalf("second LoadRules: %v", err)
	}
	if len(r.Remove) != 1 || r.Remove[0] != "qvc" {
		t.Errorf("Remove = %v, want the edited list", r.Remove)
	}
}
