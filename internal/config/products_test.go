package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProductType(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestLoadProductTypes(t *testing.T) {
	dir := t.TempDir()
	writeProductType(t, dir, "s1-grd.json", `{
		"id": "S1_SAR_GRD",
		"title": "Sentinel-1 GRD",
		"abstract": "Ground range detected SAR products",
		"license": "proprietary",
		"platform": "S1A",
		"constellation": "sentinel-1",
		"instruments": ["c-sar"],
		"processing_level": "L1",
		"mission_start_date": "2014-04-03T00:00:00Z",
		"federation_backends": ["provider-a", "provider-b"]
	}`)
	writeProductType(t, dir, "s2-l2a.json", `{
		"id": "S2_MSI_L2A",
		"title": "Sentinel-2 L2A",
		"abstract": "Surface reflectance products",
		"federation_backends": ["provider-b"],
		"bbox": [-180, -90, 180, 90]
	}`)
	writeProductType(t, dir, "notes.txt", "ignored")

	registry, err := LoadProductTypes(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if registry.Count() != 2 {
		t.Fatalf("count = %d, want 2", registry.Count())
	}

	grd := registry.Get("S1_SAR_GRD")
	if grd == nil {
		t.Fatal("S1_SAR_GRD not loaded")
	}
	if !grd.ServedBy("provider-a") || !grd.ServedBy("provider-b") {
		t.Errorf("backends = %v", grd.Backends)
	}
	if grd.ServedBy("provider-c") {
		t.Error("unexpected backend match")
	}

	if matches := registry.FindByBackend("provider-b"); len(matches) != 2 {
		t.Errorf("FindByBackend(provider-b) = %d matches, want 2", len(matches))
	}
	if matches := registry.FindByBackend("provider-a"); len(matches) != 1 {
		t.Errorf("FindByBackend(provider-a) = %d matches, want 1", len(matches))
	}
}

func TestLoadProductTypesInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing id", `{"title": "t", "abstract": "a", "federation_backends": ["p"]}`},
		{"missing title", `{"id": "X", "abstract": "a", "federation_backends": ["p"]}`},
		{"no backends", `{"id": "X", "title": "t", "abstract": "a", "federation_backends": []}`},
		{"bad bbox", `{"id": "X", "title": "t", "abstract": "a", "federation_backends": ["p"], "bbox": [1, 2]}`},
		{"bad json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeProductType(t, dir, "bad.json", tt.content)
			if _, err := LoadProductTypes(dir); err == nil {
				t.Fatal("expected error, got none")
			}
		})
	}
}

func TestLoadProductTypesEmptyDir(t *testing.T) {
	if _, err := LoadProductTypes(t.TempDir()); err == nil {
		t.Fatal("expected error for directory with no definitions")
	}
}

func TestRegistryAddDuplicate(t *testing.T) {
	registry := NewProductTypeRegistry()
	p := &ProductType{ID: "X", Title: "t", Backends: []string{"p"}}
	if err := registry.Add(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := registry.Add(p); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := registry.Add(nil); err == nil {
		t.Fatal("expected nil error")
	}
}
