package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadEndpoints_ResolvesAgainstBase(t *testing.T) {
	path := writeConfig(t, `{
		"apiBase": "http://10.0.0.5:8000/",
		"endpoints": {
			"border.droneDetection": "/detect/drone",
			"video.weaponDetection": "/detect/weapon"
		}
	}`)

	doc, err := LoadEndpoints(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Base() != "http://10.0.0.5:8000" {
		t.Fatalf("trailing slash should be stripped, got %q", doc.Base())
	}
	if got := doc.Resolve("border.droneDetection"); got != "http://10.0.0.5:8000/detect/drone" {
		t.Fatalf("unexpected resolution %q", got)
	}
}

func TestResolve_MissingOrEmptyKeyIsSentinel(t *testing.T) {
	path := writeConfig(t, `{
		"apiBase": "http://api",
		"endpoints": {"threat.emailProtection": "  "}
	}`)

	doc, err := LoadEndpoints(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := doc.Resolve("border.droneDetection"); got != NotConfigured {
		t.Fatalf("missing key should resolve to sentinel, got %q", got)
	}
	if got := doc.Resolve("threat.emailProtection"); got != NotConfigured {
		t.Fatalf("blank path should resolve to sentinel, got %q", got)
	}
}

func TestResolve_NilDocumentIsSentinel(t *testing.T) {
	var doc *Endpoints
	if got := doc.Resolve("anything"); got != NotConfigured {
		t.Fatalf("nil document should resolve to sentinel, got %q", got)
	}
	if doc.Base() != "" {
		t.Fatalf("nil document base should be empty, got %q", doc.Base())
	}
	if doc.Keys() != nil {
		t.Fatal("nil document should have no keys")
	}
}

func TestLoadEndpoints_Errors(t *testing.T) {
	if _, err := LoadEndpoints(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := writeConfig(t, `{not json`)
	if _, err := LoadEndpoints(path); err == nil {
		t.Fatal("expected error for malformed file")
	}
}
