package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// NotConfigured is the sentinel returned when an endpoint cannot be
// resolved. All dispatch logic treats it as "configuration not ready".
const NotConfigured = "#"

// Endpoints is the deployment document mapping logical endpoint keys to URL
// paths under a shared API base. It mirrors the config.json the dashboard
// frontend consumes.
type Endpoints struct {
	APIBase   string            `json:"apiBase"`
	Endpoints map[string]string `json:"endpoints"`
}

// LoadEndpoints reads and parses the endpoints document. Callers are
// expected to fail soft: a nil document resolves every key to NotConfigured.
func LoadEndpoints(path string) (*Endpoints, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read endpoints config: %w", err)
	}
	var doc Endpoints
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse endpoints config %s: %w", path, err)
	}
	return &doc, nil
}

// Base returns the API base with any trailing slash stripped.
func (e *Endpoints) Base() string {
	if e == nil {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(e.APIBase), "/")
}

// Resolve returns the concrete request URL for a logical endpoint key, or
// NotConfigured when the document or the key is missing.
func (e *Endpoints) Resolve(key string) string {
	if e == nil {
		return NotConfigured
	}
	path, ok := e.Endpoints[key]
	if !ok || strings.TrimSpace(path) == "" {
		return NotConfigured
	}
	return e.Base() + path
}

// Keys returns the configured logical endpoint keys.
func (e *Endpoints) Keys() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.Endpoints))
	for k := range e.Endpoints {
		out = append(out, k)
	}
	return out
}
