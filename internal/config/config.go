package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/adapter"
)

// Backend describes one upstream chat-completion endpoint and the
// model-level defaults injected into every request routed to it.
type Backend struct {
	Name    string      `json:"name"`
	Dialect string      `json:"dialect"`
	BaseURL string      `json:"base_url"`
	Model   string      `json:"model,omitempty"`
	Params  ModelParams `json:"params,omitempty"`
}

// ModelParams is the per-backend prompt and sampling configuration.
type ModelParams struct {
	System      string               `json:"system,omitempty"`
	CustomRoles []adapter.CustomRole `json:"custom_roles,omitempty"`
	Options     map[string]any       `json:"options,omitempty"`
}

// TargetDialect returns the backend's dialect as a typed value.
func (b Backend) TargetDialect() adapter.Dialect {
	return adapter.Dialect(b.Dialect)
}

// PromptConfig returns the backend's system prompt material in the shape
// the composer consumes.
func (b Backend) PromptConfig() adapter.SystemPromptConfig {
	return adapter.SystemPromptConfig{
		System:      b.Params.System,
		CustomRoles: b.Params.CustomRoles,
	}
}

// Registry holds the configured backends, indexed by name.
type Registry struct {
	backends []Backend
	byName   map[string]Backend
}

// LoadBackends reads the backend registry from a JSON file.
func LoadBackends(filePath string) (*Registry, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var backends []Backend
	if err := json.Unmarshal(data, &backends); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}

	return NewRegistry(backends)
}

// NewRegistry builds a registry from a backend list, validating it first.
func NewRegistry(backends []Backend) (*Registry, error) {
	if err := ValidateBackends(backends); err != nil {
		return nil, err
	}

	byName := make(map[string]Backend, len(backends))
	for _, backend := range backends {
		byName[backend.Name] = backend
	}
	return &Registry{backends: backends, byName: byName}, nil
}

// All returns every configured backend in declaration order.
func (r *Registry) All() []Backend {
	return r.backends
}

// Lookup returns the backend with the given name.
func (r *Registry) Lookup(name string) (Backend, bool) {
	backend, ok := r.byName[name]
	return backend, ok
}

// Default returns the first configured backend; declaration order is the
// operator's preference order.
func (r *Registry) Default() Backend {
	return r.backends[0]
}
