package model

import (
	"fmt"
	"sync"
)

// EndpointConfig defines one model endpoint a role can use.
type EndpointConfig struct {
	// Provider is the generation provider (gemini, openai, ollama).
	Provider string `json:"provider"`

	// URL is the API base URL (empty = provider default).
	URL string `json:"url,omitempty"`

	// Model is the model identifier sent to the provider.
	Model string `json:"model"`

	// MaxTokens limits response length. 0 uses the provider default.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// Key returns a stable identifier for health tracking.
func (e EndpointConfig) Key() string {
	return e.Provider + "/" + e.Model
}

// RoleConfig holds the endpoint chain for one role: the primary endpoint
// first, then fallbacks in order of preference.
type RoleConfig struct {
	Primary   EndpointConfig   `json:"primary"`
	Fallbacks []EndpointConfig `json:"fallbacks,omitempty"`
}

// Chain returns the full endpoint chain, primary first.
func (rc RoleConfig) Chain() []EndpointConfig {
	chain := make([]EndpointConfig, 0, 1+len(rc.Fallbacks))
	chain = append(chain, rc.Primary)
	chain = append(chain, rc.Fallbacks...)
	return chain
}

// Registry maps debate roles to endpoint chains and tracks endpoint health.
// It is safe for concurrent use; SetRole may be called while a session is
// running (config hot reload) and only affects subsequent lookups.
type Registry struct {
	mu     sync.RWMutex
	roles  map[Role]RoleConfig
	health *healthState
}

// NewRegistry creates a registry with the given role configurations.
func NewRegistry(roles map[Role]RoleConfig) *Registry {
	r := &Registry{
		roles:  make(map[Role]RoleConfig, len(roles)),
		health: newHealthState(DefaultHealthConfig()),
	}
	for role, cfg := range roles {
		r.roles[role] = cfg
	}
	return r
}

// SetRole replaces the endpoint chain for a role.
func (r *Registry) SetRole(role Role, cfg RoleConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[role] = cfg
}

// GetRole returns the configured chain for a role.
func (r *Registry) GetRole(role Role) (RoleConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.roles[role]
	if !ok {
		return RoleConfig{}, fmt.Errorf("no endpoints configured for role %s", role)
	}
	return cfg, nil
}

// AvailableChain returns the endpoint chain for a role with circuit-open
// endpoints filtered out. If every endpoint is filtered, the full chain is
// returned so a recovered endpoint still gets a chance.
func (r *Registry) AvailableChain(role Role) []EndpointConfig {
	r.mu.RLock()
	cfg, ok := r.roles[role]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	full := cfg.Chain()
	available := make([]EndpointConfig, 0, len(full))
	for _, ep := range full {
		if r.health.isAvailable(ep.Key()) {
			available = append(available, ep)
		}
	}
	if len(available) == 0 {
		return full
	}
	return available
}
