// Package config provides configuration loading and management for BREAK.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yo2158/break/model"
)

// Config represents the complete BREAK configuration.
type Config struct {
	Server ServerConfig `yaml:"server" json:"server"`
	NATS   NATSConfig   `yaml:"nats" json:"nats"`
	Roles  RolesConfig  `yaml:"roles" json:"roles"`
	Debate DebateConfig `yaml:"debate" json:"debate"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Host is the listen address (default: 127.0.0.1)
	Host string `yaml:"host" json:"host"`
	// Port is the listen port (default: 8173)
	Port int `yaml:"port" json:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// NATSConfig configures the NATS connection.
type NATSConfig struct {
	// URL is the NATS server URL (empty = use embedded server)
	URL string `yaml:"url" json:"url"`
	// Embedded indicates whether to run an embedded NATS server
	Embedded bool `yaml:"embedded" json:"embedded"`
	// StoreDir is the JetStream storage directory for the embedded server
	StoreDir string `yaml:"store_dir" json:"store_dir"`
}

// Endpoint configures one model endpoint for a role.
type Endpoint struct {
	// Provider is the API dialect ("gemini", "ollama", "openai")
	Provider string `yaml:"provider" json:"provider"`
	// URL overrides the provider's default base URL
	URL string `yaml:"url" json:"url,omitempty"`
	// Model is the model identifier (e.g., "gemini-2.5-flash")
	Model string `yaml:"model" json:"model"`
	// MaxTokens limits response length (0 = provider default)
	MaxTokens int `yaml:"max_tokens" json:"max_tokens,omitempty"`
}

// RoleEndpoints is one role's endpoint chain.
type RoleEndpoints struct {
	Primary   Endpoint   `yaml:"primary" json:"primary"`
	Fallbacks []Endpoint `yaml:"fallbacks" json:"fallbacks,omitempty"`
}

// RolesConfig maps the three generation roles to endpoint chains.
type RolesConfig struct {
	DebaterA RoleEndpoints `yaml:"ai_a" json:"ai_a"`
	DebaterB RoleEndpoints `yaml:"ai_b" json:"ai_b"`
	Judge    RoleEndpoints `yaml:"judge" json:"judge"`
}

// DebateConfig tunes debate pacing and generation bounds.
type DebateConfig struct {
	// Round1Dwell is how long the viewer dwells on round 1
	Round1Dwell time.Duration `yaml:"round1_dwell" json:"round1_dwell"`
	// Round2Dwell is how long the viewer dwells on round 2
	Round2Dwell time.Duration `yaml:"round2_dwell" json:"round2_dwell"`
	// AdvanceWait bounds how long a judgment is held for the advance signal
	AdvanceWait time.Duration `yaml:"advance_wait" json:"advance_wait"`
	// RequestTimeout is the per-call LLM timeout
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	gemini := func() RoleEndpoints {
		return RoleEndpoints{
			Primary: Endpoint{Provider: "gemini", Model: "gemini-2.5-flash"},
		}
	}
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8173,
		},
		NATS: NATSConfig{
			URL:      "",
			Embedded: true,
			StoreDir: "",
		},
		Roles: RolesConfig{
			DebaterA: gemini(),
			DebaterB: gemini(),
			Judge:    gemini(),
		},
		Debate: DebateConfig{
			Round1Dwell:    44 * time.Second,
			Round2Dwell:    45 * time.Second,
			AdvanceWait:    120 * time.Second,
			RequestTimeout: 3 * time.Minute,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Debate.Round1Dwell <= 0 || c.Debate.Round2Dwell <= 0 {
		return fmt.Errorf("debate dwell times must be positive")
	}
	if c.Debate.AdvanceWait <= 0 {
		return fmt.Errorf("debate.advance_wait must be positive")
	}
	for name, role := range map[string]RoleEndpoints{
		"ai_a":  c.Roles.DebaterA,
		"ai_b":  c.Roles.DebaterB,
		"judge": c.Roles.Judge,
	} {
		if err := role.Primary.validate(); err != nil {
			return fmt.Errorf("roles.%s.primary: %w", name, err)
		}
		for i, fb := range role.Fallbacks {
			if err := fb.validate(); err != nil {
				return fmt.Errorf("roles.%s.fallbacks[%d]: %w", name, i, err)
			}
		}
	}
	return nil
}

func (e Endpoint) validate() error {
	if e.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if e.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}

// ModelRoles converts the YAML role chains into registry role configs.
func (c *Config) ModelRoles() map[model.Role]model.RoleConfig {
	convert := func(re RoleEndpoints) model.RoleConfig {
		rc := model.RoleConfig{Primary: re.Primary.toModel()}
		for _, fb := range re.Fallbacks {
			rc.Fallbacks = append(rc.Fallbacks, fb.toModel())
		}
		return rc
	}
	return map[model.Role]model.RoleConfig{
		model.RoleDebaterA: convert(c.Roles.DebaterA),
		model.RoleDebaterB: convert(c.Roles.DebaterB),
		model.RoleJudge:    convert(c.Roles.Judge),
	}
}

func (e Endpoint) toModel() model.EndpointConfig {
	return model.EndpointConfig{
		Provider:  e.Provider,
		URL:       e.URL,
		Model:     e.Model,
		MaxTokens: e.MaxTokens,
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Server.Host != "" {
		c.Server.Host = other.Server.Host
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}

	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
		c.NATS.Embedded = false
	}
	if other.NATS.StoreDir != "" {
		c.NATS.StoreDir = other.NATS.StoreDir
	}

	c.Roles.DebaterA.merge(other.Roles.DebaterA)
	c.Roles.DebaterB.merge(other.Roles.DebaterB)
	c.Roles.Judge.merge(other.Roles.Judge)

	if other.Debate.Round1Dwell != 0 {
		c.Debate.Round1Dwell = other.Debate.Round1Dwell
	}
	if other.Debate.Round2Dwell != 0 {
		c.Debate.Round2Dwell = other.Debate.Round2Dwell
	}
	if other.Debate.AdvanceWait != 0 {
		c.Debate.AdvanceWait = other.Debate.AdvanceWait
	}
	if other.Debate.RequestTimeout != 0 {
		c.Debate.RequestTimeout = other.Debate.RequestTimeout
	}
}

func (re *RoleEndpoints) merge(other RoleEndpoints) {
	if other.Primary.Provider != "" {
		re.Primary = other.Primary
	}
	if len(other.Fallbacks) > 0 {
		re.Fallbacks = other.Fallbacks
	}
}
