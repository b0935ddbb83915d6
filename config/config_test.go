package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yo2158/break/model"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "127.0.0.1:8173", cfg.Server.Addr())
	assert.True(t, cfg.NATS.Embedded)
	assert.Equal(t, 44*time.Second, cfg.Debate.Round1Dwell)
	assert.Equal(t, 45*time.Second, cfg.Debate.Round2Dwell)
	assert.Equal(t, 120*time.Second, cfg.Debate.AdvanceWait)
	assert.Equal(t, "gemini", cfg.Roles.Judge.Primary.Provider)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port overflow", func(c *Config) { c.Server.Port = 70000 }},
		{"negative dwell", func(c *Config) { c.Debate.Round1Dwell = -time.Second }},
		{"zero advance wait", func(c *Config) { c.Debate.AdvanceWait = 0 }},
		{"missing provider", func(c *Config) { c.Roles.DebaterA.Primary.Provider = "" }},
		{"missing model", func(c *Config) { c.Roles.Judge.Primary.Model = "" }},
		{"bad fallback", func(c *Config) {
			c.Roles.DebaterB.Fallbacks = []Endpoint{{Provider: "ollama"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "break.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
nats:
  url: nats://localhost:4222
roles:
  ai_a:
    primary:
      provider: ollama
      model: qwen3:8b
      url: http://localhost:11434/v1
debate:
  round1_dwell: 10s
`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	// explicit values applied, defaults retained elsewhere
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "ollama", cfg.Roles.DebaterA.Primary.Provider)
	assert.Equal(t, "gemini", cfg.Roles.Judge.Primary.Provider)
	assert.Equal(t, 10*time.Second, cfg.Debate.Round1Dwell)
	assert.Equal(t, 45*time.Second, cfg.Debate.Round2Dwell)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Port = 9999
	cfg.Roles.Judge.Primary.Model = "gemini-2.5-pro"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, loaded.Server.Port)
	assert.Equal(t, "gemini-2.5-pro", loaded.Roles.Judge.Primary.Model)
}

func TestMergePrecedence(t *testing.T) {
	base := DefaultConfig()
	base.Merge(&Config{
		Server: ServerConfig{Port: 9000},
		NATS:   NATSConfig{URL: "nats://remote:4222"},
		Roles: RolesConfig{
			Judge: RoleEndpoints{Primary: Endpoint{Provider: "openai", Model: "gpt-4o"}},
		},
		Debate: DebateConfig{AdvanceWait: time.Minute},
	})

	assert.Equal(t, 9000, base.Server.Port)
	assert.Equal(t, "127.0.0.1", base.Server.Host)
	// external NATS URL disables the embedded server
	assert.False(t, base.NATS.Embedded)
	assert.Equal(t, "openai", base.Roles.Judge.Primary.Provider)
	assert.Equal(t, "gemini", base.Roles.DebaterA.Primary.Provider)
	assert.Equal(t, time.Minute, base.Debate.AdvanceWait)
	assert.Equal(t, 44*time.Second, base.Debate.Round1Dwell)
}

func TestMergeNil(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(nil)
	assert.NoError(t, cfg.Validate())
}

func TestModelRoles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Roles.DebaterB.Fallbacks = []Endpoint{
		{Provider: "ollama", Model: "qwen3:8b"},
	}

	roles := cfg.ModelRoles()
	require.Len(t, roles, 3)

	b := roles[model.RoleDebaterB]
	assert.Equal(t, "gemini", b.Primary.Provider)
	require.Len(t, b.Fallbacks, 1)
	assert.Equal(t, "ollama", b.Fallbacks[0].Provider)
	assert.Equal(t, "qwen3:8b", b.Fallbacks[0].Model)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "break.yaml")
	require.NoError(t, DefaultConfig().SaveToFile(path))

	changed := make(chan *Config, 1)
	w, err := NewWatcher(path, func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	cfg := DefaultConfig()
	cfg.Server.Port = 9001
	require.NoError(t, cfg.SaveToFile(path))

	select {
	case got := <-changed:
		assert.Equal(t, 9001, got.Server.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
}

func TestWatcherIgnoresInvalidUpdate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "break.yaml")
	require.NoError(t, DefaultConfig().SaveToFile(path))

	changed := make(chan *Config, 1)
	w, err := NewWatcher(path, func(c *Config) { changed <- c }, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: -5\n"), 0644))

	select {
	case <-changed:
		t.Fatal("invalid config should not be applied")
	case <-time.After(1500 * time.Millisecond):
	}
}
