package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	return NewRegistry(map[Role]RoleConfig{
		RoleJudge: {
			Primary:   EndpointConfig{Provider: "gemini", Model: "gemini-2.5-flash"},
			Fallbacks: []EndpointConfig{{Provider: "ollama", Model: "qwen3:14b"}},
		},
		RoleDebaterA: {
			Primary: EndpointConfig{Provider: "gemini", Model: "gemini-2.5-flash"},
		},
	})
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"ai_a", RoleDebaterA},
		{"ai_b", RoleDebaterB},
		{"judge", RoleJudge},
		{"referee", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseRole(tt.in), "input %q", tt.in)
	}
}

func TestAvailableChainOrder(t *testing.T) {
	r := testRegistry()

	chain := r.AvailableChain(RoleJudge)
	require.Len(t, chain, 2)
	assert.Equal(t, "gemini/gemini-2.5-flash", chain[0].Key())
	assert.Equal(t, "ollama/qwen3:14b", chain[1].Key())

	assert.Nil(t, r.AvailableChain(RoleDebaterB))
}

func TestCircuitBreakerFiltersEndpoint(t *testing.T) {
	r := testRegistry()
	key := "gemini/gemini-2.5-flash"

	// Below the threshold the endpoint stays in the chain.
	r.MarkEndpointFailure(key)
	r.MarkEndpointFailure(key)
	assert.Len(t, r.AvailableChain(RoleJudge), 2)

	// The third consecutive failure opens the circuit.
	r.MarkEndpointFailure(key)
	chain := r.AvailableChain(RoleJudge)
	require.Len(t, chain, 1)
	assert.Equal(t, "ollama/qwen3:14b", chain[0].Key())

	// Success closes it again.
	r.MarkEndpointSuccess(key)
	assert.Len(t, r.AvailableChain(RoleJudge), 2)
}

func TestCircuitBreakerFullChainFallback(t *testing.T) {
	r := NewRegistry(map[Role]RoleConfig{
		RoleDebaterA: {Primary: EndpointConfig{Provider: "gemini", Model: "m"}},
	})
	for i := 0; i < 3; i++ {
		r.MarkEndpointFailure("gemini/m")
	}

	// Every endpoint is circuit-open; the full chain is returned so the
	// role is not permanently unservable.
	assert.Len(t, r.AvailableChain(RoleDebaterA), 1)
}

func TestCircuitRecoveryTimeout(t *testing.T) {
	h := newHealthState(HealthConfig{FailureThreshold: 1, RecoveryTimeout: time.Millisecond})
	h.mu.Lock()
	status := h.getOrCreate("k")
	status.CircuitOpen = true
	status.CircuitOpenedAt = time.Now().Add(-time.Second)
	h.mu.Unlock()

	assert.True(t, h.isAvailable("k"), "circuit should half-open after recovery timeout")
}

func TestSetRoleReplacesChain(t *testing.T) {
	r := testRegistry()
	r.SetRole(RoleJudge, RoleConfig{Primary: EndpointConfig{Provider: "openai", Model: "gpt-4o-mini"}})

	cfg, err := r.GetRole(RoleJudge)
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.Primary.Key())
	assert.Empty(t, cfg.Fallbacks)
}
