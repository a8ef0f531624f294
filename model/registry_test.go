package model

import (
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	r := NewDefaultRegistry()

	if got := r.Resolve(CapabilityDecision); got != "claude-haiku" {
		t.Errorf("Resolve(decision) = %s, want claude-haiku", got)
	}

	// Unknown capability falls back to the default model
	if got := r.Resolve(Capability("nonsense")); got != "claude-haiku" {
		t.Errorf("Resolve(unknown) = %s, want default claude-haiku", got)
	}
}

func TestGetFallbackChain(t *testing.T) {
	r := NewDefaultRegistry()

	chain := r.GetFallbackChain(CapabilityDecision)
	if len(chain) != 3 {
		t.Fatalf("expected 3 models in decision chain, got %d: %v", len(chain), chain)
	}
	if chain[0] != "claude-haiku" {
		t.Errorf("chain[0] = %s, want claude-haiku", chain[0])
	}
}

func TestParseCapability(t *testing.T) {
	tests := []struct {
		in   string
		want Capability
	}{
		{"decision", CapabilityDecision},
		{"fast", CapabilityFast},
		{"planning", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ParseCapability(tt.in); got != tt.want {
			t.Errorf("ParseCapability(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCircuitBreaker(t *testing.T) {
	r := NewDefaultRegistry()
	r.SetHealthConfig(HealthConfig{
		FailureThreshold: 2,
		RecoveryTimeout:  50 * time.Millisecond,
	})

	if !r.IsEndpointAvailable("claude-haiku") {
		t.Fatal("endpoint should start available")
	}

	r.MarkEndpointFailure("claude-haiku")
	if !r.IsEndpointAvailable("claude-haiku") {
		t.Fatal("one failure should not open the circuit")
	}

	r.MarkEndpointFailure("claude-haiku")
	if r.IsEndpointAvailable("claude-haiku") {
		t.Fatal("circuit should be open after threshold failures")
	}

	// Half-open after recovery timeout
	time.Sleep(60 * time.Millisecond)
	if !r.IsEndpointAvailable("claude-haiku") {
		t.Fatal("circuit should allow a test request after recovery timeout")
	}

	// Success closes the circuit
	r.MarkEndpointSuccess("claude-haiku")
	health := r.GetEndpointHealth("claude-haiku")
	if health == nil || health.CircuitOpen || health.FailureCount != 0 {
		t.Fatalf("success should reset health, got %+v", health)
	}
}

func TestGetAvailableFallbackChain_AllUnavailable(t *testing.T) {
	r := NewDefaultRegistry()
	r.SetHealthConfig(HealthConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Hour,
	})

	for _, name := range r.GetFallbackChain(CapabilityFast) {
		r.MarkEndpointFailure(name)
	}

	// When everything is down, the full chain is returned so the client
	// still tries something.
	chain := r.GetAvailableFallbackChain(CapabilityFast)
	if len(chain) != len(r.GetFallbackChain(CapabilityFast)) {
		t.Errorf("expected full chain when all endpoints are down, got %v", chain)
	}
}
