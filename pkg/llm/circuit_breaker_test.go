package llm

import (
	"strings"
	"testing"
	"time"
)

func TestCircuitBreaker_InitialState(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())

	if cb.State() != CircuitClosed {
		t.Errorf("expected initial state to be CircuitClosed, got %v", cb.State())
	}

	allowed, err := cb.Allow()
	if !allowed || err != nil {
		t.Errorf("expected Allow() = (true, nil) for closed circuit, got (%v, %v)", allowed, err)
	}
}

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 3, ResetAfter: 30 * time.Second})

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
	}
	if cb.State() != CircuitClosed {
		t.Errorf("expected circuit closed below threshold, got %v", cb.State())
	}

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Errorf("expected circuit open at threshold, got %v", cb.State())
	}

	allowed, err := cb.Allow()
	if allowed {
		t.Error("expected Allow() to block when open")
	}
	if err == nil || !strings.Contains(err.Error(), "circuit breaker open") {
		t.Errorf("expected open-circuit error, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResets(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, ResetAfter: 30 * time.Second})

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()

	if cb.State() != CircuitClosed {
		t.Errorf("expected closed circuit after success reset, got %v", cb.State())
	}
	if cb.ConsecutiveFailures() != 1 {
		t.Errorf("expected 1 consecutive failure, got %d", cb.ConsecutiveFailures())
	}
}

func TestCircuitBreaker_HalfOpenAfterReset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, ResetAfter: 10 * time.Millisecond})

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open circuit, got %v", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	// First request after the reset window probes the provider.
	allowed, err := cb.Allow()
	if !allowed || err != nil {
		t.Fatalf("expected probe request allowed, got (%v, %v)", allowed, err)
	}
	if cb.State() != CircuitHalfOpen {
		t.Errorf("expected half-open state, got %v", cb.State())
	}

	// A second request while probing is rejected.
	allowed, _ = cb.Allow()
	if allowed {
		t.Error("expected second request rejected while half-open")
	}

	// Probe failure reopens the circuit.
	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Errorf("expected reopened circuit after probe failure, got %v", cb.State())
	}
}
