package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stateChange struct {
	from, to CircuitBreakerState
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	var changes []stateChange
	cb := NewCircuitBreaker("plaid", CircuitBreakerConfig{
		MaxFailures:     3,
		ResetTimeout:    time.Hour,
		HalfOpenMaxSucc: 1,
	}, func(name string, from, to CircuitBreakerState) {
		assert.Equal(t, "plaid", name)
		changes = append(changes, stateChange{from, to})
	})

	cb.RecordFailure()
	cb.RecordFailure()
	assert.False(t, cb.IsOpen())
	assert.Equal(t, 2, cb.GetFailureCount())

	cb.RecordFailure()
	assert.True(t, cb.IsOpen())
	assert.Equal(t, StateOpen, cb.GetState())
	assert.Equal(t, []stateChange{{StateClosed, StateOpen}}, changes)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("plaid", DefaultCircuitBreakerConfig(), nil)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()

	assert.Equal(t, 0, cb.GetFailureCount())
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	var changes []stateChange
	cb := NewCircuitBreaker("plaid", CircuitBreakerConfig{
		MaxFailures:     1,
		ResetTimeout:    time.Millisecond,
		HalfOpenMaxSucc: 2,
	}, func(_ string, from, to CircuitBreakerState) {
		changes = append(changes, stateChange{from, to})
	})

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.GetState())

	time.Sleep(5 * time.Millisecond)
	assert.False(t, cb.IsOpen())
	assert.Equal(t, StateHalfOpen, cb.GetState())

	cb.RecordSuccess()
	assert.Equal(t, StateHalfOpen, cb.GetState())
	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.GetState())

	assert.Equal(t, []stateChange{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}, changes)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("plaid", CircuitBreakerConfig{
		MaxFailures:     1,
		ResetTimeout:    time.Millisecond,
		HalfOpenMaxSucc: 1,
	}, nil)

	cb.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	assert.False(t, cb.IsOpen())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker("plaid", CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour}, nil)

	cb.RecordFailure()
	assert.True(t, cb.IsOpen())

	cb.Reset()
	assert.False(t, cb.IsOpen())
	assert.Equal(t, 0, cb.GetFailureCount())
}

func TestCircuitBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half_open", StateHalfOpen.String())
}
