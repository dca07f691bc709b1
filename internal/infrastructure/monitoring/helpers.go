package monitoring

import "time"

// Lookup outcomes
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// Launch statuses
const (
	LaunchSuccess = "success"
	LaunchFailure = "failure"
)

// Timer measures one lookup from start to finish
type Timer struct {
	start   time.Time
	metrics *Metrics
	engine  string
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics, engine string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		engine:  engine,
	}
}

// Stop records the lookup outcome. A nil receiver or nil metrics is a no-op.
func (t *Timer) Stop(outcome string, frames int) time.Duration {
	if t == nil {
		return 0
	}
	elapsed := time.Since(t.start)
	if t.metrics != nil {
		t.metrics.RecordLookup(t.engine, outcome, elapsed, frames)
	}
	return elapsed
}
