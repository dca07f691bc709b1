// Package stats counts source lookups for the public /stats endpoint.
package stats

import (
	"math"
	"sync"
	"time"
)

// Snapshot is the JSON shape served at /stats
type Snapshot struct {
	Total int64 `json:"total"`
	Today int64 `json:"today"`
	// SuccessRate is a whole percentage, 0 when nothing was recorded
	SuccessRate int `json:"successRate"`
}

// Manager is safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	total     int64
	today     int64
	successes int64
	day       time.Time
	now       func() time.Time
}

// NewManager creates a manager using the local clock
func NewManager() *Manager {
	return NewManagerWithClock(time.Now)
}

// NewManagerWithClock creates a manager with a custom clock
func NewManagerWithClock(now func() time.Time) *Manager {
	return &Manager{
		now: now,
		day: truncateDay(now()),
	}
}

// Record counts one finished lookup
func (m *Manager) Record(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rollover()
	m.total++
	m.today++
	if success {
		m.successes++
	}
}

// Snapshot returns current totals
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rollover()

	rate := 0
	if m.total > 0 {
		rate = int(math.Round(float64(m.successes) / float64(m.total) * 100))
	}

	return Snapshot{
		Total:       m.total,
		Today:       m.today,
		SuccessRate: rate,
	}
}

// rollover zeroes today's count once the calendar day changes.
func (m *Manager) rollover() {
	day := truncateDay(m.now())
	if !day.Equal(m.day) {
		m.today = 0
		m.day = day
	}
}

func truncateDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
