package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func TestEmptySnapshot(t *testing.T) {
	snap := NewManager().Snapshot()
	assert.Equal(t, Snapshot{}, snap)
}

func TestSuccessRate(t *testing.T) {
	tests := []struct {
		name      string
		successes int
		failures  int
		want      int
	}{
		{name: "all success", successes: 4, want: 100},
		{name: "all failure", failures: 3, want: 0},
		{name: "two thirds rounds up", successes: 2, failures: 1, want: 67},
		{name: "one third rounds down", successes: 1, failures: 2, want: 33},
		{name: "half", successes: 1, failures: 1, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			for i := 0; i < tt.successes; i++ {
				m.Record(true)
			}
			for i := 0; i < tt.failures; i++ {
				m.Record(false)
			}

			snap := m.Snapshot()
			assert.Equal(t, tt.want, snap.SuccessRate)
			assert.Equal(t, int64(tt.successes+tt.failures), snap.Total)
		})
	}
}

func TestDailyReset(t *testing.T) {
	c := &clock{now: time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)}
	m := NewManagerWithClock(c.Now)

	m.Record(true)
	m.Record(false)
	assert.Equal(t, int64(2), m.Snapshot().Today)

	c.Set(time.Date(2024, 5, 2, 0, 1, 0, 0, time.UTC))
	snap := m.Snapshot()
	assert.Equal(t, int64(0), snap.Today)
	assert.Equal(t, int64(2), snap.Total)

	m.Record(true)
	snap = m.Snapshot()
	assert.Equal(t, int64(1), snap.Today)
	assert.Equal(t, int64(3), snap.Total)
}

func TestSameDayNextMonthResets(t *testing.T) {
	c := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManagerWithClock(c.Now)
	m.Record(true)

	c.Set(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, int64(0), m.Snapshot().Today)
}

func TestConcurrentRecord(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Record(i%4 != 0)
		}(i)
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Equal(t, int64(100), snap.Total)
	assert.Equal(t, 75, snap.SuccessRate)
}
