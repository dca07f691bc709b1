/*
Package resilience provides the circuit breaker that guards browser launches.

Launching a headless browser is the slowest and most failure-prone step of a
lookup. When launches keep failing the breaker opens and requests fail fast
with ErrCircuitOpen instead of each one waiting on a broken browser install.

# Usage

	breaker := resilience.New("browser-launch", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	session, err := resilience.Do(breaker, func() (finder.Session, error) {
		return launcher.Launch(ctx)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                          Open
*/
package resilience
