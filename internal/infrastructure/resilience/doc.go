/*
Package resilience provides a circuit breaker for operations that fail in
bursts, such as process creation under resource exhaustion.

# Usage

	breaker := resilience.New("spawn", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, fs.ErrNotExist)
		},
	})

	proc, err := resilience.Call(breaker, func() (*os.Process, error) {
		return os.StartProcess(path, argv, attr)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                         Open

Errors that IsSuccessful accepts are returned to the caller but do not count
toward tripping.
*/
package resilience
