package param

import "time"

const (
	setTimeout  = time.Second
	setPollRate = 100 * time.Millisecond // 10 Hz
	setRetries  = 3
)

// Set implements param_set: send PARAM_SET, wait up to
// 1s polling at 10Hz for a PARAM_VALUE echo for name, retrying up to
// 3 times. It blocks for up to the full retry window, so callers run
// it on a goroutine of their own rather than on the engine loop.
func Set(table *Table, send func() error, name string) (value float32, ok bool, err error) {
	for attempt := 0; attempt < setRetries; attempt++ {
		baseline := table.Generation(name)
		if err := send(); err != nil {
			return 0, false, err
		}

		deadline := time.Now().Add(setTimeout)
		ticker := time.NewTicker(setPollRate)
		for time.Now().Before(deadline) {
			if table.Generation(name) != baseline {
				ticker.Stop()
				v, _ := table.Get(name)
				return v, true, nil
			}
			<-ticker.C
		}
		ticker.Stop()
	}
	return 0, false, nil
}
