package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTickSkippedInSetupModeOrUnknownTarget(t *testing.T) {
	calls := 0
	s := New(Handlers{
		Heartbeat:      func(time.Time) { calls++ },
		HeartbeatCheck: func(time.Time) {},
		StreamRate:     func(time.Time) {},
		Battery:        func(time.Time) {},
		Override:       func(time.Time) {},
		StatusSnapshot: func(time.Time) {},
	}, 1)

	now := time.Now()
	s.Tick(now, true, 1)
	require.Equal(t, 0, calls)

	s.Tick(now, false, -1)
	require.Equal(t, 0, calls)

	s.Tick(now, false, 1)
	require.Equal(t, 1, calls)
}

func TestTickRespectsPerTriggerCadence(t *testing.T) {
	heartbeats, checks := 0, 0
	s := New(Handlers{
		Heartbeat:      func(time.Time) { heartbeats++ },
		HeartbeatCheck: func(time.Time) { checks++ },
		StreamRate:     func(time.Time) {},
		Battery:        func(time.Time) {},
		Override:       func(time.Time) {},
		StatusSnapshot: func(time.Time) {},
	}, 1)

	start := time.Now()
	s.Tick(start, false, 1)
	require.Equal(t, 1, heartbeats)
	require.Equal(t, 1, checks)

	// 200ms later: heartbeat_check (3Hz, ~333ms period) not due yet,
	// but calling Tick again shouldn't re-fire heartbeat (1Hz) either.
	s.Tick(start.Add(200*time.Millisecond), false, 1)
	require.Equal(t, 1, heartbeats)
	require.Equal(t, 1, checks)

	// 400ms later: heartbeat_check is due (> 333ms), heartbeat is not (< 1s).
	s.Tick(start.Add(400*time.Millisecond), false, 1)
	require.Equal(t, 1, heartbeats)
	require.Equal(t, 2, checks)

	// 1.1s later: heartbeat is now due too.
	s.Tick(start.Add(1100*time.Millisecond), false, 1)
	require.Equal(t, 2, heartbeats)
}

func TestSetOverrideHzChangesCadence(t *testing.T) {
	overrides := 0
	s := New(Handlers{
		Heartbeat:      func(time.Time) {},
		HeartbeatCheck: func(time.Time) {},
		StreamRate:     func(time.Time) {},
		Battery:        func(time.Time) {},
		Override:       func(time.Time) { overrides++ },
		StatusSnapshot: func(time.Time) {},
	}, 1)

	s.SetOverrideHz(50)
	require.Equal(t, time.Second/50, s.Override.Interval)

	start := time.Now()
	s.Tick(start, false, 1)
	require.Equal(t, 1, overrides)
	s.Tick(start.Add(20*time.Millisecond), false, 1)
	require.Equal(t, 2, overrides)
}
