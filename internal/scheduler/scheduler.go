// Package scheduler implements Periodic Scheduler: six
// independently-cadenced triggers, each firing if enough wall time has
// elapsed since its own last firing, all skipped while setup_mode or
// target_system == -1.
package scheduler

import "time"

// Trigger is one named, independently-cadenced periodic action.
type Trigger struct {
	Name     string
	Interval time.Duration
	last     time.Time
	fn       func(now time.Time)
}

// Scheduler holds fixed trigger table. Override's
// interval is mutable at runtime since it depends on whether a SITL
// output exists (1Hz normally, 50Hz with SITL).
type Scheduler struct {
	Heartbeat      *Trigger
	HeartbeatCheck *Trigger
	StreamRate     *Trigger
	Battery        *Trigger
	Override       *Trigger
	StatusSnapshot *Trigger

	triggers []*Trigger
}

// Handlers bundles the six callbacks the scheduler invokes. Construct
// with the engine's closures; no trigger fires more often than its
// own Interval, and none fire at all until Tick is first called.
type Handlers struct {
	Heartbeat      func(now time.Time)
	HeartbeatCheck func(now time.Time)
	StreamRate     func(now time.Time)
	Battery        func(now time.Time)
	Override       func(now time.Time)
	StatusSnapshot func(now time.Time)
}

// New builds a Scheduler with default cadences.
// overrideHz lets the CLI/engine select 1Hz (default) or 50Hz (SITL
// output present) for the override trigger.
func New(h Handlers, overrideHz float64) *Scheduler {
	s := &Scheduler{}
	s.Heartbeat = &Trigger{Name: "heartbeat", Interval: time.Second, fn: h.Heartbeat}
	s.HeartbeatCheck = &Trigger{Name: "heartbeat_check", Interval: time.Second / 3, fn: h.HeartbeatCheck}
	s.StreamRate = &Trigger{Name: "streamrate", Interval: time.Second / 30, fn: h.StreamRate}
	s.Battery = &Trigger{Name: "battery", Interval: time.Second / 10, fn: h.Battery}
	s.Override = &Trigger{Name: "override", Interval: time.Duration(float64(time.Second) / overrideHz), fn: h.Override}
	s.StatusSnapshot = &Trigger{Name: "status_snapshot", Interval: time.Second, fn: h.StatusSnapshot}

	s.triggers = []*Trigger{s.Heartbeat, s.HeartbeatCheck, s.StreamRate, s.Battery, s.Override, s.StatusSnapshot}
	return s
}

// SetOverrideHz re-tunes the override trigger's cadence after
// construction (the engine instead picks the rate when calling New).
func (s *Scheduler) SetOverrideHz(hz float64) {
	s.Override.Interval = time.Duration(float64(time.Second) / hz)
}

// Tick fires every trigger whose interval has elapsed since its last
// firing. Per, the whole scheduler is a no-op while
// setupMode is true or targetSystem == -1.
func (s *Scheduler) Tick(now time.Time, setupMode bool, targetSystem int) {
	if setupMode || targetSystem == -1 {
		return
	}
	for _, t := range s.triggers {
		if t.last.IsZero() || now.Sub(t.last) >= t.Interval {
			t.last = now
			t.fn(now)
		}
	}
}
