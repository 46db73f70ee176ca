// Package status implements Status Mirror and Settings:
// process-lifetime singletons tracking the last-seen message of each
// type, per-type counts, and a handful of rolling fields the engine
// and operator surface both read.
package status

import (
	"fmt"
	"sync"
	"time"

	"github.com/nabbar/gcproxy/internal/codec"
	"github.com/nabbar/gcproxy/internal/ctxmap"
)

// Mirror is the live status snapshot: last_message/count maps keyed by
// message-type name, plus the rolling fields names.
type Mirror struct {
	lastMessage *ctxmap.Map[string]
	counts      *ctxmap.Map[string]

	mu sync.RWMutex

	targetSystem    int
	targetComponent int
	flightMode      string

	flightBatteryPercent   float64
	flightBatteryAnnounced float64

	haveAvionicsBattery      bool
	avionicsBatteryPercent   float64
	avionicsBatteryAnnounced float64

	lastAltitude    float64
	lastDistance    float64
	lastWaypointSeq int

	setupMode                bool
	loadingWaypoints         bool
	loadingWaypointLastSeen time.Time
}

// NewMirror returns a Mirror with target_system/target_component
// uninitialized (-1, -1) invariant.
func NewMirror() *Mirror {
	return &Mirror{
		lastMessage:     ctxmap.New[string](),
		counts:          ctxmap.New[string](),
		targetSystem:    -1,
		targetComponent: -1,
	}
}

// Observe records msg as the latest of its type and bumps its count,
// the per-message bookkeeping the engine performs after a message's
// type-specific handler has run.
func (m *Mirror) Observe(msg codec.Message) {
	name := codec.TypeName(msg)
	m.lastMessage.Store(name, msg)

	n := 0
	if v, ok := m.counts.Load(name); ok {
		n = v.(int)
	}
	m.counts.Store(name, n+1)
}

// LastMessage returns the most recently observed message of the given
// type name (the STATUSTEXT handler uses it to detect changed text).
func (m *Mirror) LastMessage(name string) (codec.Message, bool) {
	v, ok := m.lastMessage.Load(name)
	if !ok {
		return nil, false
	}
	return v.(codec.Message), true
}

// Count returns how many messages of the given type name have been
// observed.
func (m *Mirror) Count(name string) int {
	v, ok := m.counts.Load(name)
	if !ok {
		return 0
	}
	return v.(int)
}

// WalkTypes visits every observed type name with its last message and
// count, for `status` with no/glob pattern.
func (m *Mirror) WalkTypes(fn func(name string, last codec.Message, count int)) {
	m.lastMessage.Walk(func(name string, last interface{}) bool {
		fn(name, last.(codec.Message), m.Count(name))
		return true
	})
}

// TargetSystem/TargetComponent returns the current heartbeat-adopted
// identity, or (-1,-1) if uninitialized — invariant that
// these two fields are always both set or both unset.
func (m *Mirror) TargetSystem() (sysID, compID int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.targetSystem, m.targetComponent
}

// AdoptTarget sets target_system/target_component together, e.g. from
// the first HEARTBEAT seen.
func (m *Mirror) AdoptTarget(sysID, compID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.targetSystem = sysID
	m.targetComponent = compID
}

func (m *Mirror) FlightMode() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flightMode
}

// SetFlightMode records a new flight mode and reports whether it
// differs from the previous one (the HEARTBEAT handler's "changed"
// check).
func (m *Mirror) SetFlightMode(mode string) (changed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed = mode != m.flightMode
	m.flightMode = mode
	return changed
}

// FlightBattery returns the unsmoothed SYS_STATUS
// battery_remaining-derived percent and the last-announced value.
func (m *Mirror) FlightBattery() (percent, lastAnnounced float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flightBatteryPercent, m.flightBatteryAnnounced
}

// SetFlightBattery assigns the flight-battery percent directly: it is
// never EMA-smoothed, unlike the avionics (AP_ADC cell-voltage) path.
func (m *Mirror) SetFlightBattery(percent float64) {
	m.mu.Lock()
	m.flightBatteryPercent = percent
	m.mu.Unlock()
}

func (m *Mirror) SetFlightBatteryAnnounced(percent float64) {
	m.mu.Lock()
	m.flightBatteryAnnounced = percent
	m.mu.Unlock()
}

// AvionicsBattery returns the EMA-smoothed AP_ADC cell-voltage percent
// and the last-announced value; ok is false until the first AP_ADC
// sample with numcells>0 has been observed.
func (m *Mirror) AvionicsBattery() (percent, lastAnnounced float64, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.avionicsBatteryPercent, m.avionicsBatteryAnnounced, m.haveAvionicsBattery
}

func (m *Mirror) SetAvionicsBattery(percent float64) {
	m.mu.Lock()
	m.avionicsBatteryPercent = percent
	m.haveAvionicsBattery = true
	m.mu.Unlock()
}

func (m *Mirror) SetAvionicsBatteryAnnounced(percent float64) {
	m.mu.Lock()
	m.avionicsBatteryAnnounced = percent
	m.mu.Unlock()
}

func (m *Mirror) LastAltitude() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastAltitude
}

func (m *Mirror) SetLastAltitude(alt float64) {
	m.mu.Lock()
	m.lastAltitude = alt
	m.mu.Unlock()
}

func (m *Mirror) LastDistance() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastDistance
}

func (m *Mirror) SetLastDistance(d float64) {
	m.mu.Lock()
	m.lastDistance = d
	m.mu.Unlock()
}

func (m *Mirror) LastWaypointSeq() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastWaypointSeq
}

func (m *Mirror) SetLastWaypointSeq(seq int) {
	m.mu.Lock()
	m.lastWaypointSeq = seq
	m.mu.Unlock()
}

func (m *Mirror) SetupMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.setupMode
}

func (m *Mirror) SetSetupMode(v bool) {
	m.mu.Lock()
	m.setupMode = v
	m.mu.Unlock()
}

func (m *Mirror) LoadingWaypoints() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadingWaypoints
}

// SetLoadingWaypoints also refreshes loading_waypoint_last_activity
// when turning the flag on.
func (m *Mirror) SetLoadingWaypoints(v bool, now time.Time) {
	m.mu.Lock()
	m.loadingWaypoints = v
	if v {
		m.loadingWaypointLastSeen = now
	}
	m.mu.Unlock()
}

func (m *Mirror) TouchLoadingActivity(now time.Time) {
	m.mu.Lock()
	m.loadingWaypointLastSeen = now
	m.mu.Unlock()
}

func (m *Mirror) LoadingWaypointIdleFor(now time.Time) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return now.Sub(m.loadingWaypointLastSeen)
}

// Snapshot renders a human-readable status.txt body, the 1Hz side
// effect the Journal worker performs.
func (m *Mirror) Snapshot(settings *Settings) []byte {
	sys, comp := m.TargetSystem()
	flightPercent, _ := m.FlightBattery()
	avionicsPercent, _, haveAvionics := m.AvionicsBattery()

	var b []byte
	b = fmt.Appendf(b, "target_system=%d\ntarget_component=%d\nflight_mode=%s\nflight_battery_percent=%.1f\n",
		sys, comp, m.FlightMode(), flightPercent)
	if haveAvionics {
		b = fmt.Appendf(b, "avionics_battery_percent=%.1f\n", avionicsPercent)
	}

	for _, name := range settings.Names() {
		v, _ := settings.Get(name)
		b = fmt.Appendf(b, "%s=%d\n", name, v)
	}
	return b
}
