package engine

import (
	"time"

	"github.com/nabbar/gcproxy/internal/battery"
	"github.com/nabbar/gcproxy/internal/codec"
	"github.com/nabbar/gcproxy/internal/telemetry"
)

// onHeartbeatTrigger: `heartbeat` (1Hz) — send a GCS
// heartbeat on every link if enabled, and bump master_out.
func (e *Engine) onHeartbeatTrigger(time.Time) {
	if v, ok := e.settings.Get("heartbeat"); ok && v == 0 {
		return
	}
	for _, l := range e.links.Links() {
		msg := codec.NewGcsHeartbeat(e.cfg.SourceSystem, e.cfg.TargetComponent)
		_ = l.Send(msg)
		if e.met != nil {
			e.met.MasterOut.WithLabelValues(itoa(l.Num)).Inc()
		}
	}
}

// onHeartbeatCheckTrigger: `heartbeat_check` (3Hz).
func (e *Engine) onHeartbeatCheckTrigger(now time.Time) {
	e.mu.Lock()
	lastHB := e.lastHeartbeat
	hbErr := e.heartbeatErr
	e.mu.Unlock()

	if !lastHB.IsZero() && now.Sub(lastHB) > 5*time.Second && !hbErr {
		e.ann.Warn("heartbeat lost", nil)
		e.mu.Lock()
		e.heartbeatErr = true
		e.mu.Unlock()
	}

	for _, l := range e.links.Links() {
		if !l.LastHeartbeat.IsZero() && now.Sub(l.LastHeartbeat) > 5*time.Second && !l.Errored() {
			e.ann.Warn("link heartbeat lost", telemetry.Fields{"link": l.Num})
			l.SetErrored(true)
		}
	}
}

// onStreamRateTrigger: `streamrate` (30Hz admission
// check) — re-send REQUEST_DATA_STREAM using streamrate (primary
// link) or streamrate2 (others).
func (e *Engine) onStreamRateTrigger(time.Time) {
	primary, _ := e.settings.Get("streamrate")
	secondary, _ := e.settings.Get("streamrate2")

	sys, comp := e.status.TargetSystem()
	if sys < 0 {
		return
	}

	for i, l := range e.links.Links() {
		rate := secondary
		if i == 0 {
			rate = primary
		}
		msg := codec.NewRequestDataStream(e.cfg.SourceSystem, e.cfg.TargetComponent, uint8(sys), uint8(comp), uint16(rate))
		_ = l.Send(msg)
	}
}

// onBatteryTrigger fires at 10Hz and emits the two independent
// battery-level announcements: flight battery (SYS_STATUS, always
// present) and avionics battery (AP_ADC cell voltage, only once a
// sample has been observed).
func (e *Engine) onBatteryTrigger(time.Time) {
	percent, lastAnnounce := e.status.FlightBattery()
	if rounded, changed, warning := battery.Announcement(percent, lastAnnounce); changed {
		e.status.SetFlightBatteryAnnounced(rounded)
		if warning {
			e.ann.Warn("flight battery warning", telemetry.Fields{"percent": rounded})
		} else {
			e.ann.Announce("flight battery", telemetry.Fields{"percent": rounded})
		}
	}

	aPercent, aLastAnnounce, ok := e.status.AvionicsBattery()
	if !ok {
		return
	}
	if rounded, changed, warning := battery.Announcement(aPercent, aLastAnnounce); changed {
		e.status.SetAvionicsBatteryAnnounced(rounded)
		if warning {
			e.ann.Warn("avionics battery warning", telemetry.Fields{"percent": rounded})
		} else {
			e.ann.Announce("avionics battery", telemetry.Fields{"percent": rounded})
		}
	}
}

// onOverrideTrigger: `override` (1Hz, or 50Hz with SITL).
func (e *Engine) onOverrideTrigger(time.Time) {
	e.mu.Lock()
	ov := e.override
	e.mu.Unlock()

	zero := true
	for _, v := range ov {
		if v != 0 {
			zero = false
			break
		}
	}
	if zero {
		return
	}

	sys, comp := e.status.TargetSystem()
	if master := e.links.CurrentMaster(); master != nil && sys >= 0 {
		msg := codec.NewRcOverride(e.cfg.SourceSystem, e.cfg.TargetComponent, uint8(sys), uint8(comp), ov)
		_ = master.Send(msg)
	}
	if e.sitl != nil {
		_ = e.sitl.Send(packSITLOverride(ov))
	}
}

// packSITLOverride packs the override vector as eight little-endian
// uint16 values `<HHHHHHHH>` SITL wire shape.
func packSITLOverride(ov [8]uint16) []byte {
	b := make([]byte, 16)
	for i, v := range ov {
		b[2*i] = byte(v)
		b[2*i+1] = byte(v >> 8)
	}
	return b
}
