package engine

import (
	"strconv"
	"time"

	"github.com/nabbar/gcproxy/internal/codec"
	"github.com/nabbar/gcproxy/internal/journal"
	"github.com/nabbar/gcproxy/internal/link"
	"github.com/nabbar/gcproxy/internal/telemetry"
	"github.com/nabbar/gcproxy/internal/waypoint"
)

// onMessage is on_message(link, msg).
func (e *Engine) onMessage(l *link.Link, msg codec.Message) {
	if ts, ok := msg.(codec.Timestamped); ok && !ts.HasTimestamp() {
		ts.SetTimestamp(uint64(time.Now().UnixMicro()))
	}

	l.IncMasterIn()
	if e.met != nil {
		e.met.MasterIn.WithLabelValues(itoa(l.Num)).Inc()
	}

	if ts, ok := msg.(codec.Timestamped); ok {
		wrapped, delay := e.links.Observe(l, ts.Usec())
		if wrapped {
			e.ann.Announce("time has wrapped", telemetry.Fields{"link": l.Num})
		}
		switch delay {
		case link.DelayOnset:
			e.ann.Announce("link delayed", telemetry.Fields{"link": l.Num})
		case link.DelayRecovered:
			e.ann.Announce("link recovered from delay", telemetry.Fields{"link": l.Num})
		}
	}

	if msg.Kind() != codec.KindBadData {
		e.journal.EnqueueParsed(journal.Record{Usec: uint64(time.Now().UnixMicro()), LinkNum: l.Num, Raw: msg.WireBytes()})
	}

	if l.Delayed() {
		e.ann.Warn("dropping message from delayed link", telemetry.Fields{"link": l.Num})
		return
	}

	e.dispatch(l, msg)

	e.status.Observe(msg)
	if msg.Kind() != codec.KindBadData {
		for _, o := range e.outputs {
			_ = o.Send(msg.WireBytes())
		}
	}
}

// dispatch is handler table, keyed by logical type.
func (e *Engine) dispatch(l *link.Link, msg codec.Message) {
	switch m := msg.(type) {
	case *codec.Heartbeat:
		e.onHeartbeat(l, m)
	case *codec.Statustext:
		e.onStatustext(m)
	case *codec.ParamValue:
		e.onParamValue(m)
	case *codec.ServoOutputRaw:
		e.onServoOutputRaw(m)
	case *codec.WaypointCount:
		e.onWaypointCount(l, m)
	case *codec.WaypointItem:
		e.onWaypointItemDownload(l, m)
	case *codec.WaypointRequest:
		e.onWaypointRequest(l, m)
	case *codec.WaypointCurrent:
		e.onWaypointCurrent(m)
	case *codec.SysStatus:
		e.onSysStatus(m)
	case *codec.VfrHud:
		e.onVfrHud(m)
	case *codec.RcChannelsRaw:
		e.onRcChannelsRaw(l, m)
	case *codec.NavControllerOutput:
		e.onNavControllerOutput(m)
	case *codec.GpsRaw:
		e.onGpsRaw(m)
	case *codec.ApAdc:
		e.updateBatteryFromCellVoltage(m.Adc2)
	case *codec.Silent:
		// Enumerated silent telemetry: mirror/fan-out only, no side effect.
	case *codec.BadData:
		e.onBadData(m)
	default:
		e.ann.Print("got unknown: "+codec.TypeName(msg), nil)
	}
}

// onBadData is the BAD_DATA handler: counts the frame into mav_error
// and, if all bytes are printable, writes it to stdout verbatim (this
// is how human-readable vehicle boot messages reach the operator).
// With --show-errors, non-printable frames are written out as well.
func (e *Engine) onBadData(m *codec.BadData) {
	if e.met != nil {
		e.met.BadData.Inc()
		e.met.MavError.Inc()
	}
	if m.Printable || e.cfg.ShowErrors {
		e.ann.Print(string(m.WireBytes()), nil)
	}
}

func (e *Engine) onHeartbeat(l *link.Link, m *codec.Heartbeat) {
	sys, comp := e.status.TargetSystem()
	if int(m.SystemID()) != sys || int(m.ComponentID()) != comp {
		e.status.AdoptTarget(int(m.SystemID()), int(m.ComponentID()))
		e.ann.Announce("heartbeat from new target system", telemetry.Fields{"system": m.SystemID(), "component": m.ComponentID()})
	}

	now := time.Now()
	e.mu.Lock()
	e.heartbeatErr = false
	e.lastHeartbeat = now
	e.mu.Unlock()

	l.MarkHeartbeat(now)

	if changed := e.status.SetFlightMode(m.FlightMode); changed {
		e.ann.Announce("flight mode "+m.FlightMode, telemetry.Fields{"link": l.Num})
	}
}

func (e *Engine) onStatustext(m *codec.Statustext) {
	last, ok := e.status.LastMessage("STATUSTEXT")
	if !ok || last.(*codec.Statustext).Text != m.Text {
		e.ann.Print(m.Text, nil)
	}
}

func (e *Engine) onParamValue(m *codec.ParamValue) {
	complete := e.params.Update(m.ParamID, m.Value, m.ParamIndex, m.ParamCount)
	if complete {
		e.ann.Announce("parameter fetch complete", nil)
		if snap, ok := e.pendingParamSnapshotPath(); ok {
			_ = e.SnapshotParams(snap)
		}
	}
}

func (e *Engine) onServoOutputRaw(m *codec.ServoOutputRaw) {
	e.recomputeControlMirror(m)
}

func (e *Engine) onWaypointCount(l *link.Link, m *codec.WaypointCount) {
	if e.wp.Op() == waypoint.OpNone {
		e.ann.Warn("unsolicited waypoint count", telemetry.Fields{"link": l.Num})
		return
	}
	e.mu.Lock()
	e.pendingDownloadOp = e.wp.Op()
	e.mu.Unlock()
	e.wp.StartDownload(e.wp.Op(), e.wp.SavePath())
	e.wp.SetExpectedCount(int(m.Count))
	e.requestWaypoint(l, 0)
}

func (e *Engine) onWaypointItemDownload(l *link.Link, m *codec.WaypointItem) {
	appended, unexpected, done := e.wp.AppendDownloaded(*m)
	if unexpected {
		e.ann.Warn("unexpected waypoint sequence", telemetry.Fields{"seq": m.Seq})
		return
	}
	if !appended {
		return
	}
	if done {
		e.finalizeDownload()
		return
	}
	e.requestWaypoint(l, m.Seq+1)
}

func (e *Engine) onWaypointRequest(l *link.Link, m *codec.WaypointRequest) {
	e.serviceWaypointUpload(l, int(m.Seq))
}

func (e *Engine) onWaypointCurrent(m *codec.WaypointCurrent) {
	prev := e.status.LastWaypointSeq()
	if int(m.Seq) != prev {
		e.status.SetLastWaypointSeq(int(m.Seq))
		e.ann.Announce("current waypoint", telemetry.Fields{"seq": m.Seq})
	}
}

func (e *Engine) onSysStatus(m *codec.SysStatus) {
	e.updateBatteryFromSysStatus(m)
}

func (e *Engine) onVfrHud(m *codec.VfrHud) {
	e.announceAltitude(float64(m.Alt))
}

func (e *Engine) onRcChannelsRaw(l *link.Link, m *codec.RcChannelsRaw) {
	mode := e.status.FlightMode()
	if mode == "MANUAL" && m.Chan[6] > 1700 {
		e.ann.Warn("chan7 self-test audit triggered", telemetry.Fields{"link": l.Num})
	}
	if v, ok := e.settings.Get("radiosetup"); ok && v != 0 {
		e.auditRCLimits(m)
	}
}

func (e *Engine) onNavControllerOutput(m *codec.NavControllerOutput) {
	mode := e.status.FlightMode()
	if mode != "AUTO" {
		return
	}
	readout, _ := e.settings.Get("distreadout")
	if readout <= 0 {
		return
	}
	rounded := int(m.WpDist) / readout * readout
	prev := e.status.LastDistance()
	if float64(rounded) != prev && rounded != 0 {
		e.status.SetLastDistance(float64(rounded))
		e.ann.Announce("distance to waypoint", telemetry.Fields{"meters": rounded})
	}
}

func (e *Engine) onGpsRaw(m *codec.GpsRaw) {
	e.mu.Lock()
	e.gpsFix = m.FixType == 2
	e.mu.Unlock()
}

func itoa(v int) string { return strconv.Itoa(v) }
