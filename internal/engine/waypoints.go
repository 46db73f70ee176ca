package engine

import (
	"os"
	"time"

	"github.com/nabbar/gcproxy/internal/codec"
	"github.com/nabbar/gcproxy/internal/link"
	"github.com/nabbar/gcproxy/internal/telemetry"
	"github.com/nabbar/gcproxy/internal/waypoint"
)

// requestWaypoint sends the download-path request for the next
// waypoint seq WAYPOINT_COUNT/WAYPOINT handlers.
func (e *Engine) requestWaypoint(l *link.Link, seq uint16) {
	sys, _ := e.status.TargetSystem()
	if sys < 0 {
		return
	}
	msg := codec.NewWaypointRequest(e.cfg.SourceSystem, e.cfg.TargetComponent, seq, nil)
	_ = l.Send(msg)
}

// finalizeDownload runs once the waypoint list has been fully
// received: emit the listing for `wp list`, or persist the file for
// `wp save <path>`.
func (e *Engine) finalizeDownload() {
	e.mu.Lock()
	op := e.pendingDownloadOp
	e.pendingDownloadOp = waypoint.OpNone
	e.mu.Unlock()

	items := e.wp.Items()

	switch op {
	case waypoint.OpList:
		for _, wp := range items {
			e.ann.Print(waypointLine(wp), nil)
		}
	case waypoint.OpSave:
		path := e.wp.SavePath()
		if path == "" {
			return
		}
		f, err := os.Create(path)
		if err != nil {
			e.ann.Warn("could not save waypoints", telemetry.Fields{"path": path, "error": err})
			return
		}
		defer f.Close()
		if err := waypoint.WriteFile(f, items); err != nil {
			e.ann.Warn("could not write waypoint file", telemetry.Fields{"path": path, "error": err})
		}
	}
}

func waypointLine(wp codec.WaypointItem) string {
	return itoa(int(wp.Seq)) + " " + itoa(int(wp.Command))
}

// serviceWaypointUpload answers one WAYPOINT_REQUEST during a `wp
// load` upload 10s-inactivity-timeout protocol.
func (e *Engine) serviceWaypointUpload(l *link.Link, seq int) {
	now := time.Now()
	wp, ok, done, timedOut := e.wp.ServiceRequest(seq, now)
	if timedOut {
		e.ann.Warn("waypoint upload timed out", nil)
		e.status.SetLoadingWaypoints(false, now)
		return
	}
	if !ok {
		return
	}
	e.status.TouchLoadingActivity(now)

	msg := codec.NewWaypointItem(e.cfg.SourceSystem, e.cfg.TargetComponent, wp, nil)
	_ = l.Send(msg)

	if done {
		e.status.SetLoadingWaypoints(false, now)
		e.ann.Announce("waypoint upload complete", telemetry.Fields{"count": e.wp.Count()})
	}
}
