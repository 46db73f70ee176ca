package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nabbar/gcproxy/internal/announce"
	"github.com/nabbar/gcproxy/internal/codec"
	"github.com/nabbar/gcproxy/internal/link"
	"github.com/nabbar/gcproxy/internal/status"
	"github.com/nabbar/gcproxy/internal/telemetry"
	"github.com/nabbar/gcproxy/internal/waypoint"
)

// fakeTransport is a no-op transport.Transport stand-in for tests
// that need a Link but never exercise its I/O.
type fakeTransport struct{}

func (fakeTransport) Recv() ([]byte, error)     { return nil, nil }
func (fakeTransport) Send([]byte) error         { return nil }
func (fakeTransport) Ready() <-chan struct{}    { return make(chan struct{}) }
func (fakeTransport) Close() error              { return nil }

func newTestLink(num int) *link.Link {
	return link.New(num, fakeTransport{}, codec.NewSimple())
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	log := telemetry.New(nil)
	return &Engine{
		cfg:      Config{SourceSystem: 255, TargetComponent: 190},
		status:   status.NewMirror(),
		settings: status.NewSettings(),
		params:   nil,
		wp:       waypoint.NewLoader(),
		log:      log,
		ann:      announce.New(log, nil),
	}
}

func TestPwmToAxisClampsAndZeroBounds(t *testing.T) {
	require.Equal(t, 0.0, pwmToAxis(1500, 0, 2000, -1, 1))
	require.InDelta(t, 0.0, pwmToAxis(1500, 1000, 2000, -1, 1), 1e-9)
	require.InDelta(t, 1.0, pwmToAxis(3000, 1000, 2000, -1, 1), 1e-9)
	require.InDelta(t, -1.0, pwmToAxis(0, 1000, 2000, -1, 1), 1e-9)
}

func TestAnnounceAltitudeFirstSampleAdoptsBasealtitude(t *testing.T) {
	e := newTestEngine(t)
	e.gpsFix = true

	e.announceAltitude(100)

	require.True(t, e.haveBaseAlt)
	require.Equal(t, 100.0, e.basealtitude)
	require.Equal(t, 100.0, e.lastAnnouncedAlt)
}

func TestAnnounceAltitudeSkippedWithoutGPSFix(t *testing.T) {
	e := newTestEngine(t)
	e.gpsFix = false

	e.announceAltitude(100)

	require.False(t, e.haveBaseAlt)
}

func TestAnnounceAltitudeAdoptsNewFloorBelowBasealtitude(t *testing.T) {
	e := newTestEngine(t)
	e.gpsFix = true
	e.announceAltitude(100)

	e.announceAltitude(40)

	require.Equal(t, 40.0, e.basealtitude)
}

func TestFinalizeDownloadListClearsPendingOp(t *testing.T) {
	e := newTestEngine(t)
	e.wp.StartDownload(waypoint.OpList, "")
	e.wp.SetExpectedCount(1)
	_, _, done := e.wp.AppendDownloaded(codec.WaypointItem{Seq: 0, Command: 16})
	require.True(t, done)

	e.pendingDownloadOp = waypoint.OpList
	e.finalizeDownload()

	require.Equal(t, waypoint.OpNone, e.pendingDownloadOp)
}

func TestFinalizeDownloadSavePersistsFile(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "mission.wp")

	e.wp.StartDownload(waypoint.OpSave, path)
	e.wp.SetExpectedCount(1)
	_, _, done := e.wp.AppendDownloaded(codec.WaypointItem{Seq: 0, Command: 16})
	require.True(t, done)

	e.pendingDownloadOp = waypoint.OpSave
	e.finalizeDownload()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "QGC WPL 110")
}

func TestOnHeartbeatAdoptsTargetAndFlightMode(t *testing.T) {
	e := newTestEngine(t)
	msg := codec.NewHeartbeat(1, 2, "MANUAL", nil)

	e.onHeartbeat(newTestLink(1), msg)

	sys, comp := e.status.TargetSystem()
	require.Equal(t, 1, sys)
	require.Equal(t, 2, comp)
	require.Equal(t, "MANUAL", e.status.FlightMode())
}

func TestOnHeartbeatClearsEngineHeartbeatError(t *testing.T) {
	e := newTestEngine(t)
	e.heartbeatErr = true

	e.onHeartbeat(newTestLink(2), codec.NewHeartbeat(1, 2, "MANUAL", nil))

	require.False(t, e.heartbeatErr)
	require.WithinDuration(t, time.Now(), e.lastHeartbeat, time.Second)
}
