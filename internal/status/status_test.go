package status

import (
	"testing"
	"time"

	"github.com/nabbar/gcproxy/internal/codec"
	"github.com/stretchr/testify/require"
)

func TestMirrorStartsWithUninitializedTarget(t *testing.T) {
	m := NewMirror()
	sys, comp := m.TargetSystem()
	require.Equal(t, -1, sys)
	require.Equal(t, -1, comp)
}

func TestMirrorObserveTracksLastMessageAndCount(t *testing.T) {
	m := NewMirror()
	hb := codec.NewHeartbeat(1, 1, "MANUAL", nil)
	m.Observe(hb)
	m.Observe(hb)

	last, ok := m.LastMessage("HEARTBEAT")
	require.True(t, ok)
	require.Equal(t, hb, last)
	require.Equal(t, 2, m.Count("HEARTBEAT"))
}

func TestMirrorSetFlightModeReportsChange(t *testing.T) {
	m := NewMirror()
	require.True(t, m.SetFlightMode("MANUAL"))
	require.False(t, m.SetFlightMode("MANUAL"))
	require.True(t, m.SetFlightMode("AUTO"))
}

func TestMirrorLoadingWaypointsTouchesActivity(t *testing.T) {
	m := NewMirror()
	start := time.Now()
	m.SetLoadingWaypoints(true, start)
	require.True(t, m.LoadingWaypoints())

	later := start.Add(5 * time.Second)
	require.InDelta(t, 5, m.LoadingWaypointIdleFor(later).Seconds(), 0.01)

	m.TouchLoadingActivity(later)
	require.InDelta(t, 0, m.LoadingWaypointIdleFor(later).Seconds(), 0.01)
}

func TestSettingsValidatesRangeAndUnknownNames(t *testing.T) {
	s := NewSettings()

	require.NoError(t, s.Set("numcells", 6))
	v, ok := s.Get("numcells")
	require.True(t, ok)
	require.Equal(t, 6, v)

	require.Error(t, s.Set("numcells", 13))
	require.Error(t, s.Set("speech", 2))
	require.Error(t, s.Set("does_not_exist", 1))
}

func TestSettingsNamesAreSorted(t *testing.T) {
	s := NewSettings()
	names := s.Names()
	for i := 1; i < len(names); i++ {
		require.LessOrEqual(t, names[i-1], names[i])
	}
}
