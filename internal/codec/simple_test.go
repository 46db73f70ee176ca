package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimpleRoundTripHeartbeat(t *testing.T) {
	c := NewSimple()
	hb := NewHeartbeat(1, 2, "MANUAL", nil)

	wire, err := c.Encode(hb)
	require.NoError(t, err)

	out := c.Feed(wire)
	require.Len(t, out, 1)

	got, ok := out[0].(*Heartbeat)
	require.True(t, ok)
	require.Equal(t, uint8(1), got.SystemID())
	require.Equal(t, uint8(2), got.ComponentID())
	require.Equal(t, "MANUAL", got.FlightMode)
}

func TestSimpleFeedAccumulatesPartialFrames(t *testing.T) {
	c := NewSimple()
	wire, _ := c.Encode(NewWaypointRequest(1, 1, 7, nil))

	// Split the frame across two Feed calls.
	require.Empty(t, c.Feed(wire[:3]))
	out := c.Feed(wire[3:])
	require.Len(t, out, 1)

	got, ok := out[0].(*WaypointRequest)
	require.True(t, ok)
	require.Equal(t, uint16(7), got.Seq)
}

func TestSimpleFeedHandlesMultipleFramesInOneCall(t *testing.T) {
	c := NewSimple()
	a, _ := c.Encode(NewWaypointRequest(1, 1, 0, nil))
	b, _ := c.Encode(NewWaypointRequest(1, 1, 1, nil))

	out := c.Feed(append(a, b...))
	require.Len(t, out, 2)
}

func TestSimpleWaypointItemRoundTrip(t *testing.T) {
	c := NewSimple()
	item := WaypointItem{Seq: 3, Frame: 0, Command: 16, Current: 0, Autocontinue: 1, Lat: 1.5, Lon: -2.5, Alt: 30}
	wire, err := c.Encode(NewWaypointItem(1, 1, item, nil))
	require.NoError(t, err)

	out := c.Feed(wire)
	require.Len(t, out, 1)

	got := out[0].(*WaypointItem)
	require.Equal(t, uint16(3), got.Seq)
	require.InDelta(t, 1.5, got.Lat, 1e-6)
	require.InDelta(t, -2.5, got.Lon, 1e-6)
}
