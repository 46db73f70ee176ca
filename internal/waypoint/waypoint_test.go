package waypoint

import (
	"strings"
	"testing"
	"time"

	"github.com/nabbar/gcproxy/internal/codec"
	"github.com/stretchr/testify/require"
)

func TestParseFileRoundTripsThroughWriteFile(t *testing.T) {
	const src = "QGC WPL 110\n0\t1\t0\t16\t0\t0\t0\t0\t47.1\t8.5\t50\t1\n1\t0\t3\t16\t0\t0\t0\t0\t47.2\t8.6\t60\t1\n"

	items, err := ParseFile(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, uint8(1), items[0].Current)
	require.InDelta(t, 47.1, items[0].Lat, 1e-4)

	var out strings.Builder
	require.NoError(t, WriteFile(&out, items))

	again, err := ParseFile(strings.NewReader(out.String()))
	require.NoError(t, err)
	require.Len(t, again, 2)
	require.InDelta(t, items[1].Lon, again[1].Lon, 1e-4)
}

func TestParseFileRejectsMissingHeader(t *testing.T) {
	_, err := ParseFile(strings.NewReader("0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\n"))
	require.Error(t, err)
}

func TestLoaderAppendDownloadedOrderingRules(t *testing.T) {
	l := NewLoader()
	l.StartDownload(OpList, "")
	l.SetExpectedCount(2)

	appended, unexpected, done := l.AppendDownloaded(codec.WaypointItem{Seq: 0})
	require.True(t, appended)
	require.False(t, unexpected)
	require.False(t, done)

	// Duplicate (seq < count()) is ignored.
	appended, unexpected, _ = l.AppendDownloaded(codec.WaypointItem{Seq: 0})
	require.False(t, appended)
	require.False(t, unexpected)

	appended, unexpected, done = l.AppendDownloaded(codec.WaypointItem{Seq: 1})
	require.True(t, appended)
	require.False(t, unexpected)
	require.True(t, done)
	require.Equal(t, OpNone, l.Op())
}

func TestLoaderAppendDownloadedFlagsUnexpectedSeq(t *testing.T) {
	l := NewLoader()
	l.StartDownload(OpList, "")
	l.SetExpectedCount(5)

	_, unexpected, _ := l.AppendDownloaded(codec.WaypointItem{Seq: 3})
	require.True(t, unexpected)
	require.Equal(t, 0, l.Count())
}

func TestStartUploadRefusesEmptyList(t *testing.T) {
	l := NewLoader()
	started := l.StartUpload(nil, 1, 1, time.Now())
	require.False(t, started)
	require.Equal(t, Idle, l.State())
}

func TestServiceRequestCompletesOnLastSeq(t *testing.T) {
	l := NewLoader()
	now := time.Now()
	require.True(t, l.StartUpload([]codec.WaypointItem{{Seq: 0}, {Seq: 1}}, 1, 1, now))

	_, ok, done, timedOut := l.ServiceRequest(0, now.Add(time.Second))
	require.True(t, ok)
	require.False(t, done)
	require.False(t, timedOut)

	_, ok, done, timedOut = l.ServiceRequest(1, now.Add(2*time.Second))
	require.True(t, ok)
	require.True(t, done)
	require.False(t, timedOut)
	require.Equal(t, Idle, l.State())
}

func TestServiceRequestTimesOutAfterTenSecondsOfInactivity(t *testing.T) {
	l := NewLoader()
	now := time.Now()
	l.StartUpload([]codec.WaypointItem{{Seq: 0}, {Seq: 1}}, 1, 1, now)

	_, ok, _, timedOut := l.ServiceRequest(0, now.Add(11*time.Second))
	require.False(t, ok)
	require.True(t, timedOut)
	require.Equal(t, Idle, l.State())
}
