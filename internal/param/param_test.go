package param

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTableUpdateCompletesWhenHighestIndexReachesCount(t *testing.T) {
	tbl := NewTable()
	require.False(t, tbl.Update("RC1_MIN", 1000, 0, 3))
	require.False(t, tbl.Update("RC1_MAX", 2000, 1, 3))
	require.True(t, tbl.Update("RC1_TRIM", 1500, 2, 3))
}

// Completion follows the arriving message's own index: the last index
// completes the fetch even when it arrives first, and the earlier
// indices arriving afterwards do not report completion again.
func TestTableUpdateHandlesOutOfOrderArrival(t *testing.T) {
	tbl := NewTable()
	require.True(t, tbl.Update("C", 0, 2, 3))
	require.False(t, tbl.Update("A", 0, 0, 3))
	require.False(t, tbl.Update("B", 0, 1, 3))
}

func TestSetSucceedsWhenValueArrivesBeforeTimeout(t *testing.T) {
	tbl := NewTable()
	sends := 0
	send := func() error {
		sends++
		go func() {
			time.Sleep(20 * time.Millisecond)
			tbl.Update("TRIM_PITCH_CD", 123, 0, 1)
		}()
		return nil
	}

	v, ok, err := Set(tbl, send, "TRIM_PITCH_CD")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, float32(123), v)
	require.Equal(t, 1, sends)
}

func TestSetRetriesThenTimesOut(t *testing.T) {
	tbl := NewTable()
	sends := 0
	send := func() error {
		sends++
		return nil
	}

	_, ok, err := Set(tbl, send, "NEVER_ARRIVES")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 3, sends)
}

func TestSetPropagatesSendError(t *testing.T) {
	tbl := NewTable()
	send := func() error { return errors.New("transport down") }

	_, ok, err := Set(tbl, send, "X")
	require.Error(t, err)
	require.False(t, ok)
}
