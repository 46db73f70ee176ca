package link

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestLink(num int) *Link {
	return &Link{Num: num}
}

func TestCurrentMasterPrefersNormalizedPreferred(t *testing.T) {
	a, b := newTestLink(0), newTestLink(1)
	s := NewSet([]*Link{a, b}, 2)
	require.Same(t, b, s.CurrentMaster())
}

func TestCurrentMasterNormalizesOutOfRangePreferred(t *testing.T) {
	a, b := newTestLink(0), newTestLink(1)
	s := NewSet([]*Link{a, b}, 7)
	require.Equal(t, 1, s.Preferred())
	require.Same(t, a, s.CurrentMaster())
}

func TestCurrentMasterFailsOverToFirstHealthy(t *testing.T) {
	a, b, c := newTestLink(0), newTestLink(1), newTestLink(2)
	s := NewSet([]*Link{a, b, c}, 1)
	a.SetErrored(true)
	require.Same(t, b, s.CurrentMaster())
}

func TestCurrentMasterReturnsPreferredWhenAllErrored(t *testing.T) {
	a, b := newTestLink(0), newTestLink(1)
	s := NewSet([]*Link{a, b}, 2)
	a.SetErrored(true)
	b.SetErrored(true)
	require.Same(t, b, s.CurrentMaster())
}

func TestObserveMarksDelayedThenRecovers(t *testing.T) {
	a, b := newTestLink(0), newTestLink(1)
	s := NewSet([]*Link{a, b}, 1)

	s.Observe(a, 10_000_000)
	s.Observe(b, 10_000_000)
	require.False(t, b.Delayed())

	// a races ahead of the fleet high-water mark.
	s.Observe(a, 12_000_000)
	require.False(t, b.Delayed()) // b hasn't reported in yet; its own status is unevaluated until it does

	// b reports in still behind by more than the 1s onset threshold.
	_, delay := s.Observe(b, 10_000_000)
	require.Equal(t, DelayOnset, delay)
	require.True(t, b.Delayed())

	// b catches within the recovery margin of the fleet high-water mark.
	_, delay = s.Observe(b, 11_600_000)
	require.Equal(t, DelayRecovered, delay)
	require.False(t, b.Delayed())
}

func TestObserveDetectsWrapAndResetsAllLinks(t *testing.T) {
	a, b := newTestLink(0), newTestLink(1)
	s := NewSet([]*Link{a, b}, 1)

	s.Observe(a, 100_000_000)
	s.Observe(a, 110_000_000)
	require.Equal(t, uint64(110_000_000), a.HighestUsec)

	// A usec value far behind the high-water mark means the far end
	// rebooted its clock, not that time ran backwards.
	wrapped, _ := s.Observe(a, 1_000_000)
	require.True(t, wrapped)
	require.Equal(t, uint64(1_000_000), a.HighestUsec)
	require.False(t, b.Delayed())
}
