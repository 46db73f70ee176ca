package battery

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPercentFromCellVoltageCurve(t *testing.T) {
	require.Equal(t, 100.0, PercentFromCellVoltage(4.2))
	require.InDelta(t, 17.0, PercentFromCellVoltage(3.81), 1e-9)
	require.InDelta(t, 0.0, PercentFromCellVoltage(3.0), 1e-9)

	mid := PercentFromCellVoltage(3.955)
	require.InDelta(t, 58.5, mid, 0.5)
}

// TestPercentFromCellVoltageMidBandIsDeadCode pins the source's own
// unreachable-branch bug: anything below 3.81V falls straight
// through to 0, never the 3.20..3.81 linear segment.
func TestPercentFromCellVoltageMidBandIsDeadCode(t *testing.T) {
	require.Equal(t, 0.0, PercentFromCellVoltage(3.7964))
	require.Equal(t, 0.0, PercentFromCellVoltage(3.5))
	require.Equal(t, 0.0, PercentFromCellVoltage(3.21))
}

func TestSmootherReplacesOnFirstSampleAndBigJump(t *testing.T) {
	var s Smoother
	require.Equal(t, 80.0, s.Observe(80))

	// Small change: smoothed, not a straight jump to the sample.
	got := s.Observe(81)
	require.InDelta(t, 80.05, got, 1e-9)

	// Jump > 70 points: replace outright.
	got = s.Observe(5)
	require.Equal(t, 5.0, got)
}

func TestAnnouncementRoundsAndFlagsWarning(t *testing.T) {
	rounded, changed, warning := Announcement(17, 0)
	require.Equal(t, 20.0, rounded)
	require.True(t, changed)
	require.True(t, warning)

	rounded, changed, _ = Announcement(19, 20)
	require.Equal(t, 20.0, rounded)
	require.False(t, changed)

	_, _, warning = Announcement(55, 0)
	require.False(t, warning)
}

func TestCellVoltageZeroNumcells(t *testing.T) {
	require.Equal(t, 0.0, CellVoltage(512, 0))
}
