// Package battery implements: the cell-voltage-to-percent
// curve, EMA smoothing, and the announcement rule.
package battery

import "sync"

const (
	inputVoltage = 4.68
	voltDivRatio = 3.56
	adcFullScale = 1024.0
)

// CellVoltage converts a 10-bit AP_ADC raw reading to per-cell voltage
// given numcells
func CellVoltage(raw uint16, numcells int) float64 {
	if numcells <= 0 {
		return 0
	}
	v := float64(raw) * (inputVoltage / adcFullScale) * voltDivRatio
	return v / float64(numcells)
}

// PercentFromCellVoltage applies the piecewise-linear curve, kept
// verbatim including the source's own unreachable-branch bug (Open
// Question (a), spec.md §9): the original's third test re-checks
// "vcell > 3.81" instead of "vcell > 3.20", which is always false by
// the time control reaches it (the vcell>=3.81 case above already
// claimed everything from 3.81 up), so the 3.20..3.81 branch never
// executes and every vcell below 3.81 falls through to 0. Do not "fix"
// this without confirmation — spec scenario 6 is built on it.
func PercentFromCellVoltage(vcell float64) float64 {
	switch {
	case vcell >= 4.1:
		return 100
	case vcell >= 3.81:
		return 17 + 83*(vcell-3.81)/(4.1-3.81)
	case vcell > 3.81: // unreachable: duplicate of the case above, per the source bug
		return 17 * (vcell - 3.20) / (3.81 - 3.20)
	default:
		return 0
	}
}

// Smoother applies EMA: (95*prev + 5*sample)/100,
// except on the first sample or a jump exceeding 70 percentage
// points, where it replaces outright.
type Smoother struct {
	mu      sync.Mutex
	have    bool
	current float64
}

func (s *Smoother) Observe(sample float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.have {
		s.current = sample
		s.have = true
		return s.current
	}

	jump := sample - s.current
	if jump < 0 {
		jump = -jump
	}
	if jump > 70 {
		s.current = sample
	} else {
		s.current = (95*s.current + 5*sample) / 100
	}
	return s.current
}

func (s *Smoother) Value() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Announcement decides whether a new flight-battery percent warrants
// an operator announcement : round to the nearest 10%, compare against lastAnnounce, and
// flag a warning at or below 20%.
func Announcement(percent, lastAnnounce float64) (rounded float64, changed, warning bool) {
	rounded = roundToNearest(percent, 10)
	changed = rounded != lastAnnounce
	warning = rounded <= 20
	return rounded, changed, warning
}

func roundToNearest(v, step float64) float64 {
	if v < 0 {
		return -roundToNearest(-v, step)
	}
	return float64(int(v/step+0.5)) * step
}
