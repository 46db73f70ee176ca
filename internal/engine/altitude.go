package engine

import (
	"math"

	"github.com/nabbar/gcproxy/internal/telemetry"
)

// announceAltitude implements: gated on a valid GPS fix;
// on the first valid VFR_HUD with alt != 0, adopt it as basealtitude
// and announce GPS lock; thereafter announce whenever the altitude
// has moved by at least `altreadout` since the last announcement,
// adopting a new floor if alt dips below basealtitude.
func (e *Engine) announceAltitude(alt float64) {
	e.mu.Lock()
	fix := e.gpsFix
	e.mu.Unlock()
	if !fix {
		return
	}
	if alt == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.haveBaseAlt {
		e.basealtitude = alt
		e.haveBaseAlt = true
		e.lastAnnouncedAlt = alt
		e.ann.Announce("GPS lock", telemetry.Fields{"meters": alt})
		return
	}

	if alt < e.basealtitude {
		e.basealtitude = alt
	}

	readout, ok := e.settings.Get("altreadout")
	if !ok || readout <= 0 {
		return
	}

	if math.Abs(alt-e.lastAnnouncedAlt) >= float64(readout) {
		rounded := math.Floor((alt-e.basealtitude+5)/float64(readout)) * float64(readout)
		e.lastAnnouncedAlt = alt
		e.status.SetLastAltitude(rounded)
		e.ann.Announce("altitude", telemetry.Fields{"meters": rounded})
	}
}
