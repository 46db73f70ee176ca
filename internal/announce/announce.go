// Package announce is the operator-facing notification path used by
// nearly every handler: heartbeat online, link delay/recovery, wrap
// detection, battery warnings, GPS lock, waypoint completion and so on
// all go through an Announcer instead of a bare fmt.Println, so every
// announcement is simultaneously logged, printed to the console, and
// (optionally) spoken.
//
// Text-to-speech is explicitly out of scope; Speaker is the narrow
// interface a real TTS backend would implement, with a no-op default.
package announce

import (
	"github.com/nabbar/gcproxy/internal/console"
	"github.com/nabbar/gcproxy/internal/telemetry"
)

// Speaker is the out-of-scope text-to-speech collaborator.
type Speaker interface {
	Say(text string)
}

type noopSpeaker struct{}

func (noopSpeaker) Say(string) {}

// NoopSpeaker is a Speaker that does nothing, the default when
// --speech is not set.
func NoopSpeaker() Speaker { return noopSpeaker{} }

// Announcer fans an operator-facing message out to the structured
// logger, the console, and (when enabled) the Speaker.
type Announcer struct {
	log    telemetry.Logger
	speak  Speaker
	enable bool
}

func New(log telemetry.Logger, speak Speaker) *Announcer {
	if speak == nil {
		speak = NoopSpeaker()
	}
	return &Announcer{log: log, speak: speak}
}

// SetSpeech toggles whether Announce also invokes the Speaker,
// mirroring the `speech` Setting.
func (a *Announcer) SetSpeech(enabled bool) { a.enable = enabled }

// Announce prints and logs message, and speaks it if speech is on.
func (a *Announcer) Announce(message string, fields telemetry.Fields) {
	console.Printf("%s", message)
	a.log.Info(message, fields)
	if a.enable {
		a.speak.Say(message)
	}
}

// Warn is Announce's warning-severity counterpart, used for link
// errors, bad-data floods and similar degraded conditions.
func (a *Announcer) Warn(message string, fields telemetry.Fields) {
	console.Warningf("%s", message)
	a.log.Warning(message, fields)
}

// Print writes a plain console + debug-log line without the full
// announce treatment (e.g. "got unknown" messages, STATUSTEXT relay).
func (a *Announcer) Print(message string, fields telemetry.Fields) {
	console.Printf("%s", message)
	a.log.Debug(message, fields)
}
