package telemetry

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the structured-logging surface used by the rest of the
// module. It wraps a *logrus.Logger the way logger.Logger wraps one
// internally, but trims the interface down to what the proxy needs:
// leveled messages with structured Fields, plus an io.Writer escape
// hatch for components (setup-mode pass-through, raw journal mirror)
// that want to write bytes straight through at a fixed level.
type Logger interface {
	SetLevel(lvl Level)
	GetLevel() Level

	Debug(message string, fields Fields)
	Info(message string, fields Fields)
	Warning(message string, fields Fields)
	Error(message string, fields Fields)

	// WithFields returns a derived Logger whose entries always carry
	// the given fields merged underneath any per-call fields.
	WithFields(fields Fields) Logger

	io.Writer
}

type lgr struct {
	m   sync.RWMutex
	log *logrus.Logger
	lvl Level
	std Fields
}

// New returns a Logger writing to w (os.Stderr if w is nil) at InfoLevel.
func New(w io.Writer) Logger {
	l := logrus.New()
	if w != nil {
		l.SetOutput(w)
	}
	l.SetFormatter(defaultFormatter())

	g := &lgr{log: l}
	g.SetLevel(InfoLevel)

	return g
}

func defaultFormatter() logrus.Formatter {
	return &logrus.TextFormatter{
		ForceColors:     false,
		FullTimestamp:   true,
		DisableQuote:    false,
		PadLevelText:    true,
		QuoteEmptyFields: true,
	}
}

func (o *lgr) SetLevel(lvl Level) {
	o.m.Lock()
	defer o.m.Unlock()
	o.lvl = lvl
	o.log.SetLevel(lvl.logrus())
}

func (o *lgr) GetLevel() Level {
	o.m.RLock()
	defer o.m.RUnlock()
	return o.lvl
}

func (o *lgr) WithFields(fields Fields) Logger {
	o.m.RLock()
	defer o.m.RUnlock()
	return &lgr{log: o.log, lvl: o.lvl, std: o.std.Merge(fields)}
}

func (o *lgr) entry(fields Fields) *logrus.Entry {
	return o.log.WithFields(o.std.Merge(fields).logrus())
}

func (o *lgr) Debug(message string, fields Fields)   { o.entry(fields).Debug(message) }
func (o *lgr) Info(message string, fields Fields)    { o.entry(fields).Info(message) }
func (o *lgr) Warning(message string, fields Fields) { o.entry(fields).Warning(message) }
func (o *lgr) Error(message string, fields Fields)   { o.entry(fields).Error(message) }

// Write lets the logger stand in for a plain io.Writer (operator
// stdout mirroring, setup-mode pass-through) without every caller
// needing to build a Fields value.
func (o *lgr) Write(p []byte) (int, error) {
	o.entry(nil).Info(stripTrailingNewline(p))
	return len(p), nil
}

func stripTrailingNewline(p []byte) string {
	n := len(p)
	for n > 0 && (p[n-1] == '\n' || p[n-1] == '\r') {
		n--
	}
	return fmt.Sprintf("%s", p[:n])
}
