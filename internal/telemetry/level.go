// Package telemetry provides the structured logger used throughout the
// proxy: operator announcements, link diagnostics and periodic reports
// all flow through here instead of bare fmt.Println calls.
package telemetry

import "github.com/sirupsen/logrus"

// Level mirrors logrus' severity ordering so a Level can be compared
// numerically (lower is more severe) without importing logrus outside
// this package.
type Level uint8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
	NilLevel
)

func (l Level) Int() int { return int(l) }

func (l Level) logrus() logrus.Level {
	switch l {
	case PanicLevel:
		return logrus.PanicLevel
	case FatalLevel:
		return logrus.FatalLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case WarnLevel:
		return logrus.WarnLevel
	case InfoLevel:
		return logrus.InfoLevel
	case DebugLevel:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}
