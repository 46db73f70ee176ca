package telemetry

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.SetLevel(WarnLevel)

	l.Info("should not appear", nil)
	require.Empty(t, buf.String())

	l.Warning("should appear", Fields{"link": 1})
	require.Contains(t, buf.String(), "should appear")
	require.Contains(t, buf.String(), "link=1")
}

func TestWithFieldsMerges(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf).WithFields(Fields{"component": "engine"})

	l.Error("boom", Fields{"link": 2})

	out := buf.String()
	require.True(t, strings.Contains(out, "component=engine"))
	require.True(t, strings.Contains(out, "link=2"))
}
