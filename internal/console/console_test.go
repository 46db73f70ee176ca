package console

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReaderDeliversLinesAndClosesOnEOF(t *testing.T) {
	rd := NewReader(strings.NewReader("wp load foo.txt\nstatus\n"))

	go rd.Run()

	got := []string{}
	for line := range rd.Lines() {
		got = append(got, line)
	}

	require.Equal(t, []string{"wp load foo.txt", "status"}, got)
}

func TestFormatBool(t *testing.T) {
	require.Equal(t, "1", FormatBool(true))
	require.Equal(t, "0", FormatBool(false))
}
