package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveAircraftPathsPicksSmallestUnusedFlightIndex(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	parsed, raw, parm, err := ResolveAircraftPaths(dir, "mav.log", now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "logs", "2026-07-31", "flight001", "mav.log"), parsed)
	require.Equal(t, parsed+".raw", raw)
	require.Equal(t, filepath.Join(dir, "logs", "2026-07-31", "flight001", "mav.parm"), parm)

	// flight001 now exists: the next resolution should pick flight002.
	parsed2, _, _, err := ResolveAircraftPaths(dir, "mav.log", now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "logs", "2026-07-31", "flight002", "mav.log"), parsed2)
}
