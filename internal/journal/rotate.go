package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nabbar/gcproxy/internal/xerr"
)

const maxFlightIndex = 9999

// ResolveAircraftPaths implements `--aircraft` log layout:
// logs live under "<aircraft>/logs/YYYY-MM-DD/flightNNN/", NNN the
// smallest unused integer >= 1, bailing if no index <= 9999 is free.
// logfile is the base name given to --logfile (default "mav.log");
// the returned parsed/raw paths sit inside the flight directory
// alongside a parameter-snapshot path named "mav.parm".
func ResolveAircraftPaths(aircraft, logfile string, now time.Time) (parsed, raw, paramSnapshot string, err error) {
	dayDir := filepath.Join(aircraft, "logs", now.Format("2006-01-02"))
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return "", "", "", xerr.Filesystem(err, "create log day directory %s", dayDir)
	}

	for n := 1; n <= maxFlightIndex; n++ {
		flightDir := filepath.Join(dayDir, fmt.Sprintf("flight%03d", n))
		if _, statErr := os.Stat(flightDir); os.IsNotExist(statErr) {
			if err := os.MkdirAll(flightDir, 0o755); err != nil {
				return "", "", "", xerr.Filesystem(err, "create flight directory %s", flightDir)
			}
			return filepath.Join(flightDir, logfile),
				filepath.Join(flightDir, logfile+".raw"),
				filepath.Join(flightDir, "mav.parm"),
				nil
		}
	}
	return "", "", "", xerr.Filesystem(nil, "no free flight index <= %d under %s", maxFlightIndex, dayDir)
}
