package waypoint

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nabbar/gcproxy/internal/codec"
	"github.com/nabbar/gcproxy/internal/xerr"
)

const fileHeader = "QGC WPL 110"

// ParseFile reads a QGC WPL 110-dialect waypoint file: a header line
// followed by one tab-separated record per waypoint:
//
//	seq current frame command p1 p2 p3 p4 lat lon alt autocontinue
func ParseFile(r io.Reader) ([]codec.WaypointItem, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		return nil, xerr.Parse(sc.Err(), "empty waypoint file")
	}
	if !strings.HasPrefix(strings.TrimSpace(sc.Text()), "QGC WPL") {
		return nil, xerr.Parse(nil, "missing %q header", fileHeader)
	}

	var items []codec.WaypointItem
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 12 {
			fields = strings.Fields(line)
		}
		if len(fields) < 12 {
			return nil, xerr.Parse(nil, "malformed waypoint line %q", line)
		}

		wp, err := parseFields(fields)
		if err != nil {
			return nil, xerr.Parse(err, "waypoint line %q", line)
		}
		items = append(items, wp)
	}
	if err := sc.Err(); err != nil {
		return nil, xerr.Parse(err, "reading waypoint file")
	}
	return items, nil
}

func parseFields(f []string) (codec.WaypointItem, error) {
	seq, err := strconv.Atoi(f[0])
	if err != nil {
		return codec.WaypointItem{}, err
	}
	current, err := strconv.Atoi(f[1])
	if err != nil {
		return codec.WaypointItem{}, err
	}
	frame, err := strconv.Atoi(f[2])
	if err != nil {
		return codec.WaypointItem{}, err
	}
	command, err := strconv.Atoi(f[3])
	if err != nil {
		return codec.WaypointItem{}, err
	}

	var p [4]float32
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(f[4+i], 32)
		if err != nil {
			return codec.WaypointItem{}, err
		}
		p[i] = float32(v)
	}

	lat, err := strconv.ParseFloat(f[8], 32)
	if err != nil {
		return codec.WaypointItem{}, err
	}
	lon, err := strconv.ParseFloat(f[9], 32)
	if err != nil {
		return codec.WaypointItem{}, err
	}
	alt, err := strconv.ParseFloat(f[10], 32)
	if err != nil {
		return codec.WaypointItem{}, err
	}
	autocontinue, err := strconv.Atoi(f[11])
	if err != nil {
		return codec.WaypointItem{}, err
	}

	return codec.WaypointItem{
		Seq:          uint16(seq),
		Current:      uint8(current),
		Frame:        uint8(frame),
		Command:      uint16(command),
		Param:        p,
		Lat:          float32(lat),
		Lon:          float32(lon),
		Alt:          float32(alt),
		Autocontinue: uint8(autocontinue),
	}, nil
}

// WriteFile renders items in the same dialect ParseFile reads.
func WriteFile(w io.Writer, items []codec.WaypointItem) error {
	if _, err := fmt.Fprintln(w, fileHeader); err != nil {
		return err
	}
	for _, wp := range items {
		_, err := fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%g\t%g\t%g\t%g\t%g\t%g\t%g\t%d\n",
			wp.Seq, wp.Current, wp.Frame, wp.Command,
			wp.Param[0], wp.Param[1], wp.Param[2], wp.Param[3],
			wp.Lat, wp.Lon, wp.Alt, wp.Autocontinue)
		if err != nil {
			return err
		}
	}
	return nil
}
