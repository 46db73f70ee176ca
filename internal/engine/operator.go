package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nabbar/gcproxy/internal/codec"
	"github.com/nabbar/gcproxy/internal/link"
	"github.com/nabbar/gcproxy/internal/telemetry"
	"github.com/nabbar/gcproxy/internal/waypoint"
)

// MAV_ACTION codes used by the flight-mode commands,
// ported from original_source/mavproxy.py's cmd_auto/cmd_loiter/
// cmd_rtl/cmd_manual/cmd_ground (inline numeric constants there, not a
// named enum).
const (
	actionReturn        = 3
	actionSetManual     = 12
	actionSetAuto       = 13
	actionLoiter        = 27
	actionCalibrateGyro = 17 // "ground start" in original_source's cmd_ground
	actionStorageWrite  = 15 // `param store`
)

// switchPWM is cmd_switch's mapping table: index 0 disables
// (caller clears the override instead of sending mapping[0]).
var switchPWM = [7]uint16{0, 1165, 1295, 1425, 1555, 1685, 1815}

const switchChannel = 5 // RC5 carries the flight-mode switch

type operatorCommand struct {
	help string
	fn   func(e *Engine, args []string)
}

var operatorCommands map[string]operatorCommand

func init() {
	operatorCommands = map[string]operatorCommand{
		"switch": {"set RC switch (0-6), 0 disables", (*Engine).cmdSwitch},
		"rc":     {"override a RC channel value", (*Engine).cmdRC},
		"wp":     {"waypoint management", (*Engine).cmdWP},
		"param":  {"manage vehicle parameters", (*Engine).cmdParam},
		"setup":  {"go into setup mode", (*Engine).cmdSetup},
		"reset":  {"reopen the connection to the current master", (*Engine).cmdReset},
		"status": {"show status", (*Engine).cmdStatus},
		"trim":   {"trim aileron, elevator and rudder to current values", (*Engine).cmdTrim},
		"auto":   {"set AUTO mode", (*Engine).cmdAuto},
		"ground":  {"do a ground start", (*Engine).cmdGround},
		"loiter":  {"set LOITER mode", (*Engine).cmdLoiter},
		"rtl":     {"set RTL mode", (*Engine).cmdRTL},
		"manual":  {"set MANUAL mode", (*Engine).cmdManual},
		"set":     {"mavproxy-style settings", (*Engine).cmdSet},
		"bat":     {"show battery levels", (*Engine).cmdBat},
		"link":    {"show link status", (*Engine).cmdLink},
		"up":      {"adjust TRIM_PITCH_CD up by 5 degrees", (*Engine).cmdUp},
		"help":    {"show this command list", (*Engine).cmdHelp},
	}
}

// handleOperatorLine is the engine-side half of the Operator Command
// Surface : in setup mode, every line except the literal
// "." is written verbatim (with a trailing \r) to the current
// master; "." exits setup mode. Otherwise the first word selects a
// handler from operatorCommands, matching process_stdin/command_map.
func (e *Engine) handleOperatorLine(line string) {
	if e.status.SetupMode() {
		if line == "." {
			e.status.SetSetupMode(false)
			e.ann.Print("leaving setup mode", nil)
			return
		}
		// Setup mode addresses the preferred link itself, without
		// failover, since the operator is talking to that device.
		if links := e.links.Links(); len(links) > 0 {
			_ = links[e.links.Preferred()-1].Transport.Send([]byte(line + "\r"))
		}
		return
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	cmd, ok := operatorCommands[fields[0]]
	if !ok {
		e.ann.Print(fmt.Sprintf("Unknown command %q", fields[0]), nil)
		return
	}
	cmd.fn(e, fields[1:])
}

func (e *Engine) cmdHelp(args []string) {
	names := make([]string, 0, len(operatorCommands))
	for n := range operatorCommands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		e.ann.Print(fmt.Sprintf("%-8s %s", n, operatorCommands[n].help), nil)
	}
}

func (e *Engine) cmdSetup(args []string) {
	e.status.SetSetupMode(true)
}

func (e *Engine) cmdReset(args []string) {
	master := e.links.CurrentMaster()
	if master == nil {
		e.ann.Warn("no master to reset", nil)
		return
	}
	if e.reopen == nil || master.Num >= len(e.reopen) || e.reopen[master.Num] == nil {
		e.ann.Warn("no reopener registered for this link", telemetry.Fields{"link": master.Num})
		return
	}
	e.ann.Print("Resetting master", nil)
	if err := master.Reset(e.reopen[master.Num]); err != nil {
		e.ann.Warn("reset failed", telemetry.Fields{"link": master.Num, "error": err.Error()})
	}
}

func (e *Engine) cmdLink(args []string) {
	high := e.links.HighestUsec()
	for _, l := range e.links.Links() {
		switch {
		case l.Errored():
			e.ann.Print(fmt.Sprintf("link %d down", l.Num+1), nil)
		case l.Delayed():
			delay := float64(high-l.HighestUsec) * 1e-6
			e.ann.Print(fmt.Sprintf("link %d delayed by %.2f seconds", l.Num+1, delay), nil)
		default:
			delay := float64(high-l.HighestUsec) * 1e-6
			e.ann.Print(fmt.Sprintf("link %d OK (%d packets, %.2fs delay)", l.Num+1, l.MasterIn, delay), nil)
		}
	}
}

func (e *Engine) cmdBat(args []string) {
	flight, _ := e.status.FlightBattery()
	e.ann.Print(fmt.Sprintf("Flight battery:   %d%%", int(flight+0.5)), nil)
	if avionics, _, ok := e.status.AvionicsBattery(); ok {
		e.ann.Print(fmt.Sprintf("Avionics battery: %d%%", int(avionics+0.5)), nil)
	}
}

func (e *Engine) cmdStatus(args []string) {
	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}
	for _, pattern := range patterns {
		e.status.WalkTypes(func(name string, last codec.Message, count int) {
			if ok, _ := filepath.Match(strings.ToUpper(pattern), strings.ToUpper(name)); ok {
				e.ann.Print(fmt.Sprintf("%-24s %d", name, count), nil)
			}
		})
	}
}

func (e *Engine) cmdSet(args []string) {
	switch len(args) {
	case 0:
		for _, name := range e.settings.Names() {
			v, _ := e.settings.Get(name)
			e.ann.Print(fmt.Sprintf("%-16s %d", name, v), nil)
		}
	case 1:
		v, ok := e.settings.Get(args[0])
		if !ok {
			e.ann.Warn(fmt.Sprintf("Unknown setting %q", args[0]), nil)
			return
		}
		e.ann.Print(fmt.Sprintf("%s=%d", args[0], v), nil)
	default:
		v, err := strconv.Atoi(args[1])
		if err != nil {
			e.ann.Warn(fmt.Sprintf("invalid value %q", args[1]), nil)
			return
		}
		if err := e.settings.Set(args[0], v); err != nil {
			e.ann.Warn(err.Error(), nil)
			return
		}
		if args[0] == "speech" {
			e.ann.SetSpeech(v != 0)
		}
	}
}

func (e *Engine) cmdSwitch(args []string) {
	if len(args) != 1 {
		e.ann.Warn("Usage: switch <0-6>", nil)
		return
	}
	v, err := strconv.Atoi(args[0])
	if err != nil || v < 0 || v > 6 {
		e.ann.Warn("Invalid switch value. Use 1-6 for flight modes, '0' to disable", nil)
		return
	}
	e.mu.Lock()
	e.override[switchChannel-1] = switchPWM[v]
	e.mu.Unlock()
	if v == 0 {
		e.ann.Print("Disabled RC switch override", nil)
	} else {
		e.ann.Print(fmt.Sprintf("Set RC switch override to %d (PWM=%d)", v, switchPWM[v]), nil)
	}
}

func (e *Engine) cmdRC(args []string) {
	if len(args) != 2 {
		e.ann.Warn("Usage: rc <channel> <pwmvalue>", nil)
		return
	}
	ch, err1 := strconv.Atoi(args[0])
	val, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil || ch < 1 || ch > 8 {
		e.ann.Warn("Channel must be between 1 and 8", nil)
		return
	}
	if val == -1 {
		val = 0xFFFF
	}
	e.mu.Lock()
	e.override[ch-1] = uint16(val)
	e.mu.Unlock()
}

func (e *Engine) cmdTrim(args []string) {
	e.mu.Lock()
	cm := e.control
	e.mu.Unlock()

	e.paramSetAsync("TRIM_ROLL_CD", float32(cm.Aileron*4500))
	e.paramSetAsync("TRIM_PITCH_CD", float32(cm.Elevator*4500))
	e.paramSetAsync("TRIM_YAW_CD", float32(cm.Rudder*4500))
	e.ann.Print("Trimmed to current control positions", nil)
}

func (e *Engine) cmdUp(args []string) {
	adjust := 5.0
	if len(args) > 0 {
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			e.ann.Warn(fmt.Sprintf("invalid degrees %q", args[0]), nil)
			return
		}
		adjust = v
	}
	oldTrim, ok := e.params.Get("TRIM_PITCH_CD")
	if !ok {
		e.ann.Warn("Existing trim value unknown!", nil)
		return
	}
	delta := adjust * 100
	if delta < 0 {
		delta = -delta
	}
	if delta > 1000 {
		e.ann.Warn(fmt.Sprintf("Adjustment by %d too large", int(adjust*100)), nil)
		return
	}
	newTrim := float64(oldTrim) + adjust*100
	e.ann.Print(fmt.Sprintf("Adjusting TRIM_PITCH_CD from %d to %d", int(oldTrim), int(newTrim)), nil)
	e.paramSetAsync("TRIM_PITCH_CD", float32(newTrim))
}

func (e *Engine) sendMode(action uint8) {
	sys, _ := e.status.TargetSystem()
	if sys < 0 {
		e.ann.Warn("no target system yet", nil)
		return
	}
	master := e.links.CurrentMaster()
	if master == nil {
		return
	}
	_ = master.Send(codec.NewSetMode(e.cfg.SourceSystem, e.cfg.TargetComponent, uint8(sys), action))
}

func (e *Engine) cmdAuto(args []string)   { e.sendMode(actionSetAuto) }
func (e *Engine) cmdLoiter(args []string) { e.sendMode(actionLoiter) }
func (e *Engine) cmdRTL(args []string)    { e.sendMode(actionReturn) }
func (e *Engine) cmdManual(args []string) { e.sendMode(actionSetManual) }

func (e *Engine) cmdGround(args []string) {
	e.sendMode(actionCalibrateGyro)
}

func (e *Engine) cmdWP(args []string) {
	if len(args) < 1 {
		e.ann.Warn("usage: wp <list|load|save|set|clear>", nil)
		return
	}
	sys, comp := e.status.TargetSystem()
	master := e.links.CurrentMaster()

	switch args[0] {
	case "load":
		if len(args) != 2 {
			e.ann.Warn("usage: wp load <filename>", nil)
			return
		}
		e.wpLoad(args[1], master, sys, comp)
	case "list":
		e.wp.StartDownload(waypoint.OpList, "")
		e.requestWaypointList(master, sys, comp)
	case "save":
		if len(args) != 2 {
			e.ann.Warn("usage: wp save <filename>", nil)
			return
		}
		e.wp.StartDownload(waypoint.OpSave, args[1])
		e.requestWaypointList(master, sys, comp)
	case "set":
		if len(args) != 2 {
			e.ann.Warn("usage: wp set <wpindex>", nil)
			return
		}
		seq, err := strconv.Atoi(args[1])
		if err != nil {
			e.ann.Warn(fmt.Sprintf("invalid waypoint index %q", args[1]), nil)
			return
		}
		if master != nil && sys >= 0 {
			_ = master.Send(codec.NewWaypointSetCurrent(e.cfg.SourceSystem, e.cfg.TargetComponent, uint8(sys), uint8(comp), uint16(seq)))
		}
	case "clear":
		e.wp.Clear()
		if master != nil && sys >= 0 {
			_ = master.Send(codec.NewWaypointClearAll(e.cfg.SourceSystem, e.cfg.TargetComponent, uint8(sys), uint8(comp)))
		}
	default:
		e.ann.Warn("Usage: wp <list|load|save|set|clear>", nil)
	}
}

// requestWaypointList triggers the download path: the vehicle answers
// with a WAYPOINT_COUNT/MISSION_COUNT, and the WAYPOINT_COUNT handler
// drives the rest , matching original_source's
// waypoint_request_list_send() call.
func (e *Engine) requestWaypointList(master *link.Link, sys, comp int) {
	if master == nil || sys < 0 {
		return
	}
	_ = master.Send(codec.NewWaypointRequestList(e.cfg.SourceSystem, e.cfg.TargetComponent, uint8(sys), uint8(comp)))
}

func (e *Engine) wpLoad(path string, master *link.Link, sys, comp int) {
	f, err := os.Open(path)
	if err != nil {
		e.ann.Warn(fmt.Sprintf("Unable to load %s - %v", path, err), nil)
		return
	}
	defer f.Close()

	items, err := waypoint.ParseFile(f)
	if err != nil {
		e.ann.Warn(fmt.Sprintf("Unable to load %s - %v", path, err), nil)
		return
	}
	e.ann.Print(fmt.Sprintf("Loaded %d waypoints from %s", len(items), path), nil)

	if sys < 0 || master == nil {
		e.ann.Warn("no target system yet, cannot upload", nil)
		return
	}
	_ = master.Send(codec.NewWaypointClearAll(e.cfg.SourceSystem, e.cfg.TargetComponent, uint8(sys), uint8(comp)))

	now := time.Now()
	if !e.wp.StartUpload(items, uint8(sys), uint8(comp), now) {
		return
	}
	e.status.SetLoadingWaypoints(true, now)
	_ = master.Send(codec.NewWaypointCountOut(e.cfg.SourceSystem, e.cfg.TargetComponent, uint8(sys), uint8(comp), uint16(len(items))))
}

func (e *Engine) cmdParam(args []string) {
	if len(args) < 1 {
		e.ann.Warn("usage: param <fetch|save|set|show|load|store>", nil)
		return
	}
	sys, comp := e.status.TargetSystem()
	master := e.links.CurrentMaster()

	switch args[0] {
	case "fetch":
		e.params.Reset()
		if master != nil && sys >= 0 {
			_ = master.Send(codec.NewParamRequestList(e.cfg.SourceSystem, e.cfg.TargetComponent, uint8(sys), uint8(comp)))
			e.ann.Print("Requested parameter list", nil)
		}
	case "save":
		if len(args) < 2 {
			e.ann.Warn("usage: param save <filename>", nil)
			return
		}
		if err := e.SnapshotParams(args[1]); err != nil {
			e.ann.Warn(fmt.Sprintf("Failed to save %s - %v", args[1], err), nil)
			return
		}
		e.ann.Print(fmt.Sprintf("Saved parameters to %s", args[1]), nil)
	case "set":
		if len(args) != 3 {
			e.ann.Warn("Usage: param set PARMNAME VALUE", nil)
			return
		}
		val, err := strconv.ParseFloat(args[2], 32)
		if err != nil {
			e.ann.Warn(fmt.Sprintf("invalid value %q", args[2]), nil)
			return
		}
		if _, ok := e.params.Get(args[1]); !ok {
			e.ann.Warn(fmt.Sprintf("Warning: Unable to find parameter '%s'", args[1]), nil)
		}
		e.paramSetAsync(args[1], float32(val))
	case "load":
		if len(args) < 2 {
			e.ann.Warn("Usage: param load <filename>", nil)
			return
		}
		e.paramLoadFile(args[1])
	case "show":
		pattern := "*"
		if len(args) > 1 {
			pattern = args[1]
		}
		e.paramShow(pattern)
	case "store":
		if master == nil || sys < 0 {
			e.ann.Warn("no target system yet", nil)
			return
		}
		_ = master.Send(codec.NewSetMode(e.cfg.SourceSystem, e.cfg.TargetComponent, uint8(sys), actionStorageWrite))
	default:
		e.ann.Warn(fmt.Sprintf("Unknown subcommand '%s' (try 'fetch', 'save', 'set', 'show', 'load' or 'store')", args[0]), nil)
	}
}

func (e *Engine) paramShow(pattern string) {
	all := e.params.All()
	names := make([]string, 0, len(all))
	for n := range all {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if ok, _ := filepath.Match(strings.ToUpper(pattern), strings.ToUpper(n)); ok {
			e.ann.Print(fmt.Sprintf("%-15s %g", n, all[n]), nil)
		}
	}
}

// paramLoadFile implements param_load_file: read name/value pairs and
// start an asynchronous param_set for each. Reading stops silently at
// the first entry that does not parse; the outcome of each set is not
// reported back here, so a failed set does not stop the others.
func (e *Engine) paramLoadFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		e.ann.Warn(fmt.Sprintf("Failed to open file '%s'", path), nil)
		return
	}
	defer f.Close()

	pairs, err := readParamFile(f)
	if err != nil {
		e.ann.Warn(fmt.Sprintf("error reading %s: %v", path, err), nil)
		return
	}
	for _, p := range pairs {
		e.paramSetAsync(p.name, p.value)
	}
	e.ann.Print(fmt.Sprintf("Loaded %d parameters from %s", len(pairs), path), nil)
}

type paramPair struct {
	name  string
	value float32
}

func readParamFile(f *os.File) ([]paramPair, error) {
	var out []paramPair
	var name string
	var val float64
	for {
		n, err := fmt.Fscan(f, &name, &val)
		if n == 0 {
			break
		}
		if err != nil {
			return out, nil
		}
		out = append(out, paramPair{name: name, value: float32(val)})
	}
	return out, nil
}
