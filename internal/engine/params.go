package engine

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"github.com/nabbar/gcproxy/internal/codec"
	"github.com/nabbar/gcproxy/internal/param"
	"github.com/nabbar/gcproxy/internal/telemetry"
)

// paramSetAsync fires a param_set request  without blocking the engine loop, since it is
// called from message-dispatch paths like the radiosetup RC audit.
func (e *Engine) paramSetAsync(name string, value float32) {
	master := e.links.CurrentMaster()
	if master == nil {
		return
	}
	sys, comp := e.status.TargetSystem()
	if sys < 0 {
		return
	}

	send := func() error {
		msg := codec.NewParamSet(e.cfg.SourceSystem, e.cfg.TargetComponent, uint8(sys), uint8(comp), name, value)
		return master.Send(msg)
	}

	go func() {
		if v, ok, err := param.Set(e.params, send, name); err == nil && ok {
			e.ann.Announce("parameter updated", telemetry.Fields{"name": name, "value": v})
		}
	}()
}

// pendingParamSnapshotPath reports the mav.parm path under the active
// log directory, if one exists : "if a log directory
// exists, snapshot the full parameter table to mav.parm" fires on
// every bulk-fetch completion, not just the first, so the path is
// sticky rather than consumed.
func (e *Engine) pendingParamSnapshotPath() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.paramSnapshotPath
	return p, p != ""
}

// QueueParamSnapshot records the mav.parm path the PARAM_VALUE handler
// snapshots to on every bulk-fetch completion, set once at startup
// when `--aircraft` resolves a log directory.
func (e *Engine) QueueParamSnapshot(path string) {
	e.mu.Lock()
	e.paramSnapshotPath = path
	e.mu.Unlock()
}

// SnapshotParams writes every known parameter to path in the same
// `name value` line format `param load` reads back
// mav.parm file.
func (e *Engine) SnapshotParams(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	all := e.params.All()
	names := make([]string, 0, len(all))
	for n := range all {
		names = append(names, n)
	}
	sort.Strings(names)

	w := bufio.NewWriter(f)
	for _, n := range names {
		if _, err := fmt.Fprintf(w, "%s %g\n", n, all[n]); err != nil {
			return err
		}
	}
	return w.Flush()
}
