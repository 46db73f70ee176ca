// Package engine implements the Protocol Engine: its
// event loop, per-message dispatch table, the link-delay state
// machine's consumer side, PWM/axis mapping, altitude announcement,
// and the parameter-set/waypoint protocol glue.
//
// The main loop runs a single-threaded poll-style cycle adapted to
// Go's idiomatic select over channels (see internal/transport's
// package doc) instead of a literal poll(2) with a 1ms timeout.
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nabbar/gcproxy/internal/announce"
	"github.com/nabbar/gcproxy/internal/battery"
	"github.com/nabbar/gcproxy/internal/journal"
	"github.com/nabbar/gcproxy/internal/link"
	"github.com/nabbar/gcproxy/internal/metrics"
	"github.com/nabbar/gcproxy/internal/param"
	"github.com/nabbar/gcproxy/internal/scheduler"
	"github.com/nabbar/gcproxy/internal/status"
	"github.com/nabbar/gcproxy/internal/telemetry"
	"github.com/nabbar/gcproxy/internal/transport"
	"github.com/nabbar/gcproxy/internal/waypoint"
)

// Config bundles the engine's startup parameters: one field per CLI
// flag the engine itself (not the CLI layer) needs to carry.
type Config struct {
	SourceSystem    uint8
	TargetComponent uint8
	Preferred       int // 1-based
	NumCells        int
	ShowErrors      bool
	Speech          bool
	StreamRateHz    int
}

// Engine is the process's single Protocol Engine. It exclusively owns
// Links, Outputs, the override vector, status, the parameter table,
// and the waypoint loader.
type Engine struct {
	cfg Config

	links *link.Set

	outputs []transport.Transport
	sitl    transport.Transport // optional SITL raw-override sink

	journal  *journal.Journal
	status   *status.Mirror
	settings *status.Settings
	params   *param.Table
	wp       *waypoint.Loader
	sched    *scheduler.Scheduler
	met      *metrics.Metrics

	log telemetry.Logger
	ann *announce.Announcer

	mu              sync.Mutex
	override        [8]uint16
	heartbeatErr    bool
	lastHeartbeat   time.Time
	basealtitude    float64
	haveBaseAlt     bool
	lastAnnouncedAlt float64
	gpsFix          bool
	battSmooth      battery.Smoother
	control         controlMirror
	paramSnapshotPath string
	pendingDownloadOp waypoint.Op

	reopen []func() (transport.Transport, error)

	exit atomic.Bool

	inputLines <-chan string
}

// SetReopeners records, per link (indexed by link_num), the dial
// closure the `reset` operator command uses to reopen a
// Transport : only the CLI layer that originally parsed a
// `--master` URI knows how to reconstruct it.
func (e *Engine) SetReopeners(reopen []func() (transport.Transport, error)) {
	e.reopen = reopen
}

// New wires every collaborator into a ready-to-Run Engine.
func New(
	cfg Config,
	links *link.Set,
	outputs []transport.Transport,
	sitl transport.Transport,
	j *journal.Journal,
	mirror *status.Mirror,
	settings *status.Settings,
	params *param.Table,
	wp *waypoint.Loader,
	met *metrics.Metrics,
	log telemetry.Logger,
	ann *announce.Announcer,
	inputLines <-chan string,
) *Engine {
	e := &Engine{
		cfg:        cfg,
		links:      links,
		outputs:    outputs,
		sitl:       sitl,
		journal:    j,
		status:     mirror,
		settings:   settings,
		params:     params,
		wp:         wp,
		met:        met,
		log:        log,
		ann:        ann,
		inputLines: inputLines,
	}

	overrideHz := 1.0
	if sitl != nil {
		overrideHz = 50.0
	}
	e.sched = scheduler.New(scheduler.Handlers{
		Heartbeat:      e.onHeartbeatTrigger,
		HeartbeatCheck: e.onHeartbeatCheckTrigger,
		StreamRate:     e.onStreamRateTrigger,
		Battery:        e.onBatteryTrigger,
		Override:       e.onOverrideTrigger,
		StatusSnapshot: func(time.Time) {},
	}, overrideHz)

	return e
}

// Stop requests the main loop to exit at the top of its next
// iteration.
func (e *Engine) Stop() { e.exit.Store(true) }

// Run is main loop, adapted to select() over channels:
//  1. drain one operator line if present
//  2. (folded into the select below: every Transport signals Ready
//     via a channel regardless of whether the OS exposes a pollable
//     fd, so there is no separate "no readiness handle" branch)
//  3. run the Periodic Scheduler
//  4. service whichever Link or Output signaled readiness
func (e *Engine) Run() {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for !e.exit.Load() {
		select {
		case line, ok := <-e.inputLines:
			if !ok {
				e.exit.Store(true)
				continue
			}
			e.handleOperatorLine(line)
		default:
		}

		e.sched.Tick(time.Now(), e.status.SetupMode(), firstOrMinusOne(e.status))

		fired := false
		for _, l := range e.links.Links() {
			select {
			case <-l.Ready():
				e.processLink(l)
				fired = true
			default:
			}
		}
		for _, o := range e.outputs {
			select {
			case <-o.Ready():
				e.processOutput(o)
				fired = true
			default:
			}
		}
		if !fired {
			<-ticker.C
		}
	}
}

func firstOrMinusOne(m *status.Mirror) int {
	sys, _ := m.TargetSystem()
	return sys
}

// processLink is process_link(link).
func (e *Engine) processLink(l *link.Link) {
	raw, err := l.Recv()
	if err != nil || len(raw) == 0 {
		return
	}

	e.journal.EnqueueRaw(journal.Record{Usec: uint64(time.Now().UnixMicro()), LinkNum: l.Num, Raw: raw})

	if e.status.SetupMode() {
		e.ann.Print(string(raw), nil)
		return
	}

	msgs := l.Codec.Feed(raw)
	for _, msg := range msgs {
		e.onMessage(l, msg)
	}
}

// processOutput handles a frame arriving on an Output link, for
// back-propagation to the current master.
func (e *Engine) processOutput(o transport.Transport) {
	raw, err := o.Recv()
	if err != nil || len(raw) == 0 {
		return
	}
	if master := e.links.CurrentMaster(); master != nil {
		_ = master.Transport.Send(raw)
	}
}
