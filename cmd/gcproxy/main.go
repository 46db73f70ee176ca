// Command gcproxy runs the ground-control proxy: it multiplexes one
// or more vehicle links, journals every frame, fans telemetry out to
// UDP sinks, and drives an operator console on stdin/stdout.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/nabbar/gcproxy/internal/announce"
	"github.com/nabbar/gcproxy/internal/codec"
	"github.com/nabbar/gcproxy/internal/console"
	"github.com/nabbar/gcproxy/internal/engine"
	"github.com/nabbar/gcproxy/internal/journal"
	"github.com/nabbar/gcproxy/internal/link"
	"github.com/nabbar/gcproxy/internal/metrics"
	"github.com/nabbar/gcproxy/internal/param"
	"github.com/nabbar/gcproxy/internal/status"
	"github.com/nabbar/gcproxy/internal/telemetry"
	"github.com/nabbar/gcproxy/internal/transport"
	"github.com/nabbar/gcproxy/internal/waypoint"
	"github.com/nabbar/gcproxy/internal/xerr"
)

// gcsOwnComponent is the component ID this process stamps on every
// message it originates (MAV_COMP_ID_MISSIONPLANNER), distinct from
// the vehicle's own (target_system, target_component) identity.
const gcsOwnComponent = 190

type cliFlags struct {
	masters      []string
	outs         []string
	sitl         string
	logfile      string
	appendLog    bool
	aircraft     string
	streamrate   int
	sourceSystem int
	targetSystem int
	targetComp   int
	setup        bool
	nodtr        bool
	showErrors   bool
	speech       bool
	numCells     int
	mav10        bool
	baudrate     int
	metricsAddr  string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	f := &cliFlags{}
	cmd := &cobra.Command{
		Use:          "gcproxy",
		Short:        "Ground-control proxy that multiplexes vehicle links and exposes an operator console",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f)
		},
	}

	fl := cmd.Flags()
	fl.StringArrayVar(&f.masters, "master", nil, "vehicle link URI (tcp:host:port, host:port, a path.elf, or a serial device), repeatable")
	fl.StringArrayVar(&f.outs, "out", nil, "UDP address to mirror traffic to, repeatable")
	fl.StringVar(&f.sitl, "sitl", "", "UDP address of a SITL simulator receiving packed RC override values")
	fl.StringVar(&f.logfile, "logfile", "mav.log", "base name for the parsed/raw journal files")
	fl.BoolVar(&f.appendLog, "append-log", false, "append to existing journal files instead of truncating")
	fl.StringVar(&f.aircraft, "aircraft", "", "aircraft directory root; enables dated flightNNN log rotation")
	fl.IntVar(&f.streamrate, "streamrate", 4, "requested telemetry stream rate in Hz")
	fl.IntVar(&f.sourceSystem, "source-system", 255, "MAVLink system ID this process presents as")
	fl.IntVar(&f.targetSystem, "target-system", -1, "vehicle system ID to address (adopted from the first heartbeat if left at -1)")
	fl.IntVar(&f.targetComp, "target-component", -1, "vehicle component ID to address (adopted from the first heartbeat if left at -1)")
	fl.BoolVar(&f.setup, "setup", false, "start in setup (pass-through) mode")
	fl.BoolVar(&f.nodtr, "nodtr", false, "do not toggle DTR when closing a serial master")
	fl.BoolVar(&f.showErrors, "show-errors", false, "print undecodable frames instead of only counting them")
	fl.BoolVar(&f.speech, "speech", false, "speak announcements in addition to logging and printing them")
	fl.IntVar(&f.numCells, "num-cells", 0, "battery cell count for the cell-voltage percent curve (0 disables the cell-voltage battery reading)")
	fl.BoolVar(&f.mav10, "mav10", false, "select the 1.0 wire protocol instead of 0.9")
	fl.IntVar(&f.baudrate, "baudrate", 115200, "serial baud rate for masters that fall back to a serial device")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address if set")

	return cmd
}

func run(f *cliFlags) error {
	if len(f.masters) == 0 {
		return fmt.Errorf("at least one --master is required")
	}

	log := telemetry.New(os.Stdout)
	ann := announce.New(log, announce.NoopSpeaker())
	ann.SetSpeech(f.speech)

	met, reg := metrics.New()
	if f.metricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(f.metricsAddr, metrics.Handler(reg)); err != nil {
				log.Warning("metrics server stopped", telemetry.Fields{"error": err})
			}
		}()
	}

	links := make([]*link.Link, 0, len(f.masters))
	reopeners := make([]func() (transport.Transport, error), 0, len(f.masters))
	for i, uri := range f.masters {
		dial := masterDialer(uri, f.baudrate, !f.nodtr)
		t, err := dial()
		if err != nil {
			return xerr.Fatal(err, "open master %q", uri)
		}
		links = append(links, link.New(i, t, codec.NewSimple()))
		reopeners = append(reopeners, dial)
	}
	linkSet := link.NewSet(links, 1)

	outputs := make([]transport.Transport, 0, len(f.outs))
	for _, addr := range f.outs {
		o, err := transport.DialUDPSink(addr)
		if err != nil {
			return xerr.Fatal(err, "dial output %q", addr)
		}
		outputs = append(outputs, o)
	}

	var sitl transport.Transport
	if f.sitl != "" {
		s, err := transport.DialUDPSink(f.sitl)
		if err != nil {
			return xerr.Fatal(err, "dial SITL sink %q", f.sitl)
		}
		sitl = s
	}

	mirror := status.NewMirror()
	settings := status.NewSettings()
	if err := settings.Set("streamrate", f.streamrate); err != nil {
		return err
	}
	if f.numCells > 0 {
		if err := settings.Set("numcells", f.numCells); err != nil {
			return err
		}
	}
	if f.targetSystem >= 0 {
		mirror.AdoptTarget(f.targetSystem, f.targetComp)
	}
	if f.setup {
		mirror.SetSetupMode(true)
	}

	paramsTable := param.NewTable()
	wpLoader := waypoint.NewLoader()

	parsedPath, rawPath := f.logfile, f.logfile+".raw"
	var paramSnapshotPath string
	if f.aircraft != "" {
		p, r, snap, err := journal.ResolveAircraftPaths(f.aircraft, f.logfile, time.Now())
		if err != nil {
			return err
		}
		parsedPath, rawPath, paramSnapshotPath = p, r, snap
	}

	jrn, err := journal.Open(parsedPath, rawPath, f.appendLog, log, func() []byte { return mirror.Snapshot(settings) })
	if err != nil {
		return err
	}

	reader := console.NewReader(os.Stdin)
	go reader.Run()

	cfg := engine.Config{
		SourceSystem:    uint8(f.sourceSystem),
		TargetComponent: gcsOwnComponent,
		Preferred:       1,
		NumCells:        f.numCells,
		ShowErrors:      f.showErrors,
		Speech:          f.speech,
		StreamRateHz:    f.streamrate,
	}

	e := engine.New(cfg, linkSet, outputs, sitl, jrn, mirror, settings, paramsTable, wpLoader, met, log, ann, reader.Lines())
	e.SetReopeners(reopeners)
	if paramSnapshotPath != "" {
		e.QueueParamSnapshot(paramSnapshotPath)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		e.Stop()
	}()

	e.Run()

	return closeAll(jrn, links, outputs, sitl)
}

// masterDialer returns a closure that (re-)opens the transport a
// --master URI names, for the operator `reset` command and the
// initial dial alike.
func masterDialer(uri string, baud int, dtrOnClose bool) func() (transport.Transport, error) {
	return func() (transport.Transport, error) {
		switch {
		case strings.HasPrefix(uri, "tcp:"):
			return transport.DialTCP(strings.TrimPrefix(uri, "tcp:"))
		case strings.HasSuffix(uri, ".elf"):
			return transport.Spawn(uri)
		case looksLikeHostPort(uri):
			return transport.ListenUDP(uri)
		default:
			return transport.OpenSerial(uri, baud, dtrOnClose)
		}
	}
}

func looksLikeHostPort(uri string) bool {
	_, port, err := net.SplitHostPort(uri)
	if err != nil {
		return false
	}
	_, err = strconv.Atoi(port)
	return err == nil
}

func closeAll(j *journal.Journal, links []*link.Link, outputs []transport.Transport, sitl transport.Transport) error {
	var result *multierror.Error
	for _, l := range links {
		if err := l.Transport.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for _, o := range outputs {
		if err := o.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if sitl != nil {
		if err := sitl.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := j.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
