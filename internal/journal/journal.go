// Package journal implements the Log Journal: two append-only files
// (parsed, raw) fed by queues the engine never blocks on, drained by
// a dedicated worker goroutine.
package journal

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"sync"
	"time"

	"github.com/nabbar/gcproxy/internal/telemetry"
)

// Record is one enqueued frame: the raw wire bytes plus the usec
// timestamp and link number the 8-byte header encodes.
type Record struct {
	Usec    uint64
	LinkNum int
	Raw     []byte
}

// Journal owns the two open log files and the queues feeding them. The
// engine only ever calls Enqueue{Parsed,Raw}, which never block.
type Journal struct {
	log telemetry.Logger

	parsedQueue chan Record
	rawQueue    chan Record

	mu       sync.Mutex
	parsedW  *bufio.Writer
	rawW     *bufio.Writer
	parsedF  *os.File
	rawF     *os.File
	statusAt func() []byte // status.txt snapshot producer, set by caller

	done chan struct{}
}

// Open creates/truncates-or-appends the parsed and raw log files
// (append controlled by the `--append-log` flag at the CLI layer,
//) and starts the writer worker.
func Open(parsedPath, rawPath string, appendMode bool, log telemetry.Logger, statusSnapshot func() []byte) (*Journal, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	pf, err := os.OpenFile(parsedPath, flags, 0o644)
	if err != nil {
		return nil, err
	}
	rf, err := os.OpenFile(rawPath, flags, 0o644)
	if err != nil {
		_ = pf.Close()
		return nil, err
	}

	j := &Journal{
		log:         log,
		parsedQueue: make(chan Record, 4096),
		rawQueue:    make(chan Record, 4096),
		parsedW:     bufio.NewWriter(pf),
		rawW:        bufio.NewWriter(rf),
		parsedF:     pf,
		rawF:        rf,
		statusAt:    statusSnapshot,
		done:        make(chan struct{}),
	}
	go j.run()
	return j, nil
}

// EnqueueParsed posts a frame to the parsed-log queue. Never blocks:
// each queue holds up to 4096 records, and a record that arrives while
// the queue is full is dropped with a logged warning.
func (j *Journal) EnqueueParsed(r Record) {
	select {
	case j.parsedQueue <- r:
	default:
		j.log.Warning("journal parsed queue full, dropping record", nil)
	}
}

// EnqueueRaw posts a frame to the raw-log queue.
func (j *Journal) EnqueueRaw(r Record) {
	select {
	case j.rawQueue <- r:
	default:
		j.log.Warning("journal raw queue full, dropping record", nil)
	}
}

// run is the dedicated drainer worker : block
// on the raw queue for one item, drain the rest of both queues
// non-blocking, flush, and on a 1Hz tick snapshot status.txt.
func (j *Journal) run() {
	statusTick := time.NewTicker(time.Second)
	defer statusTick.Stop()

	for {
		select {
		case <-j.done:
			j.drainNonBlocking()
			j.flush()
			close(j.done)
			return
		case r, ok := <-j.rawQueue:
			if !ok {
				return
			}
			j.writeRaw(r)
			j.drainNonBlocking()
			j.flush()
		case <-statusTick.C:
			j.snapshotStatus()
		}
	}
}

func (j *Journal) drainNonBlocking() {
	for {
		select {
		case r := <-j.rawQueue:
			j.writeRaw(r)
			continue
		default:
		}
		select {
		case r := <-j.parsedQueue:
			j.writeParsed(r)
			continue
		default:
		}
		return
	}
}

// Header encodes r's 8-byte big-endian microsecond timestamp header
// with its low 2 bits overwritten by link_num & 0x3 ,
// preserving per-link attribution in offline analysis.
func Header(usec uint64, linkNum int) [8]byte {
	var h [8]byte
	binary.BigEndian.PutUint64(h[:], usec)
	h[7] = (h[7] &^ 0x3) | byte(linkNum&0x3)
	return h
}

func (j *Journal) writeRaw(r Record) {
	h := Header(r.Usec, r.LinkNum)
	j.mu.Lock()
	_, _ = j.rawW.Write(h[:])
	_, _ = j.rawW.Write(r.Raw)
	j.mu.Unlock()
}

func (j *Journal) writeParsed(r Record) {
	h := Header(r.Usec, r.LinkNum)
	j.mu.Lock()
	_, _ = j.parsedW.Write(h[:])
	_, _ = j.parsedW.Write(r.Raw)
	j.mu.Unlock()
}

func (j *Journal) flush() {
	j.mu.Lock()
	_ = j.rawW.Flush()
	_ = j.parsedW.Flush()
	j.mu.Unlock()
}

func (j *Journal) snapshotStatus() {
	if j.statusAt == nil {
		return
	}
	data := j.statusAt()
	if data == nil {
		return
	}
	dir := statusDir(j.parsedF.Name())
	f, err := os.Create(dir)
	if err != nil {
		j.log.Warning("status snapshot write failed", telemetry.Fields{"error": err.Error()})
		return
	}
	defer f.Close()
	_, _ = f.Write(data)
}

func statusDir(parsedPath string) string {
	return dirOf(parsedPath) + "/status.txt"
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

// Close stops the worker after a final flush.
func (j *Journal) Close() error {
	j.done <- struct{}{} // worker drains, flushes, then closes done
	<-j.done
	var firstErr error
	if err := j.parsedF.Close(); err != nil {
		firstErr = err
	}
	if err := j.rawF.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// ParseHeader is the inverse of Header, used by tests and offline
// tooling to recover the timestamp and link attribution.
func ParseHeader(h [8]byte) (usec uint64, linkNum int) {
	usec = binary.BigEndian.Uint64(h[:])
	linkNum = int(h[7] & 0x3)
	return usec &^ 0x3, linkNum
}

// ReadRecord decodes a single header-prefixed record: the 8-byte
// header followed by the remainder of r as the raw frame bytes. A
// journal file holding several records needs an external framer (the
// same Codec that produced the frames) to find each frame's end,
// since the header carries no length field; this helper serves the
// single-record round-trip property.
func ReadRecord(r io.Reader) (Record, error) {
	var h [8]byte
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return Record{}, err
	}
	usec, linkNum := ParseHeader(h)
	raw, err := io.ReadAll(r)
	if err != nil {
		return Record{}, err
	}
	return Record{Usec: usec, LinkNum: linkNum, Raw: raw}, nil
}
