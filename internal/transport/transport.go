// Package transport implements the uniform bidirectional byte channel
// over four variants: serial, UDP, TCP client and a spawned child
// process' stdio.
//
// Polling OS-level readiness handles with a 1ms timeout doesn't
// translate directly to Go; the idiomatic equivalent of "select on
// many readiness handles" is a channel per source fed by a dedicated
// reader goroutine. Every variant here runs one background goroutine
// doing blocking low-level reads and buffers the result for a
// non-blocking Recv, signalling a Ready channel the protocol engine
// selects on instead of calling poll(2) directly.
package transport

import (
	"bytes"
	"sync"
	"sync/atomic"
)

// Transport is the boundary every link variant implements.
type Transport interface {
	// Recv returns 0..N buffered bytes without blocking. An empty
	// result is not an error.
	Recv() ([]byte, error)
	// Send is a best-effort write of a complete frame.
	Send(p []byte) error
	// Ready is signalled when bytes may be newly available. Never nil
	// for the variants in this package.
	Ready() <-chan struct{}
	// Close is idempotent and releases OS resources.
	Close() error
}

// pump is embedded by every Transport variant: a background goroutine
// performs blocking reads via readFn and accumulates bytes so Recv can
// be non-blocking
type pump struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	ready  chan struct{}
	errCh  chan error
	lastIO atomic.Bool // not read by the link-error heuristics, which live in link.Link.Recv
}

func newPump() *pump {
	return &pump{ready: make(chan struct{}, 1), errCh: make(chan error, 1)}
}

func (p *pump) Ready() <-chan struct{} { return p.ready }

func (p *pump) signal() {
	select {
	case p.ready <- struct{}{}:
	default:
	}
}

func (p *pump) push(b []byte) {
	if len(b) == 0 {
		return
	}
	p.mu.Lock()
	p.buf.Write(b)
	p.mu.Unlock()
	p.signal()
}

func (p *pump) Recv() ([]byte, error) {
	p.mu.Lock()
	out := make([]byte, p.buf.Len())
	copy(out, p.buf.Bytes())
	p.buf.Reset()
	p.mu.Unlock()

	select {
	case err := <-p.errCh:
		return out, err
	default:
		return out, nil
	}
}

func (p *pump) fail(err error) {
	select {
	case p.errCh <- err:
	default:
	}
	p.signal()
}

// run drives a read(buf) (int, error) loop (the shape of io.Reader,
// net.Conn.Read, serial.Port.Read...) until it errors or closed is set.
func (p *pump) run(closed *atomic.Bool, read func([]byte) (int, error)) {
	b := make([]byte, 4096)
	for {
		n, err := read(b)
		if n > 0 {
			p.push(b[:n])
		}
		if err != nil {
			if closed.Load() {
				return
			}
			p.fail(err)
			return
		}
	}
}
