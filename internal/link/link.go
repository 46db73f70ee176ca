// Package link implements: a Link wraps one
// Transport plus one Codec instance and tracks per-link health and
// counters; a Set orders several Links and resolves "the current
// master" under a preference-index failover rule.
package link

import (
	"sync"
	"time"

	"github.com/nabbar/gcproxy/internal/codec"
	"github.com/nabbar/gcproxy/internal/transport"
)

// Link is Link entity.
type Link struct {
	Num int // 0-based, stable for process lifetime

	Transport transport.Transport
	Codec     codec.Codec

	mu sync.Mutex

	LinkError          bool
	LinkDelayed        bool
	LastHeartbeat      time.Time
	HighestUsec        uint64
	ParamFetchComplete bool

	MasterIn  uint64
	MasterOut uint64

	emptyRecvStreak int
}

// New wraps t+c as link number num (0-based; num==0 is the primary).
func New(num int, t transport.Transport, c codec.Codec) *Link {
	return &Link{Num: num, Transport: t, Codec: c}
}

// Ready exposes the Transport's readiness handle for the engine poll
// step.
func (l *Link) Ready() <-chan struct{} { return l.Transport.Ready() }

// Recv pulls raw bytes non-blockingly. Repeated transport errors mark
// the link errored ("transport errors yield an
// empty result and mark the owning Link as errored if repeated").
func (l *Link) Recv() ([]byte, error) {
	b, err := l.Transport.Recv()
	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		l.emptyRecvStreak++
		if l.emptyRecvStreak >= 3 {
			l.LinkError = true
		}
		return b, err
	}
	l.emptyRecvStreak = 0
	return b, nil
}

// Send encodes and writes msg. This is also what the engine uses to
// "post a pre-stamped message to keep ordering consistent with the
// Codec's timestamping" : the codec is the single
// source of truth for wire bytes for every outbound message.
func (l *Link) Send(msg codec.Message) error {
	wire, err := l.Codec.Encode(msg)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.MasterOut++
	l.mu.Unlock()
	return l.Transport.Send(wire)
}

// IncMasterIn bumps the inbound per-link counter.
func (l *Link) IncMasterIn() {
	l.mu.Lock()
	l.MasterIn++
	l.mu.Unlock()
}

// MarkHeartbeat clears link_error and records the heartbeat time, the
// HEARTBEAT handler's per-link side effect.
func (l *Link) MarkHeartbeat(at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.LastHeartbeat = at
	l.LinkError = false
	l.emptyRecvStreak = 0
}

// Errored reports link_error.
func (l *Link) Errored() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.LinkError
}

// SetErrored sets link_error, used by the heartbeat-silence audit
// and by Reset.
func (l *Link) SetErrored(v bool) {
	l.mu.Lock()
	l.LinkError = v
	l.mu.Unlock()
}

// Delayed reports link_delayed.
func (l *Link) Delayed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.LinkDelayed
}

// Reset tears down and reopens the Transport, for the operator `reset`
// command . Callers supply the reopen func since only the
// CLI layer knows the original dial parameters.
func (l *Link) Reset(reopen func() (transport.Transport, error)) error {
	_ = l.Transport.Close()
	t, err := reopen()
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.Transport = t
	l.LinkError = false
	l.emptyRecvStreak = 0
	l.mu.Unlock()
	return nil
}
