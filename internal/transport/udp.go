package transport

import (
	"net"
	"sync"
	"sync/atomic"
)

// UDP implements the bare `host:port` (bound, input) master-link URI
// and the `--out`/`--sitl` unbound send-only sinks . A
// bound UDP transport in connect mode (the default for masters) learns
// its peer from the first inbound packet and addresses replies there,
//
type UDP struct {
	*pump
	conn    *net.UDPConn
	closed  atomic.Bool
	bound   bool // true: learn peer from first packet (master link)
	mu      sync.Mutex
	peer    *net.UDPAddr
	send    *net.UDPAddr // fixed peer for unbound send-only sinks
}

// ListenUDP binds addr and learns its peer from the first inbound
// datagram (the master-link `host:port` form).
func ListenUDP(addr string) (*UDP, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, err
	}
	u := &UDP{pump: newPump(), conn: conn, bound: true}
	go u.runBound()
	return u, nil
}

// DialUDPSink returns a send-only, unbound UDP transport to addr — the
// shape `--out`/`--sitl` use: it never expects inbound traffic.
func DialUDPSink(addr string) (*UDP, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, err
	}
	return &UDP{pump: newPump(), conn: conn, bound: false, send: raddr}, nil
}

func (u *UDP) runBound() {
	b := make([]byte, 4096)
	for {
		n, addr, err := u.conn.ReadFromUDP(b)
		if n > 0 {
			u.mu.Lock()
			u.peer = addr
			u.mu.Unlock()
			u.pump.push(b[:n])
		}
		if err != nil {
			if u.closed.Load() {
				return
			}
			u.pump.fail(err)
			return
		}
	}
}

func (u *UDP) Send(p []byte) error {
	if !u.bound {
		_, err := u.conn.Write(p)
		return err
	}
	u.mu.Lock()
	peer := u.peer
	u.mu.Unlock()
	if peer == nil {
		// No inbound packet yet: nothing learned to reply to. Not an
		// error "best-effort write".
		return nil
	}
	_, err := u.conn.WriteToUDP(p, peer)
	return err
}

func (u *UDP) Close() error {
	u.closed.Store(true)
	return u.conn.Close()
}
