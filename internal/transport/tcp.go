package transport

import (
	"net"
	"sync/atomic"
)

// TCPClient implements the `tcp:host:port` master-link URI.
type TCPClient struct {
	*pump
	conn   net.Conn
	closed atomic.Bool
}

// DialTCP connects to addr ("host:port") and starts the read pump.
func DialTCP(addr string) (*TCPClient, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	t := &TCPClient{pump: newPump(), conn: conn}
	go t.pump.run(&t.closed, conn.Read)
	return t, nil
}

func (t *TCPClient) Send(p []byte) error {
	_, err := t.conn.Write(p)
	return err
}

func (t *TCPClient) Close() error {
	t.closed.Store(true)
	return t.conn.Close()
}
