package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTCPClientRecvIsNonBlockingAndSignalsReady(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	cli, err := DialTCP(ln.Addr().String())
	require.NoError(t, err)
	defer cli.Close()

	srv := <-accepted
	defer srv.Close()

	b, err := cli.Recv()
	require.NoError(t, err)
	require.Empty(t, b)

	_, err = srv.Write([]byte("hello"))
	require.NoError(t, err)

	select {
	case <-cli.Ready():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Ready signal")
	}

	b, err = cli.Recv()
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))
}

func TestUDPBoundLearnsPeerFromFirstPacket(t *testing.T) {
	master, err := ListenUDP("127.0.0.1:0")
	require.NoError(t, err)
	defer master.Close()

	// Before any inbound packet, Send is a no-op, not an error.
	require.NoError(t, master.Send([]byte("ignored")))

	client, err := net.Dial("udp", master.conn.LocalAddr().String())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte("ping"))
	require.NoError(t, err)

	deadline := time.After(time.Second)
	for {
		b, _ := master.Recv()
		if len(b) > 0 {
			require.Equal(t, "ping", string(b))
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for inbound packet")
		case <-time.After(5 * time.Millisecond):
		}
	}

	require.NoError(t, master.Send([]byte("pong")))

	buf := make([]byte, 16)
	require.NoError(t, client.SetReadDeadline(time.Now().Add(time.Second)))
	n, err := client.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "pong", string(buf[:n]))
}
