package transport

import (
	"sync/atomic"

	"go.bug.st/serial"
)

// Serial implements the bare-device-path master-link URI (the
// catch-all fallback when a URI isn't tcp:, udp host:port, or an
// executable path), driven by go.bug.st/serial (see DESIGN.md).
type Serial struct {
	*pump
	port       serial.Port
	closed     atomic.Bool
	dtrOnClose bool
}

// OpenSerial opens path at baud. dtrOnClose controls whether DTR is
// toggled when the port is closed (ArduPilot-style boards reset on
// DTR drop; --nodtr suppresses that on a clean shutdown).
func OpenSerial(path string, baud int, dtrOnClose bool) (*Serial, error) {
	mode := &serial.Mode{BaudRate: baud}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	s := &Serial{pump: newPump(), port: port, dtrOnClose: dtrOnClose}
	go s.pump.run(&s.closed, port.Read)
	return s, nil
}

func (s *Serial) Send(p []byte) error {
	_, err := s.port.Write(p)
	return err
}

func (s *Serial) Close() error {
	s.closed.Store(true)
	if s.dtrOnClose {
		_ = s.port.SetDTR(false)
	}
	return s.port.Close()
}
