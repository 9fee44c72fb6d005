package device

import (
	"fmt"
	"time"

	serial "go.bug.st/serial"
)

// readTimeout bounds a single blocking Read so callers can observe
// cancellation between polls.
const readTimeout = 100 * time.Millisecond

// SerialPort implements Device over a physical serial port opened with
// the gauge's fixed line settings (8 data bits, no parity, 1 stop bit).
// The port is held exclusively for the life of the process.
type SerialPort struct {
	port serial.Port
	path string
}

// Open opens the serial port at path with the given baud rate.
func Open(path string, baud int) (*SerialPort, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}
	return &SerialPort{port: p, path: path}, nil
}

// Read reads up to len(p) bytes, returning (0, nil) on poll timeout.
func (s *SerialPort) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

// Write writes p to the port.
func (s *SerialPort) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// Close closes the underlying serial port.
func (s *SerialPort) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}

// Path returns the device path the port was opened with.
func (s *SerialPort) Path() string { return s.path }
