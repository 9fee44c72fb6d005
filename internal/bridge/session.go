package bridge

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gaugebridge/internal/device"
	"gaugebridge/internal/itr90"
	"gaugebridge/internal/sink"
)

// readChunk is the most bytes taken from the gauge per poll; at 9-byte
// frames and 50 Hz this comfortably exceeds one poll interval of data.
const readChunk = 256

// DeviceError marks an I/O fault on the gauge side of the relay. The
// port is a process-wide resource, so these end the process rather than
// just the session.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string { return fmt.Sprintf("gauge %s: %v", e.Op, e.Err) }
func (e *DeviceError) Unwrap() error { return e.Err }

// session relays one client connection: gauge bytes are forwarded to
// the client verbatim and fed to the frame decoder as a side read;
// client binary payloads pass through to the gauge untouched.
type session struct {
	dev    device.Device
	conn   *websocket.Conn
	fanout *sink.Fanout
	dec    *itr90.Decoder
	log    *zap.Logger
}

func newSession(dev device.Device, conn *websocket.Conn, fanout *sink.Fanout, log *zap.Logger) *session {
	return &session{
		dev:    dev,
		conn:   conn,
		fanout: fanout,
		dec:    itr90.NewDecoder(),
		log:    log,
	}
}

// run drives both relay directions until one of them ends, then cancels
// the other. A nil return is a recoverable session end (client went
// away); a *DeviceError is fatal to the caller. The gauge port is never
// closed here, only the client connection.
func (s *session) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 2)
	go func() { errc <- s.deviceToClient(ctx) }()
	go func() { errc <- s.clientToDevice(ctx) }()

	err := <-errc
	cancel()
	// Closing the conn unblocks the other direction's ReadMessage.
	_ = s.conn.Close()
	<-errc
	return err
}

// deviceToClient polls the gauge, forwards every chunk to the client as
// one binary message, then decodes the same bytes for the sinks.
// Decoding never alters what is forwarded.
func (s *session) deviceToClient(ctx context.Context) error {
	buf := make([]byte, readChunk)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		n, err := s.dev.Read(buf)
		if err != nil {
			return &DeviceError{Op: "read", Err: err}
		}
		if n == 0 {
			// Poll timeout, nothing arrived.
			continue
		}
		data := buf[:n]
		if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			// Client gone; the session ends recoverably.
			return nil
		}
		if s.fanout.Active() {
			s.fanout.Dispatch(s.dec.Feed(data)...)
		}
	}
}

// clientToDevice waits for client messages and writes non-empty binary
// payloads to the gauge verbatim. Text and empty messages are ignored.
func (s *session) clientToDevice(ctx context.Context) error {
	for {
		typ, msg, err := s.conn.ReadMessage()
		if err != nil {
			// Disconnect or protocol fault from the peer.
			return nil
		}
		if typ != websocket.BinaryMessage || len(msg) == 0 {
			continue
		}
		if _, err := s.dev.Write(msg); err != nil {
			return &DeviceError{Op: "write", Err: err}
		}
		s.log.Debug("command relayed to gauge",
			zap.Int("bytes", len(msg)),
			zap.String("payload", fmt.Sprintf("% X", msg)))
		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}
