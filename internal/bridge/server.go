// Package bridge serves one WebSocket client at a time and relays raw
// bytes between that client and the gauge's serial port, decoding
// telemetry frames along the way for the registered sinks.
package bridge

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gaugebridge/internal/device"
	"gaugebridge/internal/sink"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// StatusListener is notified of client lifecycle changes; the terminal
// panel implements it to show the connection state.
type StatusListener interface {
	ClientConnected(peer string)
	ClientDisconnected(peer string)
}

// Server owns the gauge port for its lifetime and runs one relay
// session per client connection in turn. A second client connecting
// while a session is active is refused before the upgrade.
type Server struct {
	dev    device.Device
	fanout *sink.Fanout
	status StatusListener
	log    *zap.Logger

	mu   sync.Mutex
	busy bool

	ln      net.Listener
	server  *http.Server
	baseCtx context.Context
	fatal   chan error
}

// NewServer constructs a Server relaying dev to its clients. status may
// be nil.
func NewServer(dev device.Device, fanout *sink.Fanout, status StatusListener, log *zap.Logger) *Server {
	return &Server{
		dev:    dev,
		fanout: fanout,
		status: status,
		log:    log,
		fatal:  make(chan error, 1),
	}
}

// Listen binds the WebSocket endpoint. Serve must be called afterwards.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)
	s.server = &http.Server{Handler: mux}
	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Serve accepts clients until ctx is cancelled or a gauge I/O fault
// occurs. A nil return is a graceful stop; a *DeviceError means the
// gauge is unusable and the process should exit non-zero.
func (s *Server) Serve(ctx context.Context) error {
	// Sessions inherit this context so cancelling Serve also tears
	// down the active relay (upgraded conns are invisible to
	// http.Server.Shutdown).
	s.baseCtx = ctx
	serveErr := make(chan error, 1)
	go func() { serveErr <- s.server.Serve(s.ln) }()

	var err error
	select {
	case <-ctx.Done():
	case err = <-s.fatal:
	case serr := <-serveErr:
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			return serr
		}
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if serr := s.server.Shutdown(shutCtx); serr != nil {
		_ = s.server.Close()
	}
	return err
}

// handleWS upgrades the request and runs a relay session for the life
// of the connection. The session owns the conn; the gauge port stays
// open across sessions.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		http.Error(w, "bridge busy: another client is connected", http.StatusConflict)
		return
	}
	s.busy = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Info("websocket upgrade refused", zap.Error(err))
		return
	}
	peer := conn.RemoteAddr().String()
	s.log.Info("client connected", zap.String("peer", peer))
	if s.status != nil {
		s.status.ClientConnected(peer)
	}

	ctx := s.baseCtx
	if ctx == nil {
		ctx = r.Context()
	}
	sess := newSession(s.dev, conn, s.fanout, s.log)
	err = sess.run(ctx)

	s.log.Info("client disconnected", zap.String("peer", peer))
	if s.status != nil {
		s.status.ClientDisconnected(peer)
	}

	var devErr *DeviceError
	if errors.As(err, &devErr) {
		s.log.Error("gauge transport fault", zap.Error(err))
		select {
		case s.fatal <- err:
		default:
		}
	}
}
