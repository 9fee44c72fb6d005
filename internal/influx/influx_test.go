package influx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gaugebridge/internal/itr90"
)

// influxStub answers the health probe and captures write bodies.
type influxStub struct {
	healthStatus string

	mu     sync.Mutex
	bodies []string
	paths  []string
}

func (s *influxStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"name":"influxdb","status":%q,"message":"ready"}`, s.healthStatus)
	})
	mux.HandleFunc("/api/v2/write", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.bodies = append(s.bodies, string(body))
		s.paths = append(s.paths, r.URL.RawQuery)
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func (s *influxStub) captured() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.bodies...)
}

func TestWriterWritesPressureField(t *testing.T) {
	stub := &influxStub{healthStatus: "pass"}
	ts := httptest.NewServer(stub.handler())
	t.Cleanup(ts.Close)

	cfg := Config{
		URL:         ts.URL,
		Org:         "lab",
		Bucket:      "vacuum",
		Token:       "secret",
		Measurement: "itr90_chamber1",
	}
	w, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	w.Accept(itr90.Reading{Pressure: 6.2e-5, At: at})
	w.Close()

	bodies := stub.captured()
	require.Len(t, bodies, 1)
	require.Contains(t, bodies[0], "itr90_chamber1")
	require.Contains(t, bodies[0], "pressure_mbar=")

	stub.mu.Lock()
	query := stub.paths[0]
	stub.mu.Unlock()
	require.Contains(t, query, "org=lab")
	require.Contains(t, query, "bucket=vacuum")
}

func TestNewRejectsUnhealthyServer(t *testing.T) {
	stub := &influxStub{healthStatus: "fail"}
	ts := httptest.NewServer(stub.handler())
	t.Cleanup(ts.Close)

	_, err := New(context.Background(), Config{URL: ts.URL}, zap.NewNop())
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "unhealthy"))
}

func TestNewRejectsUnreachableServer(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := New(ctx, Config{URL: url}, zap.NewNop())
	require.Error(t, err)
}
