// Package influx writes decoded pressure readings to an InfluxDB 2.x
// bucket through the client's non-blocking write API.
package influx

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"go.uber.org/zap"

	"gaugebridge/internal/itr90"
)

// Config holds the connection and naming parameters for the writer.
type Config struct {
	URL         string
	Org         string
	Bucket      string
	Token       string
	Measurement string
}

// Writer is a reading sink that stores each accepted reading as one
// point with a single pressure_mbar field. Writes are batched and
// asynchronous; write failures are logged as warnings and never reach
// the relay path.
type Writer struct {
	client      influxdb2.Client
	api         api.WriteAPI
	measurement string
	log         *zap.Logger
}

// New connects to InfluxDB and verifies it is healthy before returning
// a Writer. The caller decides whether a setup failure is fatal.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Writer, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb health check: %w", err)
	}
	if health.Status != domain.HealthCheckStatusPass {
		client.Close()
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return nil, fmt.Errorf("influxdb unhealthy: %s %s", health.Status, msg)
	}

	w := &Writer{
		client:      client,
		api:         client.WriteAPI(cfg.Org, cfg.Bucket),
		measurement: cfg.Measurement,
		log:         log,
	}
	go w.drainErrors()
	return w, nil
}

// drainErrors turns asynchronous write failures into warnings. The
// channel closes when the client does.
func (w *Writer) drainErrors() {
	for err := range w.api.Errors() {
		w.log.Warn("influxdb write failed", zap.Error(err))
	}
}

// Accept enqueues one reading for writing.
func (w *Writer) Accept(r itr90.Reading) {
	p := influxdb2.NewPointWithMeasurement(w.measurement).
		AddField("pressure_mbar", r.Pressure).
		SetTime(r.At)
	w.api.WritePoint(p)
}

// Close flushes pending points and shuts the client down.
func (w *Writer) Close() {
	w.api.Flush()
	w.client.Close()
}
