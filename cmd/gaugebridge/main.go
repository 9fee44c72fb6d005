// Bridge program:
// - Opens the ITR 90 serial port (9600 8N1) and holds it for process life
// - Serves one WebSocket client at a time, relaying raw bytes both ways
// - Decodes telemetry frames for the optional panel and InfluxDB logger
//
// Usage:
//
//	gaugebridge                      # auto-detect serial port
//	gaugebridge /dev/ttyUSB0         # specify port
//	gaugebridge -config config.yml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"gaugebridge/internal/bridge"
	"gaugebridge/internal/config"
	"gaugebridge/internal/device"
	"gaugebridge/internal/display"
	"gaugebridge/internal/influx"
	"gaugebridge/internal/logging"
	"gaugebridge/internal/sink"
)

const (
	panelMinInterval  = 200 * time.Millisecond
	loggerMinInterval = time.Second
)

func main() {
	cfgPath := flag.String("config", "", "path to config.yml")
	portFlag := flag.String("port", "", "serial device path (overrides config and auto-detect)")
	baud := flag.Int("baud", 0, "serial baud rate (overrides config)")
	addr := flag.String("addr", "", "websocket listen address (overrides config)")
	noDisplay := flag.Bool("no-display", false, "disable the terminal panel")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *baud > 0 {
		cfg.Serial.Baud = *baud
	}
	if *addr != "" {
		cfg.Listen.Addr = *addr
	}
	if *noDisplay {
		cfg.Display.Enable = false
	}

	log := logging.New(cfg.Logging)
	defer func() { _ = log.Sync() }()

	stdinFd := int(os.Stdin.Fd())
	interactive := term.IsTerminal(stdinFd)
	prompter := config.Prompter{
		In:  os.Stdin,
		Out: os.Stderr,
		Secret: func(prompt string) (string, error) {
			fmt.Fprint(os.Stderr, prompt)
			b, err := term.ReadPassword(stdinFd)
			fmt.Fprintln(os.Stderr)
			return string(b), err
		},
	}

	portArg := *portFlag
	if portArg == "" && flag.NArg() > 0 {
		portArg = flag.Arg(0)
	}
	ports, err := device.ListPorts()
	if err != nil {
		log.Warn("port enumeration failed", zap.Error(err))
	}
	path, err := config.ResolvePort(portArg, cfg.Serial.Port, ports, prompter)
	if err != nil {
		log.Fatal("no serial port to open; connect a gauge or pass the port path",
			zap.Error(err))
	}

	dev, err := device.Open(path, cfg.Serial.Baud)
	if err != nil {
		log.Fatal("open serial port", zap.String("port", path), zap.Error(err))
	}
	log.Info("serial port opened", zap.String("port", path), zap.Int("baud", cfg.Serial.Baud))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Telemetry sink: a config-required setup that fails is fatal,
	// an interactively entered one degrades to disabled.
	fanout := sink.NewFanout()
	var writer *influx.Writer
	influxCfg, wantInflux := config.ResolveInflux(cfg.Influx, interactive, prompter)
	if cfg.Influx.Enable && !wantInflux {
		log.Fatal("influxdb enabled in config but not fully specified")
	}
	if wantInflux {
		writer, err = influx.New(ctx, influx.Config{
			URL:         influxCfg.URL,
			Org:         influxCfg.Org,
			Bucket:      influxCfg.Bucket,
			Token:       influxCfg.Token,
			Measurement: influxCfg.Measurement,
		}, log)
		switch {
		case err != nil && cfg.Influx.Enable:
			log.Fatal("influxdb setup failed", zap.Error(err))
		case err != nil:
			log.Warn("influxdb disabled", zap.Error(err))
		default:
			fanout.Add(writer, loggerMinInterval)
			log.Info("influxdb logging enabled",
				zap.String("org", influxCfg.Org),
				zap.String("bucket", influxCfg.Bucket),
				zap.String("measurement", influxCfg.Measurement))
		}
	}

	var panel *display.Panel
	if cfg.Display.Enable {
		panel, err = display.NewPanel(writer != nil, log)
		if err != nil {
			log.Warn("terminal panel unavailable", zap.Error(err))
		} else {
			fanout.Add(panel, panelMinInterval)
		}
	}

	var status bridge.StatusListener
	if panel != nil {
		status = panel
	}
	srv := bridge.NewServer(dev, fanout, status, log)
	if err := srv.Listen(cfg.Listen.Addr); err != nil {
		if panel != nil {
			panel.Close()
		}
		log.Fatal("listen", zap.String("addr", cfg.Listen.Addr), zap.Error(err))
	}
	log.Info("bridge listening", zap.String("addr", srv.Addr()))

	err = srv.Serve(ctx)

	// Restore the terminal and flush sinks before any fatal exit.
	if panel != nil {
		panel.Close()
	}
	if writer != nil {
		writer.Close()
	}
	if cerr := dev.Close(); cerr != nil {
		log.Warn("close serial port", zap.Error(cerr))
	}
	if err != nil {
		log.Fatal("bridge failed", zap.Error(err))
	}
	log.Info("bridge stopped")
}
