package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gaugebridge/internal/device"
)

// ErrNoPorts is returned when auto-detection finds nothing to open.
var ErrNoPorts = errors.New("no serial ports found")

// Prompter carries the interactive surface used during resolution. Out
// should be stderr so prompts never collide with the panel. Secret, if
// set, reads a line with echo disabled (the token prompt); otherwise
// the token falls back to a plain line read from In.
type Prompter struct {
	In     io.Reader
	Out    io.Writer
	Secret func(prompt string) (string, error)
}

func (p Prompter) readLine(r *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(p.Out, prompt)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ResolvePort picks the serial port to open. Precedence: explicit
// argument, configured value, auto-detection. With several ports
// present the user picks from a numbered list; with none, ErrNoPorts.
func ResolvePort(arg, configured string, ports []device.PortInfo, p Prompter) (string, error) {
	if arg != "" {
		return arg, nil
	}
	if configured != "" {
		return configured, nil
	}
	if len(ports) == 0 {
		return "", ErrNoPorts
	}
	if len(ports) == 1 {
		fmt.Fprintf(p.Out, "Found serial port: %s  (%s)\n", ports[0].Path, ports[0].Description)
		return ports[0].Path, nil
	}

	fmt.Fprintln(p.Out, "Multiple serial ports found:")
	for i, port := range ports {
		fmt.Fprintf(p.Out, "  [%d]  %s  (%s)\n", i+1, port.Path, port.Description)
	}
	r := bufio.NewReader(p.In)
	for {
		line, err := p.readLine(r, fmt.Sprintf("Type a number [1-%d] and press Enter: ", len(ports)))
		if err != nil {
			return "", fmt.Errorf("port selection: %w", err)
		}
		idx, err := strconv.Atoi(line)
		if err == nil && idx >= 1 && idx <= len(ports) {
			return ports[idx-1].Path, nil
		}
		fmt.Fprintf(p.Out, "  Please enter a number between 1 and %d\n", len(ports))
	}
}

// ResolveInflux completes the telemetry-sink settings. A fully
// specified config passes through untouched. Missing fields are
// prompted for when interactive is true; otherwise, or when fields stay
// missing, logging is disabled with a notice.
func ResolveInflux(cfg InfluxConfig, interactive bool, p Prompter) (InfluxConfig, bool) {
	if cfg.Complete() {
		return cfg, true
	}
	if !interactive {
		if cfg.Enable {
			fmt.Fprintln(p.Out, "InfluxDB enabled in config but not fully specified.")
		}
		return cfg, false
	}

	r := bufio.NewReader(p.In)
	if !cfg.Enable {
		answer, err := p.readLine(r, "Enable InfluxDB logging? [y/N]: ")
		if err != nil || !strings.EqualFold(answer, "y") {
			return cfg, false
		}
	}

	fmt.Fprintln(p.Out, "\n── InfluxDB Setup ──────────────────────")
	if url, err := p.readLine(r, fmt.Sprintf("URL [%s]: ", cfg.URL)); err == nil && url != "" {
		cfg.URL = url
	}
	if cfg.Org == "" {
		cfg.Org, _ = p.readLine(r, "Organization: ")
	}
	if cfg.Bucket == "" {
		cfg.Bucket, _ = p.readLine(r, "Bucket: ")
	}
	if cfg.Token == "" {
		fmt.Fprintln(p.Out, "API token (InfluxDB UI: Load Data > API Tokens)")
		if p.Secret != nil {
			cfg.Token, _ = p.Secret("  Token: ")
		} else {
			cfg.Token, _ = p.readLine(r, "  Token: ")
		}
	}
	if cfg.Measurement == "" {
		cfg.Measurement, _ = p.readLine(r, "Measurement name (snake_case, e.g. itr90_chamber1): ")
	}

	if !cfg.Complete() {
		fmt.Fprintln(p.Out, "Missing required fields; InfluxDB logging disabled.")
		return cfg, false
	}
	return cfg, true
}
