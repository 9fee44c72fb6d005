package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"gaugebridge/internal/device"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.Equal(t, 9600, cfg.Serial.Baud)
	require.Equal(t, "localhost:8765", cfg.Listen.Addr)
	require.Equal(t, "http://localhost:8086", cfg.Influx.URL)
	require.True(t, cfg.Display.Enable)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
serial:
  port: /dev/ttyUSB3
listen:
  addr: ":9000"
influx:
  enable: true
  org: lab
  bucket: vacuum
  token: secret
  measurement: itr90_chamber1
display:
  enable: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB3", cfg.Serial.Port)
	require.Equal(t, 9600, cfg.Serial.Baud, "unset baud keeps the default")
	require.Equal(t, ":9000", cfg.Listen.Addr)
	require.True(t, cfg.Influx.Enable)
	require.True(t, cfg.Influx.Complete())
	require.Equal(t, "http://localhost:8086", cfg.Influx.URL)
	require.False(t, cfg.Display.Enable)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}

func prompter(input string) (Prompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return Prompter{In: strings.NewReader(input), Out: out}, out
}

func TestResolvePortPrecedence(t *testing.T) {
	ports := []device.PortInfo{{Path: "/dev/ttyUSB0", Description: "ITR 90"}}
	p, _ := prompter("")

	got, err := ResolvePort("/dev/ttyACM9", "/dev/ttyUSB1", ports, p)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyACM9", got, "explicit argument wins")

	got, err = ResolvePort("", "/dev/ttyUSB1", ports, p)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB1", got, "configured port beats detection")
}

func TestResolvePortSinglePort(t *testing.T) {
	p, out := prompter("")
	got, err := ResolvePort("", "", []device.PortInfo{{Path: "/dev/ttyUSB0", Description: "ITR 90"}}, p)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB0", got)
	require.Contains(t, out.String(), "Found serial port")
}

func TestResolvePortNumberedPick(t *testing.T) {
	ports := []device.PortInfo{
		{Path: "/dev/ttyUSB0", Description: "ITR 90"},
		{Path: "/dev/ttyUSB1", Description: "debug probe"},
	}

	p, out := prompter("2\n")
	got, err := ResolvePort("", "", ports, p)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB1", got)
	require.Contains(t, out.String(), "[1]")
	require.Contains(t, out.String(), "[2]")

	// Garbage first, then a valid pick.
	p, out = prompter("zero\n7\n1\n")
	got, err = ResolvePort("", "", ports, p)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB0", got)
	require.Contains(t, out.String(), "Please enter a number")
}

func TestResolvePortNoPorts(t *testing.T) {
	p, _ := prompter("")
	_, err := ResolvePort("", "", nil, p)
	require.ErrorIs(t, err, ErrNoPorts)
}

func TestResolvePortPickerEOF(t *testing.T) {
	ports := []device.PortInfo{
		{Path: "/dev/ttyUSB0", Description: "a"},
		{Path: "/dev/ttyUSB1", Description: "b"},
	}
	p, _ := prompter("")
	_, err := ResolvePort("", "", ports, p)
	require.Error(t, err)
}

func TestResolveInfluxCompletePassesThrough(t *testing.T) {
	cfg := InfluxConfig{
		URL: "http://influx:8086", Org: "lab", Bucket: "vacuum",
		Token: "secret", Measurement: "itr90_chamber1",
	}
	p, _ := prompter("")
	got, enabled := ResolveInflux(cfg, false, p)
	require.True(t, enabled)
	require.Equal(t, cfg, got)
}

func TestResolveInfluxNonInteractiveIncomplete(t *testing.T) {
	p, _ := prompter("")
	_, enabled := ResolveInflux(InfluxConfig{URL: "http://localhost:8086"}, false, p)
	require.False(t, enabled)
}

func TestResolveInfluxInteractiveDeclined(t *testing.T) {
	p, _ := prompter("n\n")
	_, enabled := ResolveInflux(InfluxConfig{URL: "http://localhost:8086"}, true, p)
	require.False(t, enabled)
}

func TestResolveInfluxInteractivePrompts(t *testing.T) {
	p, _ := prompter("y\n\nlab\nvacuum\nsecret\nitr90_chamber1\n")
	got, enabled := ResolveInflux(InfluxConfig{URL: "http://localhost:8086"}, true, p)
	require.True(t, enabled)
	require.Equal(t, "http://localhost:8086", got.URL, "empty answer keeps the default")
	require.Equal(t, "lab", got.Org)
	require.Equal(t, "vacuum", got.Bucket)
	require.Equal(t, "secret", got.Token)
	require.Equal(t, "itr90_chamber1", got.Measurement)
}

func TestResolveInfluxSecretReader(t *testing.T) {
	p, _ := prompter("y\n\nlab\nvacuum\nitr90_chamber1\n")
	p.Secret = func(prompt string) (string, error) { return "hidden", nil }
	got, enabled := ResolveInflux(InfluxConfig{URL: "http://localhost:8086"}, true, p)
	require.True(t, enabled)
	require.Equal(t, "hidden", got.Token)
}
