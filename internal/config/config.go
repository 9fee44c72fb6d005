// Package config defines the bridge's startup configuration: a YAML
// file merged with command-line overrides, completed by an interactive
// resolution step for the serial port and the telemetry sink. The core
// packages receive the resolved values and never prompt themselves.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root structure loaded from config.yml.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Listen  ListenConfig  `yaml:"listen"`
	Influx  InfluxConfig  `yaml:"influx"`
	Display DisplayConfig `yaml:"display"`
	Logging LoggingConfig `yaml:"logging"`
}

// SerialConfig selects the gauge port. An empty port means auto-detect.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// ListenConfig sets the WebSocket endpoint for the browser app.
type ListenConfig struct {
	Addr string `yaml:"addr"`
}

// InfluxConfig holds the optional time-series sink parameters. Enable
// makes a failed setup fatal instead of degrading to disabled.
type InfluxConfig struct {
	Enable      bool   `yaml:"enable"`
	URL         string `yaml:"url"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Token       string `yaml:"token"`
	Measurement string `yaml:"measurement"`
}

// Complete reports whether every field the writer needs is present.
func (c InfluxConfig) Complete() bool {
	return c.Org != "" && c.Bucket != "" && c.Token != "" && c.Measurement != ""
}

// DisplayConfig toggles the terminal panel.
type DisplayConfig struct {
	Enable bool `yaml:"enable"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Serial:  SerialConfig{Baud: 9600},
		Listen:  ListenConfig{Addr: "localhost:8765"},
		Influx:  InfluxConfig{URL: "http://localhost:8086"},
		Display: DisplayConfig{Enable: true},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 9600
	}
	if cfg.Listen.Addr == "" {
		cfg.Listen.Addr = "localhost:8765"
	}
	if cfg.Influx.URL == "" {
		cfg.Influx.URL = "http://localhost:8086"
	}
	return cfg, nil
}
