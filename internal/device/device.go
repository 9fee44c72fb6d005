// Package device provides access to the gauge's USB-serial port using
// go.bug.st/serial: exclusive open with fixed line settings, raw
// chunked reads with a short poll timeout, and port enumeration for the
// startup picker.
package device

import (
	"fmt"

	"go.bug.st/serial/enumerator"
)

// Device is the raw-byte surface of the gauge port. Read returns
// (0, nil) when the poll timeout elapses with no data, so read loops
// stay cancellable without dedicated plumbing.
type Device interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// PortInfo describes one enumerated serial port for the picker prompt.
type PortInfo struct {
	Path        string
	Description string
}

// ListPorts enumerates the serial ports present on the system, carrying
// the USB product string as a human-readable description where known.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		desc := d.Product
		if desc == "" && d.IsUSB {
			desc = fmt.Sprintf("USB %s:%s", d.VID, d.PID)
		}
		if desc == "" {
			desc = "serial port"
		}
		ports = append(ports, PortInfo{Path: d.Name, Description: desc})
	}
	return ports, nil
}
