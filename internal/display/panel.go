// Package display renders the latest pressure reading and connection
// status to a fixed-geometry terminal panel. On non-interactive or
// undersized terminals it degrades to plain status lines.
package display

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"gaugebridge/internal/itr90"
)

// Panel geometry: a bordered box with four content rows.
const (
	panelCols = 44
	panelRows = 6
)

// Content row indexes inside the box (row 0 and panelRows-1 are the
// border).
const (
	rowPressure = 1
	rowUpdated  = 2
	rowClient   = 3
	rowLogging  = 4
)

const pressurePlaceholder = "---"

// Panel is a reading sink and a bridge status listener. Updates repaint
// only the affected rows; a full redraw happens on start and on
// terminal resize.
type Panel struct {
	log *zap.Logger

	mu       sync.Mutex
	r        renderer
	pressure string
	updated  string
	client   string
	logging  string
	stopCh   chan struct{}
}

// NewPanel probes the terminal and returns a Panel drawing either the
// ANSI box or fallback status lines. loggerEnabled is shown as the
// logging row's initial state.
func NewPanel(loggerEnabled bool, log *zap.Logger) (*Panel, error) {
	var r renderer
	if interactive() {
		r = newANSIRenderer()
	} else {
		r = newLineRenderer()
	}
	return newPanel(r, loggerEnabled, log)
}

func newPanel(r renderer, loggerEnabled bool, log *zap.Logger) (*Panel, error) {
	p := &Panel{
		log:      log,
		r:        r,
		pressure: pressurePlaceholder,
		updated:  "never",
		client:   "disconnected",
		logging:  "disabled",
		stopCh:   make(chan struct{}),
	}
	if loggerEnabled {
		p.logging = "enabled"
	}
	if err := r.start(p.rows()); err != nil {
		return nil, err
	}
	p.watchResize()
	return p, nil
}

// Accept renders a new reading (throttling is the fan-out's job).
func (p *Panel) Accept(r itr90.Reading) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pressure = fmt.Sprintf("%.2e mbar", r.Pressure)
	p.updated = r.At.Format("15:04:05")
	p.r.drawRow(rowPressure, p.row(rowPressure))
	p.r.drawRow(rowUpdated, p.row(rowUpdated))
}

// ClientConnected marks the client row connected.
func (p *Panel) ClientConnected(peer string) {
	p.setClient("connected " + peer)
}

// ClientDisconnected marks the client row disconnected.
func (p *Panel) ClientDisconnected(peer string) {
	p.setClient("disconnected")
}

func (p *Panel) setClient(state string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = state
	p.r.drawRow(rowClient, p.row(rowClient))
}

// Close restores the terminal.
func (p *Panel) Close() {
	close(p.stopCh)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.r.stop()
}

// redraw repaints the whole panel (called on resize).
func (p *Panel) redraw() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.r.drawFull(p.rows())
	p.log.Debug("panel redrawn")
}

// rows renders the full panel as fixed-width lines.
func (p *Panel) rows() []string {
	rows := make([]string, panelRows)
	for i := range rows {
		rows[i] = p.row(i)
	}
	return rows
}

// row renders one line of the box.
func (p *Panel) row(i int) string {
	inner := panelCols - 2
	switch i {
	case 0:
		return "┌" + pad(" ITR 90 vacuum gauge ", '─', inner) + "┐"
	case panelRows - 1:
		return "└" + pad("", '─', inner) + "┘"
	case rowPressure:
		return boxRow("pressure", p.pressure)
	case rowUpdated:
		return boxRow("updated", p.updated)
	case rowClient:
		return boxRow("client", p.client)
	case rowLogging:
		return boxRow("logging", p.logging)
	}
	return "│" + pad("", ' ', inner) + "│"
}

func boxRow(label, value string) string {
	inner := panelCols - 2
	return "│" + pad(fmt.Sprintf(" %-9s %s", label, value), ' ', inner) + "│"
}

// pad right-fills s with fill to width, truncating if s is too long.
func pad(s string, fill rune, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		return string(runes[:width])
	}
	for len(runes) < width {
		runes = append(runes, fill)
	}
	return string(runes)
}
