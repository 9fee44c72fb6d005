package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// renderer is the surface the panel draws on. The panel emits semantic
// updates (full redraw, one row changed); how they reach the screen is
// the renderer's business.
type renderer interface {
	start(rows []string) error
	drawFull(rows []string)
	drawRow(i int, row string)
	stop()
}

// ansiRenderer draws the panel on the terminal's alternate screen using
// cursor addressing, so a row update repaints one line instead of the
// whole screen.
type ansiRenderer struct {
	out *termenv.Output
}

func newANSIRenderer() *ansiRenderer {
	return &ansiRenderer{out: termenv.NewOutput(os.Stdout)}
}

func (r *ansiRenderer) start(rows []string) error {
	r.out.AltScreen()
	r.out.HideCursor()
	r.drawFull(rows)
	return nil
}

func (r *ansiRenderer) drawFull(rows []string) {
	r.out.ClearScreen()
	for i, row := range rows {
		r.drawRow(i, row)
	}
}

func (r *ansiRenderer) drawRow(i int, row string) {
	r.out.MoveCursor(i+1, 1)
	r.out.ClearLine()
	fmt.Fprint(r.out, row)
}

func (r *ansiRenderer) stop() {
	r.out.ExitAltScreen()
	r.out.ShowCursor()
}

// lineRenderer is the fallback for non-interactive runs and undersized
// terminals: plain status lines, one per update, borders stripped.
type lineRenderer struct {
	w io.Writer
}

func newLineRenderer() *lineRenderer {
	return &lineRenderer{w: os.Stdout}
}

func (r *lineRenderer) start(rows []string) error {
	r.drawFull(rows)
	return nil
}

func (r *lineRenderer) drawFull(rows []string) {
	for _, row := range rows {
		if line := stripBox(row); line != "" {
			fmt.Fprintln(r.w, line)
		}
	}
}

func (r *lineRenderer) drawRow(_ int, row string) {
	if line := stripBox(row); line != "" {
		fmt.Fprintln(r.w, line)
	}
}

func (r *lineRenderer) stop() {}

// stripBox reduces a panel row to its text content; border-only rows
// collapse to empty.
func stripBox(row string) string {
	return strings.Trim(row, "┌┐└┘│─ ")
}

// interactive reports whether stdout is a terminal large enough for the
// panel geometry.
func interactive() bool {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return false
	}
	w, h, err := term.GetSize(fd)
	if err != nil {
		return false
	}
	return w >= panelCols && h >= panelRows
}
