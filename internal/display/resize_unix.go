//go:build unix

package display

import (
	"os"
	"os/signal"
	"syscall"
)

// watchResize repaints the whole panel when the terminal is resized.
func (p *Panel) watchResize() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ch:
				p.redraw()
			case <-p.stopCh:
				return
			}
		}
	}()
}
