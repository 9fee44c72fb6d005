//go:build !unix

package display

// watchResize is a no-op where SIGWINCH does not exist.
func (p *Panel) watchResize() {}
