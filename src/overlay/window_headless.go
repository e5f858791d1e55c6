//go:build headless

package overlay

import (
	"sync"

	"screen-cue-overlay/src/session"
)

// Window in headless builds logs frames instead of drawing them. Run blocks
// until Close, mirroring the windowed build.
type Window struct {
	LogSurface
	once    sync.Once
	closing chan struct{}
	done    chan struct{}
}

func NewWindow() *Window {
	return &Window{closing: make(chan struct{}), done: make(chan struct{})}
}

func (w *Window) Run() error {
	defer close(w.done)
	<-w.closing
	return nil
}

func (w *Window) Close() {
	w.once.Do(func() { close(w.closing) })
}

func (w *Window) Done() <-chan struct{} { return w.done }

func (w *Window) Present(frame session.Frame) error {
	select {
	case <-w.done:
		return &RenderError{Op: "present", Err: errWindowClosed}
	default:
	}
	return w.LogSurface.Present(frame)
}

func (w *Window) Dismiss() error {
	select {
	case <-w.done:
		return &RenderError{Op: "dismiss", Err: errWindowClosed}
	default:
	}
	return w.LogSurface.Dismiss()
}
