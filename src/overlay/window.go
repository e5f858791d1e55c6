//go:build !headless

package overlay

import (
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"screen-cue-overlay/src/session"
)

const (
	windowX     = 100
	windowY     = 100
	labelScale  = 2.0
	windowTitle = "Screen Cue Overlay"
)

// Window is an always-on-top, borderless, click-through ebiten window that
// draws the countdown. Run must be called from the main goroutine.
type Window struct {
	mu      sync.RWMutex
	frame   session.Frame
	visible bool
	closing bool
	done    chan struct{}
}

// NewWindow returns an unstarted overlay window.
func NewWindow() *Window {
	return &Window{done: make(chan struct{})}
}

// Run opens the window and blocks until Close is called or the window fails.
func (w *Window) Run() error {
	defer close(w.done)

	ebiten.SetWindowTitle(windowTitle)
	ebiten.SetWindowSize(session.SurfaceWidth, session.SurfaceHeight)
	ebiten.SetWindowPosition(windowX, windowY)
	ebiten.SetWindowDecorated(false)
	ebiten.SetWindowFloating(true)
	ebiten.SetWindowMousePassthrough(true)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetTPS(30)

	err := ebiten.RunGameWithOptions(w, &ebiten.RunGameOptions{
		ScreenTransparent: true,
		InitUnfocused:     true,
		SkipTaskbar:       true,
	})
	if err != nil {
		return &RenderError{Op: "run", Err: err}
	}
	return nil
}

// Close asks the window to terminate on its next update.
func (w *Window) Close() {
	w.mu.Lock()
	w.closing = true
	w.mu.Unlock()
}

// Done is closed once Run has returned.
func (w *Window) Done() <-chan struct{} { return w.done }

func (w *Window) Present(frame session.Frame) error {
	if w.terminated() {
		return &RenderError{Op: "present", Err: errWindowClosed}
	}
	w.mu.Lock()
	w.frame = frame
	w.visible = true
	w.mu.Unlock()
	return nil
}

func (w *Window) Dismiss() error {
	if w.terminated() {
		return &RenderError{Op: "dismiss", Err: errWindowClosed}
	}
	w.mu.Lock()
	w.visible = false
	w.mu.Unlock()
	return nil
}

func (w *Window) terminated() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	w.mu.RLock()
	closing := w.closing
	w.mu.RUnlock()
	if closing {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game. A dismissed overlay draws nothing, leaving the
// transparent window invisible.
func (w *Window) Draw(screen *ebiten.Image) {
	w.mu.RLock()
	frame, visible := w.frame, w.visible
	w.mu.RUnlock()
	if !visible {
		return
	}

	fillSegment(screen, frame.Outline)
	for _, seg := range frame.Bar {
		if seg.Width() > 0 {
			fillSegment(screen, seg)
		}
	}

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(labelScale, labelScale)
	opts.GeoM.Translate(labelOrigin())
	opts.ColorScale.ScaleWithColor(session.Red)
	text.DrawWithOptions(screen, frame.Label, basicfont.Face7x13, opts)
}

// labelOrigin is where the label's baseline starts so that its top-left
// corner sits at (LabelX, LabelY).
func labelOrigin() (x, y float64) {
	ascent := float64(basicfont.Face7x13.Metrics().Ascent.Ceil())
	return session.LabelX, session.LabelY + ascent*labelScale
}

// Layout implements ebiten.Game.
func (w *Window) Layout(_, _ int) (int, int) {
	return session.SurfaceWidth, session.SurfaceHeight
}

func fillSegment(screen *ebiten.Image, seg session.Segment) {
	r := seg.Rect
	ebitenutil.DrawRect(screen, float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()), color.Color(seg.Color))
}
