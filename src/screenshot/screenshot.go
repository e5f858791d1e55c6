package screenshot

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// CaptureError reports that the screen could not be read: no active display,
// permission denial or a failed grab. It is transient; callers retry on their
// next cycle.
type CaptureError struct {
	Rect image.Rectangle
	Err  error
}

func (e *CaptureError) Error() string {
	if e.Rect.Empty() {
		return fmt.Sprintf("screen capture failed: %v", e.Err)
	}
	return fmt.Sprintf("screen capture of %v failed: %v", e.Rect, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

var errNoDisplay = errors.New("no active displays found")

// Screen captures from the primary display. The zero value is ready to use.
type Screen struct{}

// NumDisplays returns the number of active displays.
func NumDisplays() int {
	return screenshot.NumActiveDisplays()
}

// Bounds returns the bounds of the primary display (display 0).
func (Screen) Bounds() (image.Rectangle, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return image.Rectangle{}, &CaptureError{Err: errNoDisplay}
	}
	return screenshot.GetDisplayBounds(0), nil
}

// CaptureRect captures a specific rectangle of the virtual screen.
func (Screen) CaptureRect(r image.Rectangle) (*image.RGBA, error) {
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return nil, &CaptureError{Rect: r, Err: fmt.Errorf("invalid region dimensions: width=%d, height=%d", r.Dx(), r.Dy())}
	}
	if screenshot.NumActiveDisplays() == 0 {
		return nil, &CaptureError{Rect: r, Err: errNoDisplay}
	}
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return nil, &CaptureError{Rect: r, Err: err}
	}
	return img, nil
}
