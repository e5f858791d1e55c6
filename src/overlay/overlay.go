package overlay

import (
	"fmt"
	"log"
	"sync"

	"screen-cue-overlay/src/session"
)

// Surface is the display collaborator. Present shows (or updates) the
// countdown overlay; Dismiss hides it. Both are called only from the tracker
// loop goroutine.
type Surface interface {
	Present(frame session.Frame) error
	Dismiss() error
}

// RenderError reports that the overlay surface is unavailable. It is fatal.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("overlay %s failed: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// LogSurface is a Surface that only logs what it would draw. It backs
// headless builds and is handy in tests.
type LogSurface struct {
	mu      sync.Mutex
	visible bool
	last    session.Frame
}

func (s *LogSurface) Present(frame session.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.visible {
		log.Printf("Overlay: shown")
	}
	s.visible = true
	s.last = frame
	log.Printf("Overlay: %s seconds left", frame.Label)
	return nil
}

func (s *LogSurface) Dismiss() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visible {
		log.Printf("Overlay: closed")
	}
	s.visible = false
	return nil
}

// Visible reports whether the last call was Present.
func (s *LogSurface) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Last returns the most recently presented frame.
func (s *LogSurface) Last() session.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
