package hotkey

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Button identifies a mouse button by its hook button code.
type Button uint16

const (
	ButtonLeft   Button = 1
	ButtonRight  Button = 2
	ButtonMiddle Button = 3
	ButtonX1     Button = 4
	ButtonX2     Button = 5
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	case ButtonX1:
		return "x1"
	case ButtonX2:
		return "x2"
	default:
		return fmt.Sprintf("button%d", uint16(b))
	}
}

var (
	// ErrHookUnavailable means the global input hook could not be installed.
	ErrHookUnavailable = errors.New("input hook unavailable")
	// ErrAlreadySubscribed is returned by a second Subscribe without Unsubscribe.
	ErrAlreadySubscribed = errors.New("input listener already subscribed")
)

// Listener delivers mouse button edges from the global input hook. The
// callback runs on the listener goroutine, not the caller's.
type Listener struct {
	start func() chan gohook.Event
	end   func()

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewListener returns a Listener backed by gohook.
func NewListener() *Listener {
	return &Listener{start: gohook.Start, end: gohook.End}
}

// Subscribe installs the hook and starts delivering (button, pressed) events
// to onButtonEvent until Unsubscribe.
func (l *Listener) Subscribe(onButtonEvent func(button Button, pressed bool)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		return ErrAlreadySubscribed
	}

	log.Printf("Listener: Starting gohook event loop...")
	evChan := l.start()
	if evChan == nil {
		return fmt.Errorf("gohook.Start() returned nil channel: %w", ErrHookUnavailable)
	}
	log.Printf("Listener: gohook.Start() returned channel successfully")

	stop := make(chan struct{})
	done := make(chan struct{})
	l.stop, l.done = stop, done

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in listener goroutine: %v", r)
			}
		}()
		for {
			select {
			case <-stop:
				return
			case ev, ok := <-evChan:
				if !ok {
					log.Printf("Listener: Event channel closed")
					return
				}
				button, pressed, ok := translate(ev)
				if !ok {
					continue
				}
				if onButtonEvent != nil {
					onButtonEvent(button, pressed)
				}
			}
		}
	}()
	return nil
}

// Unsubscribe signals the listener goroutine to stop, removes the hook and
// waits for the goroutine to exit. It is safe to call more than once.
func (l *Listener) Unsubscribe() {
	l.mu.Lock()
	stop, done := l.stop, l.done
	l.stop, l.done = nil, nil
	l.mu.Unlock()
	if stop == nil {
		return
	}

	close(stop)
	if l.end != nil {
		l.end()
	}
	<-done
	log.Printf("Listener: Stopped")
}

// translate maps a hook event to a button edge. gohook reports the
// libuiohook "pressed" event as MouseHold and "released" as MouseDown; the
// synthesized click (MouseUp) and every non-button event are dropped.
func translate(ev gohook.Event) (Button, bool, bool) {
	switch ev.Kind {
	case gohook.MouseHold:
		return Button(ev.Button), true, true
	case gohook.MouseDown:
		return Button(ev.Button), false, true
	default:
		return 0, false, false
	}
}

// ParseButton converts a configured button name like "middle" to a Button.
func ParseButton(name string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "left":
		return ButtonLeft, nil
	case "right":
		return ButtonRight, nil
	case "middle", "center", "wheel":
		return ButtonMiddle, nil
	case "x1", "back":
		return ButtonX1, nil
	case "x2", "forward":
		return ButtonX2, nil
	default:
		return 0, fmt.Errorf("unknown mouse button %q", name)
	}
}
