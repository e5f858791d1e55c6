package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"screen-cue-overlay/src/hotkey"
	"screen-cue-overlay/src/messages"
	"screen-cue-overlay/src/overlay"
	"screen-cue-overlay/src/screenshot"
	"screen-cue-overlay/src/session"
)

// Poll cadences. The loop starts slow and switches to fast after the first
// countdown expires; it never switches back.
const (
	SlowPoll = 500 * time.Millisecond
	FastPoll = 250 * time.Millisecond

	defaultTickPeriod = time.Second
	defaultQueueSize  = 16
)

// State is the tracker state.
type State int

const (
	StateWatching State = iota
	StateOverlayActive
)

func (s State) String() string {
	switch s {
	case StateWatching:
		return "watching"
	case StateOverlayActive:
		return "overlay-active"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Sampler is the visual detector as seen by the loop.
type Sampler interface {
	Sample() (bool, error)
	LastCount() int
}

// Options configures a Loop. Zero durations and queue size take defaults.
type Options struct {
	Detector   Sampler
	Surface    overlay.Surface
	Button     hotkey.Button
	SlowPoll   time.Duration
	FastPoll   time.Duration
	TickPeriod time.Duration
	QueueSize  int
}

// Status is a point-in-time snapshot of the loop, safe to read from any
// goroutine.
type Status struct {
	State         State
	Cadence       time.Duration
	Remaining     int
	Sessions      int
	Triggers      int
	Captures      int
	CaptureErrors int
}

// Loop is the single-threaded tracker. Only the Run goroutine touches the
// session, the state and the tickers; other goroutines talk to it through the
// trigger channel.
type Loop struct {
	detector Sampler
	surface  overlay.Surface
	button   hotkey.Button

	slowPoll   time.Duration
	fastPoll   time.Duration
	tickPeriod time.Duration

	triggers chan messages.Trigger
	now      func() time.Time

	state      State
	cadence    time.Duration
	session    *session.Session
	pollTicker *time.Ticker
	tickTicker *time.Ticker
	tickC      <-chan time.Time

	sessions      int
	triggerCount  int
	captures      int
	captureErrors int

	status atomic.Pointer[Status]
}

// New creates a loop in the watching state at the slow cadence.
func New(opts Options) *Loop {
	slow := opts.SlowPoll
	if slow <= 0 {
		slow = SlowPoll
	}
	fast := opts.FastPoll
	if fast <= 0 {
		fast = FastPoll
	}
	tick := opts.TickPeriod
	if tick <= 0 {
		tick = defaultTickPeriod
	}
	queue := opts.QueueSize
	if queue <= 0 {
		queue = defaultQueueSize
	}
	button := opts.Button
	if button == 0 {
		button = hotkey.ButtonMiddle
	}

	l := &Loop{
		detector:   opts.Detector,
		surface:    opts.Surface,
		button:     button,
		slowPoll:   slow,
		fastPoll:   fast,
		tickPeriod: tick,
		triggers:   make(chan messages.Trigger, queue),
		now:        time.Now,
		state:      StateWatching,
		cadence:    slow,
	}
	l.publish()
	return l
}

// OnButtonEvent is the input listener callback. It runs on the listener
// goroutine and only enqueues; press edges of the designated button become
// click triggers, release edges are logged.
func (l *Loop) OnButtonEvent(button hotkey.Button, pressed bool) {
	if button != l.button {
		return
	}
	if !pressed {
		log.Printf("Listener: %s button released", button)
		return
	}
	log.Printf("Listener: %s button pressed", button)
	l.Post(messages.ClickTrigger{Button: uint16(button), At: time.Now()})
}

// Post enqueues a trigger without blocking. It reports false when the queue is
// full and the trigger was dropped; any queued trigger already restarts the
// countdown, so nothing is lost.
func (l *Loop) Post(t messages.Trigger) bool {
	select {
	case l.triggers <- t:
		return true
	default:
		log.Printf("Tracker: trigger queue full, dropping %s", t.Type())
		return false
	}
}

// Status returns the latest published snapshot.
func (l *Loop) Status() Status {
	return *l.status.Load()
}

// Run drives detection and the countdown until ctx is cancelled or the
// overlay surface fails. A live overlay is dismissed on the way out.
func (l *Loop) Run(ctx context.Context) error {
	l.pollTicker = time.NewTicker(l.cadence)
	defer l.pollTicker.Stop()
	defer l.shutdown()

	log.Printf("Tracker: watching, polling every %v", l.cadence)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-l.triggers:
			if err := l.acceptTrigger(t); err != nil {
				return err
			}
		case <-l.pollTicker.C:
			if err := l.handlePoll(); err != nil {
				return err
			}
		case <-l.tickC:
			if err := l.handleSessionTick(); err != nil {
				return err
			}
		}
	}
}

func (l *Loop) handlePoll() error {
	if l.state != StateWatching {
		return nil
	}
	l.captures++
	matched, err := l.sample()
	if err != nil {
		l.captureErrors++
		var capErr *screenshot.CaptureError
		if errors.As(err, &capErr) {
			log.Printf("Tracker: capture failed, retrying next poll: %v", err)
		} else {
			log.Printf("Tracker: sample failed: %v", err)
		}
		l.publish()
		return nil
	}
	l.publish()
	if !matched {
		return nil
	}
	pixels := l.detector.LastCount()
	log.Printf("Tracker: cue detected (%d pixels)", pixels)
	return l.acceptTrigger(messages.DetectionTrigger{Pixels: pixels, At: l.now()})
}

func (l *Loop) sample() (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in detector sample: %v", r)
			matched, err = false, fmt.Errorf("detector panic: %v", r)
		}
	}()
	return l.detector.Sample()
}

// acceptTrigger destroys any current session and starts a fresh one. Every
// trigger kind is handled the same way. Only a RenderError is returned.
func (l *Loop) acceptTrigger(t messages.Trigger) (err error) {
	l.triggerCount++
	defer l.publish()
	defer l.recoverRender("starting overlay for "+t.Type(), &err)

	if err := l.destroySession(); err != nil {
		return err
	}

	s := session.New(l.now())
	if err := l.surface.Present(session.Compose(s.Remaining())); err != nil {
		return l.fatal("present", err)
	}
	l.session = s
	l.state = StateOverlayActive
	l.sessions++
	l.startTicking()
	log.Printf("Tracker: %s started countdown (%ds)", t.Type(), s.Remaining())
	return nil
}

// recoverRender contains a panic from the surface. The tracker is left
// watching with no session and no tick timer.
func (l *Loop) recoverRender(what string, err *error) {
	if r := recover(); r != nil {
		log.Printf("PANIC while %s: %v", what, r)
		l.stopTicking()
		l.session = nil
		l.state = StateWatching
		*err = nil
	}
}

func (l *Loop) handleSessionTick() (err error) {
	if l.session == nil {
		l.stopTicking()
		return nil
	}
	defer l.publish()
	defer l.recoverRender("drawing countdown", &err)

	remaining, expired := l.session.Tick()
	if !expired {
		if err := l.surface.Present(session.Compose(remaining)); err != nil {
			return l.fatal("present", err)
		}
		return nil
	}

	log.Printf("Tracker: countdown expired")
	if l.cadence != l.fastPoll {
		l.cadence = l.fastPoll
		log.Printf("Tracker: switching to fast polling (%v)", l.cadence)
	}
	if l.pollTicker != nil {
		l.pollTicker.Reset(l.cadence)
	}
	return l.destroySession()
}

// destroySession hides the overlay and returns to watching. No-op without a
// session.
func (l *Loop) destroySession() error {
	if l.session == nil {
		return nil
	}
	l.stopTicking()
	l.session = nil
	l.state = StateWatching
	if err := l.surface.Dismiss(); err != nil {
		return l.fatal("dismiss", err)
	}
	return nil
}

func (l *Loop) startTicking() {
	l.stopTicking()
	l.tickTicker = time.NewTicker(l.tickPeriod)
	l.tickC = l.tickTicker.C
}

func (l *Loop) stopTicking() {
	if l.tickTicker != nil {
		l.tickTicker.Stop()
		l.tickTicker = nil
	}
	l.tickC = nil
}

func (l *Loop) shutdown() {
	if err := l.destroySession(); err != nil {
		log.Printf("Tracker: dismiss on shutdown: %v", err)
	}
	l.publish()
}

func (l *Loop) fatal(op string, err error) error {
	var renderErr *overlay.RenderError
	if !errors.As(err, &renderErr) {
		renderErr = &overlay.RenderError{Op: op, Err: err}
	}
	log.Printf("Tracker: overlay %s failed: %v", op, err)
	return renderErr
}

func (l *Loop) publish() {
	st := &Status{
		State:         l.state,
		Cadence:       l.cadence,
		Sessions:      l.sessions,
		Triggers:      l.triggerCount,
		Captures:      l.captures,
		CaptureErrors: l.captureErrors,
	}
	if l.session != nil {
		st.Remaining = l.session.Remaining()
	}
	l.status.Store(st)
}
