package messages

import "time"

// Message is the base interface for values passed into the tracker loop.
type Message interface {
	Type() string
}

// Trigger is a message that opens (or restarts) the overlay countdown. Every
// trigger kind produces the same transition.
type Trigger interface {
	Message
	trigger()
}

// MessageType constants for type identification
const (
	TypeClickTrigger     = "ClickTrigger"
	TypeDetectionTrigger = "DetectionTrigger"
)

// ClickTrigger - sent by the input listener on the press edge of the
// designated mouse button
type ClickTrigger struct {
	Button uint16
	At     time.Time
}

func (m ClickTrigger) Type() string { return TypeClickTrigger }
func (ClickTrigger) trigger()       {}

// DetectionTrigger - produced by the poll cycle when the color cue is found
type DetectionTrigger struct {
	Pixels int // matching-pixel count of the sample
	At     time.Time
}

func (m DetectionTrigger) Type() string { return TypeDetectionTrigger }
func (DetectionTrigger) trigger()       {}
