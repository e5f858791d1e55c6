package session

import (
	"image"
	"image/color"
	"math"
	"strconv"
	"time"
)

// Countdown and progress-bar geometry.
const (
	TotalSeconds   = 45
	ReserveSeconds = 7

	TotalWidth  = 180
	BarHeight   = 10
	BarX        = 10
	BarY        = 75
	FrameMargin = 5

	SurfaceWidth  = 200
	SurfaceHeight = 100

	LabelX = 50
	LabelY = 50
)

var (
	Blue  = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Green = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// Session is one overlay countdown. It only counts; the owner drives Tick
// from a one-second timer.
type Session struct {
	total     int
	reserve   int
	remaining int
	createdAt time.Time
}

// New starts a countdown at TotalSeconds.
func New(now time.Time) *Session {
	return &Session{
		total:     TotalSeconds,
		reserve:   ReserveSeconds,
		remaining: TotalSeconds,
		createdAt: now,
	}
}

// Tick advances the countdown by one second. expired is true once remaining
// reaches zero; further calls leave the session at zero.
func (s *Session) Tick() (remaining int, expired bool) {
	if s.remaining > 0 {
		s.remaining--
	}
	return s.remaining, s.remaining == 0
}

func (s *Session) Remaining() int       { return s.remaining }
func (s *Session) Expired() bool        { return s.remaining == 0 }
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Segment is a filled rectangle of the overlay.
type Segment struct {
	Rect  image.Rectangle
	Color color.RGBA
}

// Width returns the horizontal extent of the segment.
func (s Segment) Width() int { return s.Rect.Dx() }

// ReserveWidth is the bar width of the reserve segment.
func ReserveWidth() int {
	return int(math.Round(float64(ReserveSeconds) / float64(TotalSeconds) * TotalWidth))
}

// Render returns the progress-bar segments for the given seconds remaining.
//
// Above the reserve the bar is a fixed blue reserve segment followed by a
// green segment proportional to the remaining time. In the last
// ReserveSeconds only the blue segment is drawn, draining to zero width.
func Render(remaining int) []Segment {
	remaining = min(max(remaining, 0), TotalSeconds)
	reserveWidth := ReserveWidth()

	if remaining > ReserveSeconds {
		progressWidth := int(math.Round(float64(remaining)/float64(TotalSeconds)*TotalWidth)) - reserveWidth
		return []Segment{
			{Rect: rect(BarX, BarY, reserveWidth, BarHeight), Color: Blue},
			{Rect: rect(BarX+reserveWidth, BarY, progressWidth, BarHeight), Color: Green},
		}
	}

	drainWidth := int(math.Round(float64(remaining) / float64(ReserveSeconds) * float64(reserveWidth)))
	return []Segment{
		{Rect: rect(BarX, BarY, drainWidth, BarHeight), Color: Blue},
	}
}

// Outline is the white frame drawn behind the bar, FrameMargin larger on
// every side.
func Outline() Segment {
	return Segment{
		Rect:  rect(BarX-FrameMargin, BarY-FrameMargin, TotalWidth+2*FrameMargin, BarHeight+2*FrameMargin),
		Color: White,
	}
}

// Frame is everything the display draws for one countdown second.
type Frame struct {
	Remaining int
	Label     string
	Outline   Segment
	Bar       []Segment
}

// Compose builds the frame for the given seconds remaining.
func Compose(remaining int) Frame {
	return Frame{
		Remaining: remaining,
		Label:     strconv.Itoa(remaining),
		Outline:   Outline(),
		Bar:       Render(remaining),
	}
}

func rect(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}
