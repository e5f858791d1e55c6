package detector

import (
	"image"
	"log"

	"screen-cue-overlay/src/screenshot"
)

// Region geometry: a fixed square centered horizontally near the top edge.
const (
	RegionWidth  = 75
	RegionHeight = 75
	RegionTop    = 10
)

// Threshold is an inclusive per-channel RGB range plus the number of matching
// pixels that must be exceeded for a match.
type Threshold struct {
	Min       [3]uint8
	Max       [3]uint8
	MinPixels int
}

// DefaultThreshold matches pure dark-to-mid red.
var DefaultThreshold = Threshold{
	Min:       [3]uint8{124, 0, 0},
	Max:       [3]uint8{170, 0, 0},
	MinPixels: 100,
}

// Capturer is the screen-capture collaborator. screenshot.Screen implements it.
type Capturer interface {
	Bounds() (image.Rectangle, error)
	CaptureRect(r image.Rectangle) (*image.RGBA, error)
}

// Detector samples the detection region and reports whether the color cue is
// present. It is not safe for concurrent use; the owning loop calls it.
type Detector struct {
	capturer  Capturer
	threshold Threshold
	onDetect  func()
	lastCount int
	logCounts bool
}

// New returns a Detector using DefaultThreshold. A nil onDetect is replaced by
// a no-op.
func New(capturer Capturer, onDetect func()) *Detector {
	if onDetect == nil {
		onDetect = func() {}
	}
	return &Detector{capturer: capturer, threshold: DefaultThreshold, onDetect: onDetect}
}

// SetLogCounts enables logging the matching-pixel count of every evaluation.
func (d *Detector) SetLogCounts(enabled bool) { d.logCounts = enabled }

// Threshold returns the threshold in use.
func (d *Detector) Threshold() Threshold { return d.threshold }

// LastCount returns the matching-pixel count of the most recent evaluation.
func (d *Detector) LastCount() int { return d.lastCount }

// Region returns the detection rectangle for a display with the given bounds.
func Region(screen image.Rectangle) image.Rectangle {
	left := screen.Min.X + (screen.Dx()-RegionWidth)/2
	top := screen.Min.Y + RegionTop
	return image.Rect(left, top, left+RegionWidth, top+RegionHeight)
}

// Sample captures the detection region of the current display and evaluates
// it. Capture failures are returned as *screenshot.CaptureError with a false
// result; the detection callback only runs on a match.
func (d *Detector) Sample() (bool, error) {
	bounds, err := d.capturer.Bounds()
	if err != nil {
		return false, err
	}
	img, err := d.capturer.CaptureRect(Region(bounds))
	if err != nil {
		return false, err
	}
	return d.SampleImage(img), nil
}

// SampleFile evaluates an image file instead of the live screen. Load failures
// are returned as *screenshot.ImageLoadError.
func (d *Detector) SampleFile(path string) (bool, error) {
	img, err := screenshot.LoadImage(path)
	if err != nil {
		return false, err
	}
	return d.SampleImage(img), nil
}

// SampleImage evaluates img with the detector's threshold and invokes the
// detection callback when it matches.
func (d *Detector) SampleImage(img image.Image) bool {
	d.lastCount = CountMatches(img, d.threshold)
	if d.logCounts {
		log.Printf("Detector: %d matching pixels", d.lastCount)
	}
	if d.lastCount > d.threshold.MinPixels {
		d.onDetect()
		return true
	}
	return false
}

// CountMatches returns the number of pixels of img whose R, G and B components
// all fall within th's inclusive range.
func CountMatches(img image.Image, th Threshold) int {
	rgba := screenshot.ToRGBA(img)
	b := rgba.Bounds()
	count := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := rgba.Pix[rgba.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			p := row[x*4 : x*4+3]
			if inRange(p[0], th.Min[0], th.Max[0]) &&
				inRange(p[1], th.Min[1], th.Max[1]) &&
				inRange(p[2], th.Min[2], th.Max[2]) {
				count++
			}
		}
	}
	return count
}

func inRange(v, lo, hi uint8) bool { return v >= lo && v <= hi }
