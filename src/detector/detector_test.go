package detector

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"screen-cue-overlay/src/screenshot"
)

type fakeCapturer struct {
	bounds    image.Rectangle
	boundsErr error
	img       *image.RGBA
	err       error
	requested []image.Rectangle
}

func (f *fakeCapturer) Bounds() (image.Rectangle, error) { return f.bounds, f.boundsErr }

func (f *fakeCapturer) CaptureRect(r image.Rectangle) (*image.RGBA, error) {
	f.requested = append(f.requested, r)
	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

// regionWithMatches returns a 75x75 black image with n pixels set to a
// color inside the default threshold.
func regionWithMatches(n int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, RegionWidth, RegionHeight))
	for i := range img.Pix {
		if i%4 == 3 {
			img.Pix[i] = 0xFF
		}
	}
	for i := 0; i < n; i++ {
		img.SetRGBA(i%RegionWidth, i/RegionWidth, color.RGBA{R: 150, A: 255})
	}
	return img
}

func TestRegion(t *testing.T) {
	tests := []struct {
		name   string
		screen image.Rectangle
		want   image.Rectangle
	}{
		{"1920 wide", image.Rect(0, 0, 1920, 1080), image.Rect(922, 10, 997, 85)},
		{"odd width", image.Rect(0, 0, 1366, 768), image.Rect(645, 10, 720, 85)},
		{"offset display", image.Rect(100, 50, 900, 650), image.Rect(462, 60, 537, 135)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Region(tt.screen); got != tt.want {
				t.Errorf("Region(%v) = %v, want %v", tt.screen, got, tt.want)
			}
		})
	}
}

func TestCountMatchesBoundaries(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 1))
	pixels := []color.RGBA{
		{R: 123, A: 255},       // below min
		{R: 124, A: 255},       // min, inclusive
		{R: 170, A: 255},       // max, inclusive
		{R: 171, A: 255},       // above max
		{R: 150, G: 1, A: 255}, // green out of range
		{R: 150, B: 1, A: 255}, // blue out of range
		{R: 140, A: 255},       // inside
		{R: 255, G: 255, B: 255, A: 255},
	}
	for x, c := range pixels {
		img.SetRGBA(x, 0, c)
	}
	if got := CountMatches(img, DefaultThreshold); got != 3 {
		t.Errorf("CountMatches = %d, want 3", got)
	}
}

func TestCountMatchesSubImage(t *testing.T) {
	img := regionWithMatches(RegionWidth * 2)
	sub := img.SubImage(image.Rect(0, 1, RegionWidth, 3))
	if got := CountMatches(sub, DefaultThreshold); got != RegionWidth {
		t.Errorf("CountMatches(sub) = %d, want %d", got, RegionWidth)
	}
}

func TestSampleThreshold(t *testing.T) {
	tests := []struct {
		matches   int
		want      bool
		callbacks int
	}{
		{0, false, 0},
		{99, false, 0},
		{100, false, 0},
		{101, true, 1},
		{RegionWidth * RegionHeight, true, 1},
	}
	for _, tt := range tests {
		calls := 0
		capt := &fakeCapturer{bounds: image.Rect(0, 0, 1920, 1080), img: regionWithMatches(tt.matches)}
		d := New(capt, func() { calls++ })

		got, err := d.Sample()
		if err != nil {
			t.Fatalf("matches=%d: unexpected error %v", tt.matches, err)
		}
		if got != tt.want {
			t.Errorf("matches=%d: Sample() = %v, want %v", tt.matches, got, tt.want)
		}
		if calls != tt.callbacks {
			t.Errorf("matches=%d: callback fired %d times, want %d", tt.matches, calls, tt.callbacks)
		}
		if d.LastCount() != tt.matches {
			t.Errorf("matches=%d: LastCount() = %d", tt.matches, d.LastCount())
		}
		if len(capt.requested) != 1 || capt.requested[0] != image.Rect(922, 10, 997, 85) {
			t.Errorf("matches=%d: captured %v", tt.matches, capt.requested)
		}
	}
}

func TestSampleCallbackOncePerCall(t *testing.T) {
	calls := 0
	capt := &fakeCapturer{bounds: image.Rect(0, 0, 800, 600), img: regionWithMatches(500)}
	d := New(capt, func() { calls++ })
	for i := 0; i < 3; i++ {
		if ok, _ := d.Sample(); !ok {
			t.Fatal("Expected match")
		}
	}
	if calls != 3 {
		t.Errorf("Expected 3 callbacks for 3 matching samples, got %d", calls)
	}
}

func TestSampleNilCallback(t *testing.T) {
	capt := &fakeCapturer{bounds: image.Rect(0, 0, 800, 600), img: regionWithMatches(500)}
	d := New(capt, nil)
	if ok, err := d.Sample(); !ok || err != nil {
		t.Fatalf("Sample() = %v, %v", ok, err)
	}
}

func TestSampleCaptureError(t *testing.T) {
	capErr := &screenshot.CaptureError{Err: errors.New("permission denied")}
	calls := 0
	d := New(&fakeCapturer{bounds: image.Rect(0, 0, 800, 600), err: capErr}, func() { calls++ })

	ok, err := d.Sample()
	if ok {
		t.Error("Expected no match on capture failure")
	}
	var target *screenshot.CaptureError
	if !errors.As(err, &target) {
		t.Fatalf("Expected *screenshot.CaptureError, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Callback fired on capture failure")
	}
}

func TestSampleBoundsError(t *testing.T) {
	capt := &fakeCapturer{boundsErr: &screenshot.CaptureError{Err: errors.New("no active displays found")}}
	d := New(capt, nil)
	if _, err := d.Sample(); err == nil {
		t.Fatal("Expected error when display bounds are unavailable")
	}
	if len(capt.requested) != 0 {
		t.Errorf("Expected no capture without bounds, got %v", capt.requested)
	}
}

func TestSampleFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, n int) string {
		var buf bytes.Buffer
		if err := png.Encode(&buf, regionWithMatches(n)); err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	calls := 0
	d := New(nil, func() { calls++ })

	ok, err := d.SampleFile(write("match.png", 200))
	if err != nil || !ok {
		t.Fatalf("SampleFile(match) = %v, %v", ok, err)
	}
	ok, err = d.SampleFile(write("nomatch.png", 100))
	if err != nil || ok {
		t.Fatalf("SampleFile(nomatch) = %v, %v", ok, err)
	}
	if calls != 1 {
		t.Errorf("Expected exactly one callback, got %d", calls)
	}
}

func TestSampleFileMissing(t *testing.T) {
	d := New(nil, nil)
	_, err := d.SampleFile(filepath.Join(t.TempDir(), "absent.png"))
	var loadErr *screenshot.ImageLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Expected *screenshot.ImageLoadError, got %v", err)
	}
}
