package session

import (
	"image"
	"testing"
	"time"
)

func TestTickCountsDownToExpiry(t *testing.T) {
	s := New(time.Unix(0, 0))
	if s.Remaining() != TotalSeconds {
		t.Fatalf("Expected %d seconds remaining, got %d", TotalSeconds, s.Remaining())
	}

	prev := s.Remaining()
	for i := 1; i <= TotalSeconds; i++ {
		remaining, expired := s.Tick()
		if remaining != prev-1 {
			t.Fatalf("tick %d: expected %d remaining, got %d", i, prev-1, remaining)
		}
		if expired != (i == TotalSeconds) {
			t.Fatalf("tick %d: expired=%v", i, expired)
		}
		prev = remaining
	}
	if !s.Expired() {
		t.Error("Expected session to be expired")
	}
}

func TestTickAfterExpiryStaysAtZero(t *testing.T) {
	s := New(time.Now())
	for i := 0; i < TotalSeconds; i++ {
		s.Tick()
	}
	remaining, expired := s.Tick()
	if remaining != 0 || !expired {
		t.Errorf("Expected (0, true) after expiry, got (%d, %v)", remaining, expired)
	}
}

func TestCreatedAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if got := New(now).CreatedAt(); !got.Equal(now) {
		t.Errorf("CreatedAt() = %v, want %v", got, now)
	}
}

func TestReserveWidth(t *testing.T) {
	if got := ReserveWidth(); got != 28 {
		t.Errorf("ReserveWidth() = %d, want 28", got)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		want      []Segment
	}{
		{
			name:      "full",
			remaining: 45,
			want: []Segment{
				{Rect: image.Rect(10, 75, 38, 85), Color: Blue},
				{Rect: image.Rect(38, 75, 190, 85), Color: Green},
			},
		},
		{
			name:      "progress phase",
			remaining: 30,
			want: []Segment{
				{Rect: image.Rect(10, 75, 38, 85), Color: Blue},
				{Rect: image.Rect(38, 75, 130, 85), Color: Green},
			},
		},
		{
			name:      "last progress second",
			remaining: 8,
			want: []Segment{
				{Rect: image.Rect(10, 75, 38, 85), Color: Blue},
				{Rect: image.Rect(38, 75, 42, 85), Color: Green},
			},
		},
		{
			name:      "reserve boundary",
			remaining: 7,
			want:      []Segment{{Rect: image.Rect(10, 75, 38, 85), Color: Blue}},
		},
		{
			name:      "draining",
			remaining: 3,
			want:      []Segment{{Rect: image.Rect(10, 75, 22, 85), Color: Blue}},
		},
		{
			name:      "empty",
			remaining: 0,
			want:      []Segment{{Rect: image.Rect(10, 75, 10, 85), Color: Blue}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.remaining)
			if len(got) != len(tt.want) {
				t.Fatalf("Render(%d) returned %d segments, want %d", tt.remaining, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Render(%d)[%d] = %+v, want %+v", tt.remaining, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRenderWidths(t *testing.T) {
	full := Render(45)
	if full[0].Width() != 28 || full[1].Width() != 152 {
		t.Errorf("Render(45) widths = %d, %d; want 28, 152", full[0].Width(), full[1].Width())
	}
	if w := Render(7)[0].Width(); w != ReserveWidth() {
		t.Errorf("Render(7) drain width = %d, want %d", w, ReserveWidth())
	}
	if w := Render(0)[0].Width(); w != 0 {
		t.Errorf("Render(0) drain width = %d, want 0", w)
	}
}

func TestRenderBarNeverGrows(t *testing.T) {
	total := func(segs []Segment) int {
		w := 0
		for _, s := range segs {
			w += s.Width()
		}
		return w
	}
	prev := total(Render(TotalSeconds))
	for r := TotalSeconds - 1; r >= 0; r-- {
		w := total(Render(r))
		if w > prev {
			t.Fatalf("bar grew from %d to %d at %d seconds", prev, w, r)
		}
		prev = w
	}
}

func TestRenderClampsInput(t *testing.T) {
	if got, want := Render(-3), Render(0); got[0] != want[0] {
		t.Errorf("Render(-3) = %+v, want %+v", got, want)
	}
	if got := Render(60); got[1].Width() != 152 {
		t.Errorf("Render(60) progress width = %d, want 152", got[1].Width())
	}
}

func TestOutline(t *testing.T) {
	o := Outline()
	if o.Rect != image.Rect(5, 70, 195, 90) {
		t.Errorf("Outline rect = %v, want (5,70)-(195,90)", o.Rect)
	}
	if o.Color != White {
		t.Errorf("Outline color = %v", o.Color)
	}
}

func TestCompose(t *testing.T) {
	f := Compose(12)
	if f.Label != "12" || f.Remaining != 12 {
		t.Errorf("Compose(12) label=%q remaining=%d", f.Label, f.Remaining)
	}
	if len(f.Bar) != 2 {
		t.Errorf("Compose(12) expected two bar segments, got %d", len(f.Bar))
	}
}
