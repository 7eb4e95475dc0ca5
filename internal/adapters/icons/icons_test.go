package icons_test

import (
	"bytes"
	"image/png"
	"testing"

	"placemap/internal/adapters/icons"
)

func TestPin_GeometryAndCap(t *testing.T) {
	for _, count := range []int{0, 1, 42, 99, 250} {
		b, err := icons.Pin(count)
		if err != nil {
			t.Fatalf("Pin(%d): %v", count, err)
		}
		img, err := png.Decode(bytes.NewReader(b))
		if err != nil {
			t.Fatalf("Pin(%d) not a PNG: %v", count, err)
		}
		if img.Bounds().Dx() != icons.PinW || img.Bounds().Dy() != icons.PinH {
			t.Fatalf("Pin(%d) size %v", count, img.Bounds())
		}
	}

	// Counts over the cap render identically to the cap.
	capped, _ := icons.Pin(icons.MaxPinCount)
	over, _ := icons.Pin(500)
	if !bytes.Equal(capped, over) {
		t.Fatalf("counts above %d must render as %d", icons.MaxPinCount, icons.MaxPinCount)
	}
}

func TestTextBubble_WidthTracksName(t *testing.T) {
	short, err := icons.TextBubble("A")
	if err != nil {
		t.Fatalf("TextBubble: %v", err)
	}
	long, err := icons.TextBubble("A Much Longer Place Name")
	if err != nil {
		t.Fatalf("TextBubble: %v", err)
	}

	si, _ := png.Decode(bytes.NewReader(short))
	li, _ := png.Decode(bytes.NewReader(long))
	if si.Bounds().Dy() != icons.BubbleH || li.Bounds().Dy() != icons.BubbleH {
		t.Fatalf("bubble heights: %v and %v", si.Bounds(), li.Bounds())
	}
	if li.Bounds().Dx() <= si.Bounds().Dx() {
		t.Fatalf("longer name must widen the bubble: %d vs %d",
			li.Bounds().Dx(), si.Bounds().Dx())
	}
}
