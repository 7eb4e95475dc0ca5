// Package icons renders the two marker bitmaps the map shell loads:
// the numbered review pin and the place-name text bubble. Both are
// generated on demand; the shell scales them to half size client-side.
package icons

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	PinW = 66
	PinH = 96

	BubbleH = 42

	// Review counts cap at two digits on the pin.
	MaxPinCount = 99
)

var (
	pinFill    = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	pinBorder  = color.NRGBA{R: 0x30, G: 0x8D, B: 0x20, A: 0xFF}
	pinNumber  = color.NRGBA{R: 0x30, G: 0x8D, B: 0x20, A: 0xFF}
	bubbleDot  = color.NRGBA{R: 0x8D, G: 0x6E, B: 0x63, A: 0xFF}
	bubbleRing = color.NRGBA{R: 0xCC, G: 0xCC, B: 0xCC, A: 0xFF}
	labelText  = color.NRGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xFF}
	labelHalo  = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

// Pin renders the numbered review pin: a bordered balloon with a stem,
// the count drawn across the balloon's upper half.
func Pin(count int) ([]byte, error) {
	if count < 0 {
		count = 0
	}
	if count > MaxPinCount {
		count = MaxPinCount
	}

	img := image.NewNRGBA(image.Rect(0, 0, PinW, PinH))

	// Balloon with border, then the stem down to the anchor point.
	fillCircle(img, PinW/2, 30, 30, pinBorder)
	fillCircle(img, PinW/2, 30, 26, pinFill)
	fillTriangle(img, PinW/2, PinH, 14, 48, PinW-14, 48, pinBorder)
	fillTriangle(img, PinW/2, PinH-10, 20, 46, PinW-20, 46, pinFill)

	label := renderLabel(strconv.Itoa(count), pinNumber)
	label = imaging.Resize(label, label.Bounds().Dx()*2, label.Bounds().Dy()*2, imaging.NearestNeighbor)
	x := (PinW - label.Bounds().Dx()) / 2
	out := imaging.Overlay(img, label, image.Pt(x, 14), 1.0)

	return encodePNG(out)
}

// TextBubble renders a place-name label: a small anchor dot followed by
// the name with a white halo so it reads over any map tile.
func TextBubble(name string) ([]byte, error) {
	label := renderLabel(name, labelText)
	halo := renderLabel(name, labelHalo)
	scale := 2
	lw := label.Bounds().Dx() * scale
	lh := label.Bounds().Dy() * scale
	label = imaging.Resize(label, lw, lh, imaging.NearestNeighbor)
	halo = imaging.Resize(halo, lw, lh, imaging.NearestNeighbor)

	img := image.NewNRGBA(image.Rect(0, 0, 32+lw+4, BubbleH))
	fillCircle(img, 16, 16, 12, bubbleRing)
	fillRect(img, 12, 12, 20, 20, bubbleDot)

	out := imaging.Clone(img)
	ty := (BubbleH - lh) / 2
	for _, off := range []image.Point{{-2, 0}, {2, 0}, {0, -2}, {0, 2}} {
		out = imaging.Overlay(out, halo, image.Pt(32+off.X, ty+off.Y), 1.0)
	}
	out = imaging.Overlay(out, label, image.Pt(32, ty), 1.0)

	return encodePNG(out)
}

// renderLabel draws s with the built-in bitmap face on a tight canvas.
func renderLabel(s string, col color.Color) *image.NRGBA {
	face := basicfont.Face7x13
	w := font.MeasureString(face, s).Ceil()
	if w < 1 {
		w = 1
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, face.Height))
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(s)
	return img
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fillCircle(img *image.NRGBA, cx, cy, r int, col color.Color) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, col)
			}
		}
	}
}

func fillRect(img *image.NRGBA, x0, y0, x1, y1 int, col color.Color) {
	draw.Draw(img, image.Rect(x0, y0, x1, y1), image.NewUniform(col), image.Point{}, draw.Over)
}

// fillTriangle rasterizes the triangle (ax,ay)-(bx,by)-(cx,cy) with a
// sign test per pixel; the shapes here are tiny, so brute force is fine.
func fillTriangle(img *image.NRGBA, ax, ay, bx, by, cx, cy int, col color.Color) {
	minX, maxX := min3(ax, bx, cx), max3(ax, bx, cx)
	minY, maxY := min3(ay, by, cy), max3(ay, by, cy)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			d1 := sign(x, y, ax, ay, bx, by)
			d2 := sign(x, y, bx, by, cx, cy)
			d3 := sign(x, y, cx, cy, ax, ay)
			neg := d1 < 0 || d2 < 0 || d3 < 0
			pos := d1 > 0 || d2 > 0 || d3 > 0
			if !(neg && pos) {
				img.Set(x, y, col)
			}
		}
	}
}

func sign(px, py, ax, ay, bx, by int) int {
	return (px-bx)*(ay-by) - (ax-bx)*(py-by)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func max3(a, b, c int) int {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}
