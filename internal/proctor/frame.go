package proctor

import (
	"image"
	"image/draw"
)

// Frame is one decoded camera frame: RGBA bytes, 4 per pixel, row-major.
// Frames are classified and then discarded, never persisted.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// FromImage converts any decoded image into a Frame. The WS bridge uses this
// after JPEG decode; synthetic sources build Frames directly.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || !b.Min.Eq(image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return &Frame{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    rgba.Pix,
	}
}

// at returns the RGB channels of pixel (x, y). Callers stay inside bounds.
func (f *Frame) at(x, y int) (r, g, b uint8) {
	i := (y*f.Width + x) * 4
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Region bounds the expected face area as fractions of frame dimensions.
type Region struct {
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
}

// DefaultRegion is the centered sub-region where a properly seated
// candidate's face lands: middle half horizontally, upper band vertically.
func DefaultRegion() Region {
	return Region{Left: 0.25, Right: 0.75, Top: 0.10, Bottom: 0.70}
}

// pixelBounds converts the fractional region into pixel coordinates for the
// given frame size, clamped to the frame.
func (r Region) pixelBounds(w, h int) (x0, y0, x1, y1 int) {
	x0 = int(float64(w) * r.Left)
	x1 = int(float64(w) * r.Right)
	y0 = int(float64(h) * r.Top)
	y1 = int(float64(h) * r.Bottom)
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > w {
		x1 = w
	}
	if y1 > h {
		y1 = h
	}
	return
}
