package canvas

import (
	"image"
	"image/color"
)

// Render draws shape onto a copy of base and returns the copy. A nil base
// is treated as a blank canvas. Unknown kinds leave the copy unchanged.
func Render(base *image.RGBA, shape Shape, c color.Color) *image.RGBA {
	r := NewRasterizer(base)
	switch shape.Kind {
	case Line:
		r.Line(shape.From, shape.To, c)
	case Rect:
		r.Rect(shape.From, shape.To, c)
	}
	return r.Image()
}

// Rasterizer draws primitives onto its own canvas. It is not safe for
// concurrent use.
type Rasterizer struct {
	img *image.RGBA
}

// NewRasterizer starts from a copy of base, or a blank canvas when base is
// nil. A base of the wrong size is fitted to the canvas.
func NewRasterizer(base *image.RGBA) *Rasterizer {
	var img *image.RGBA
	switch {
	case base == nil:
		img = New()
	case base.Rect != Bounds:
		img = Fit(base)
	default:
		img = Clone(base)
	}
	return &Rasterizer{img: img}
}

// Image returns the canvas being drawn on.
func (r *Rasterizer) Image() *image.RGBA {
	return r.img
}

// Clear resets every pixel to transparent.
func (r *Rasterizer) Clear() {
	clear(r.img.Pix)
}

// Line draws a segment including both endpoints using Bresenham's algorithm.
func (r *Rasterizer) Line(from, to image.Point, c color.Color) {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)

	x0, y0 := from.X, from.Y
	x1, y1 := to.X, to.Y
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	e := dx + dy
	for {
		r.set(x0, y0, rgba)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// Rect draws the one-pixel outline of Extent(from, to).
func (r *Rasterizer) Rect(from, to image.Point, c color.Color) {
	ext := Extent(from, to)
	left, top := ext.Min.X, ext.Min.Y
	right, bottom := ext.Max.X-1, ext.Max.Y-1

	r.Line(image.Pt(left, top), image.Pt(right, top), c)
	r.Line(image.Pt(left, bottom), image.Pt(right, bottom), c)
	r.Line(image.Pt(left, top), image.Pt(left, bottom), c)
	r.Line(image.Pt(right, top), image.Pt(right, bottom), c)
}

// set writes one pixel, clipping to the canvas.
func (r *Rasterizer) set(x, y int, c color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(r.img.Rect) {
		return
	}
	r.img.SetRGBA(x, y, c)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
