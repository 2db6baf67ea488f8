// Package canvas rasterizes primitive shapes onto the fixed-size drawing
// surface.
//
// The canvas is always Width x Height pixels of 8-bit RGBA. Shapes are drawn
// with hard pixel edges; there is no anti-aliasing. Every operation that
// produces a canvas returns a new image and leaves its inputs untouched.
package canvas

import (
	"image"

	"golang.org/x/image/draw"
)

// Canvas dimensions. The drawing surface is never resized.
const (
	Width  = 800
	Height = 600
)

// Bounds is the rectangle covered by every canvas.
var Bounds = image.Rect(0, 0, Width, Height)

// New returns a blank canvas with every pixel fully transparent.
func New() *image.RGBA {
	return image.NewRGBA(Bounds)
}

// Clone returns a copy of img. A nil img yields a blank canvas.
func Clone(img *image.RGBA) *image.RGBA {
	if img == nil {
		return New()
	}
	out := image.NewRGBA(img.Rect)
	draw.Copy(out, img.Rect.Min, img, img.Rect, draw.Src, nil)
	return out
}

// Fit places src at the origin of a fresh canvas. Larger images are cropped
// and smaller ones padded with transparent pixels; nothing is scaled.
func Fit(src image.Image) *image.RGBA {
	dst := New()
	if src == nil {
		return dst
	}
	draw.Copy(dst, image.Point{}, src, src.Bounds(), draw.Src, nil)
	return dst
}
