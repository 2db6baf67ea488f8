package canvas

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// ErrUnknownShape is returned when a shape name is not recognised.
var ErrUnknownShape = errors.New("unknown shape")

// Kind is the type of primitive to draw.
type Kind int

const (
	// Line is a one-pixel-wide segment between two points.
	Line Kind = iota + 1
	// Rect is a hollow, axis-aligned rectangle outline.
	Rect
)

// String returns the name used on the wire.
func (k Kind) String() string {
	switch k {
	case Line:
		return "line"
	case Rect:
		return "rect"
	default:
		return "unknown"
	}
}

// ParseKind converts a wire name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "line":
		return Line, nil
	case "rect", "rectangle":
		return Rect, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownShape, s)
	}
}

// Shape describes a primitive dragged from From to To.
type Shape struct {
	Kind Kind
	From image.Point
	To   image.Point
}

// Extent returns the rectangle covered by a Rect shape. The endpoints are
// ordered per axis first, so a drag in any direction yields the same
// rectangle. The result spans [min, max) on each axis and is at least one
// pixel wide and tall.
func Extent(from, to image.Point) image.Rectangle {
	x0, x1 := from.X, to.X
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	y0, y1 := from.Y, to.Y
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	if x1 == x0 {
		x1++
	}
	if y1 == y0 {
		y1++
	}
	return image.Rectangle{Min: image.Pt(x0, y0), Max: image.Pt(x1, y1)}
}

// MaxCoordinate bounds the endpoint values accepted by Validate. Points
// beyond the canvas are clipped while drawing; this only keeps the
// rasterizer from walking absurdly long segments.
const MaxCoordinate = 1 << 14

// ErrCoordinateRange is returned for endpoints outside [0, MaxCoordinate].
var ErrCoordinateRange = errors.New("coordinate out of range")

// Validate checks the kind and endpoints of s.
func (s Shape) Validate() error {
	if s.Kind != Line && s.Kind != Rect {
		return fmt.Errorf("%w: kind %d", ErrUnknownShape, int(s.Kind))
	}
	for _, p := range []image.Point{s.From, s.To} {
		if p.X < 0 || p.Y < 0 || p.X > MaxCoordinate || p.Y > MaxCoordinate {
			return fmt.Errorf("%w: %v", ErrCoordinateRange, p)
		}
	}
	return nil
}
