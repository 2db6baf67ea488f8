package canvas

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

var red = color.NRGBA{R: 0xff, A: 0xff}

func isRed(img *image.RGBA, x, y int) bool {
	return img.RGBAAt(x, y) == color.RGBA{R: 0xff, A: 0xff}
}

func isZero(img *image.RGBA, x, y int) bool {
	return img.RGBAAt(x, y) == color.RGBA{}
}

func countSet(img *image.RGBA) int {
	n := 0
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if !isZero(img, x, y) {
				n++
			}
		}
	}
	return n
}

func TestNewIsBlank(t *testing.T) {
	img := New()
	if img.Rect != Bounds {
		t.Fatalf("bounds = %v, want %v", img.Rect, Bounds)
	}
	if len(img.Pix) != Width*Height*4 {
		t.Fatalf("len(Pix) = %d", len(img.Pix))
	}
	if countSet(img) != 0 {
		t.Error("new canvas should be fully transparent")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FF0000", color.NRGBA{R: 255, A: 255}, false},
		{"#00ff7f", color.NRGBA{G: 255, B: 127, A: 255}, false},
		{"#123abc", color.NRGBA{R: 0x12, G: 0x3a, B: 0xbc, A: 255}, false},
		{"FF0000", color.NRGBA{}, true},
		{"#F00", color.NRGBA{}, true},
		{"#GG0000", color.NRGBA{}, true},
		{"#FF00001", color.NRGBA{}, true},
		{"", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidColor) {
					t.Fatalf("ParseColor(%q) error = %v, want ErrInvalidColor", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColor(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatColor(t *testing.T) {
	if got := FormatColor(red); got != "#ff0000" {
		t.Errorf("FormatColor = %q", got)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"line": Line, "rect": Rect, "RECT": Rect, "rectangle": Rect} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseKind("circle"); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("ParseKind(circle) error = %v", err)
	}
}

func TestExtentNormalizesReversedPoints(t *testing.T) {
	tests := []struct {
		name     string
		from, to image.Point
		want     image.Rectangle
	}{
		{"forward", image.Pt(10, 10), image.Pt(50, 40), image.Rect(10, 10, 50, 40)},
		{"reversed", image.Pt(50, 40), image.Pt(10, 10), image.Rect(10, 10, 50, 40)},
		{"mixed", image.Pt(50, 10), image.Pt(10, 40), image.Rect(10, 10, 50, 40)},
		{"degenerate", image.Pt(5, 5), image.Pt(5, 5), image.Rect(5, 5, 6, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extent(tt.from, tt.to); got != tt.want {
				t.Errorf("Extent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderRectOutline(t *testing.T) {
	img := Render(nil, Shape{Kind: Rect, From: image.Pt(10, 10), To: image.Pt(50, 40)}, red)

	for _, p := range []image.Point{{10, 10}, {49, 10}, {10, 39}, {49, 39}, {30, 10}, {30, 39}, {10, 25}, {49, 25}} {
		if !isRed(img, p.X, p.Y) {
			t.Errorf("pixel %v should be on the outline", p)
		}
	}
	for _, p := range []image.Point{{30, 25}, {11, 11}, {50, 40}, {9, 10}, {0, 0}, {799, 599}} {
		if !isZero(img, p.X, p.Y) {
			t.Errorf("pixel %v should be transparent", p)
		}
	}

	// Perimeter of a 40x30 outline.
	if got, want := countSet(img), 2*40+2*30-4; got != want {
		t.Errorf("outline pixels = %d, want %d", got, want)
	}
}

func TestRenderRectReversedMatchesForward(t *testing.T) {
	fwd := Render(nil, Shape{Kind: Rect, From: image.Pt(10, 10), To: image.Pt(50, 40)}, red)
	rev := Render(nil, Shape{Kind: Rect, From: image.Pt(50, 40), To: image.Pt(10, 10)}, red)

	for i := range fwd.Pix {
		if fwd.Pix[i] != rev.Pix[i] {
			t.Fatalf("reversed rectangle differs at byte %d", i)
		}
	}
}

func TestRenderLine(t *testing.T) {
	tests := []struct {
		name     string
		from, to image.Point
		count    int
	}{
		{"horizontal", image.Pt(0, 0), image.Pt(9, 0), 10},
		{"vertical", image.Pt(3, 3), image.Pt(3, 12), 10},
		{"diagonal", image.Pt(0, 0), image.Pt(9, 9), 10},
		{"reversed diagonal", image.Pt(9, 9), image.Pt(0, 0), 10},
		{"single point", image.Pt(7, 7), image.Pt(7, 7), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := Render(nil, Shape{Kind: Line, From: tt.from, To: tt.to}, red)
			if !isRed(img, tt.from.X, tt.from.Y) || !isRed(img, tt.to.X, tt.to.Y) {
				t.Error("endpoints must be drawn")
			}
			if got := countSet(img); got != tt.count {
				t.Errorf("pixels = %d, want %d", got, tt.count)
			}
		})
	}
}

func TestRenderClipsOutsideCanvas(t *testing.T) {
	img := Render(nil, Shape{Kind: Line, From: image.Pt(790, 300), To: image.Pt(820, 300)}, red)
	if got := countSet(img); got != 10 {
		t.Errorf("visible pixels = %d, want 10", got)
	}
}

func TestRenderDoesNotMutateBase(t *testing.T) {
	base := New()
	base.SetRGBA(1, 1, color.RGBA{B: 0xff, A: 0xff})

	out := Render(base, Shape{Kind: Rect, From: image.Pt(0, 0), To: image.Pt(20, 20)}, red)

	if !isZero(base, 0, 0) {
		t.Error("base was modified")
	}
	if out.RGBAAt(1, 1) != (color.RGBA{B: 0xff, A: 0xff}) {
		t.Error("base pixels should carry over to the output")
	}
	if !isRed(out, 0, 0) {
		t.Error("shape missing from output")
	}
}

func TestFitCropsAndPads(t *testing.T) {
	big := image.NewRGBA(image.Rect(0, 0, 1000, 700))
	big.SetRGBA(799, 599, color.RGBA{G: 0xff, A: 0xff})
	big.SetRGBA(900, 650, color.RGBA{G: 0xff, A: 0xff})

	got := Fit(big)
	if got.Rect != Bounds {
		t.Fatalf("bounds = %v", got.Rect)
	}
	if got.RGBAAt(799, 599).G != 0xff {
		t.Error("in-bounds pixel lost")
	}

	small := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	small.SetNRGBA(1, 1, color.NRGBA{R: 0xff, A: 0xff})
	got = Fit(small)
	if !isRed(got, 1, 1) || !isZero(got, 2, 2) {
		t.Error("small image should be padded at the origin")
	}
}

func TestRasterizerClear(t *testing.T) {
	r := NewRasterizer(nil)
	r.Line(image.Pt(0, 0), image.Pt(10, 0), red)
	r.Clear()
	if countSet(r.Image()) != 0 {
		t.Error("Clear left pixels set")
	}
}

func TestShapeValidate(t *testing.T) {
	ok := Shape{Kind: Line, From: image.Pt(0, 0), To: image.Pt(800, 600)}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if err := (Shape{Kind: Line, From: image.Pt(-1, 0)}).Validate(); !errors.Is(err, ErrCoordinateRange) {
		t.Errorf("negative coordinate error = %v", err)
	}
	if err := (Shape{Kind: Kind(42)}).Validate(); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("bad kind error = %v", err)
	}
}

func TestCloneSubImage(t *testing.T) {
	backing := image.NewRGBA(image.Rect(0, 0, Width+10, Height+5))
	opaqueRed := color.RGBA{R: 0xff, A: 0xff}
	blue := color.RGBA{B: 0xff, A: 0xff}
	backing.SetRGBA(5, 7, opaqueRed)
	backing.SetRGBA(Width-1, Height-1, blue)
	backing.SetRGBA(Width+3, 2, opaqueRed) // outside the sub-image

	sub := backing.SubImage(Bounds).(*image.RGBA)
	got := Clone(sub)

	if got.Rect != Bounds || got.Stride != 4*Width {
		t.Fatalf("clone rect = %v stride = %d", got.Rect, got.Stride)
	}
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if got.RGBAAt(x, y) != sub.RGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got.RGBAAt(x, y), sub.RGBAAt(x, y))
			}
		}
	}

	offset := backing.SubImage(image.Rect(4, 6, 8, 9)).(*image.RGBA)
	small := Clone(offset)
	if small.Rect != offset.Rect {
		t.Fatalf("clone rect = %v, want %v", small.Rect, offset.Rect)
	}
	if small.RGBAAt(5, 7) != opaqueRed {
		t.Errorf("offset clone pixel (5,7) = %v, want %v", small.RGBAAt(5, 7), opaqueRed)
	}
}

func TestRasterizerFromSubImage(t *testing.T) {
	backing := image.NewRGBA(image.Rect(0, 0, Width+10, Height))
	opaqueRed := color.RGBA{R: 0xff, A: 0xff}
	backing.SetRGBA(Width-1, 10, opaqueRed)

	r := NewRasterizer(backing.SubImage(Bounds).(*image.RGBA))
	if got := r.Image().RGBAAt(Width-1, 10); got != opaqueRed {
		t.Errorf("pixel = %v, want %v", got, opaqueRed)
	}
}
