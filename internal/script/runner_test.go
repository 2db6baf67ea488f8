package script

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dshills/easel/internal/canvas"
)

var red = color.RGBA{R: 0xff, A: 0xff}

func TestRunDrawsRect(t *testing.T) {
	r := NewRunner()
	got, err := r.Run(context.Background(), `rect(10, 10, 50, 40, "#FF0000")`, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := canvas.Render(nil, canvas.Shape{
		Kind: canvas.Rect,
		From: image.Pt(10, 10),
		To:   image.Pt(50, 40),
	}, red)
	if !bytes.Equal(got.Pix, want.Pix) {
		t.Error("script rect differs from canvas.Render")
	}
}

func TestRunDrawsLines(t *testing.T) {
	r := NewRunner()
	src := `
for i = 0, 9 do
  line(0, i * 10, WIDTH - 1, i * 10, "#00ff00")
end
`
	got, err := r.Run(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if c := got.RGBAAt(canvas.Width-1, 90); c.G != 0xff || c.A != 0xff {
		t.Errorf("pixel (799,90) = %v, want green", c)
	}
	if c := got.RGBAAt(5, 5); c.A != 0 {
		t.Errorf("pixel (5,5) = %v, want transparent", c)
	}
}

func TestRunDimensions(t *testing.T) {
	r := NewRunner()
	src := `
if WIDTH ~= 800 then error("width " .. WIDTH) end
if HEIGHT ~= 600 then error("height " .. HEIGHT) end
`
	if _, err := r.Run(context.Background(), src, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestRunDoesNotMutateBase(t *testing.T) {
	base := canvas.New()
	base.SetRGBA(1, 1, red)
	before := bytes.Clone(base.Pix)

	got, err := NewRunner().Run(context.Background(), `clear() line(0, 0, 5, 0, "#0000ff")`, base)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !bytes.Equal(base.Pix, before) {
		t.Error("Run() modified base")
	}
	if c := got.RGBAAt(1, 1); c.A != 0 {
		t.Errorf("clear() left pixel (1,1) = %v", c)
	}
	if c := got.RGBAAt(3, 0); c.B != 0xff {
		t.Errorf("pixel (3,0) = %v, want blue", c)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		msg    string
	}{
		{"syntax", `line(`, ""},
		{"runtime", `error("boom")`, "boom"},
		{"bad color", `line(0, 0, 1, 1, "red")`, "invalid color"},
		{"bad coordinate", `rect(-1, 0, 1, 1, "#ffffff")`, "coordinate out of range"},
		{"missing arg", `line(0, 0)`, ""},
		{"os closed", `os.execute("true")`, ""},
		{"io closed", `io.open("/etc/passwd")`, ""},
		{"dofile removed", `dofile("x.lua")`, ""},
		{"loadstring removed", `loadstring("return 1")()`, ""},
		{"require removed", `require("os")`, ""},
	}

	r := NewRunner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Run(context.Background(), tt.source, nil)
			if err == nil {
				t.Fatal("Run() error = nil")
			}
			if !errors.Is(err, ErrScript) {
				t.Errorf("Run() error = %v, want ErrScript", err)
			}
			if tt.msg != "" && !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("Run() error = %q, want it to contain %q", err, tt.msg)
			}
		})
	}
}

func TestRunTimeout(t *testing.T) {
	r := NewRunner(WithTimeout(50 * time.Millisecond))

	start := time.Now()
	_, err := r.Run(context.Background(), `while true do end`, nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Run() error = %v, want ErrTimeout", err)
	}
	if !errors.Is(err, ErrScript) {
		t.Errorf("timeout error should wrap ErrScript")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Run() took %v", elapsed)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner().Run(ctx, `while true do end`, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRunCallLimit(t *testing.T) {
	r := NewRunner(WithMaxCalls(10))

	if _, err := r.Run(context.Background(), `for i = 1, 10 do clear() end`, nil); err != nil {
		t.Fatalf("Run() at limit error = %v", err)
	}
	_, err := r.Run(context.Background(), `for i = 1, 11 do clear() end`, nil)
	if !errors.Is(err, ErrCallLimit) {
		t.Fatalf("Run() error = %v, want ErrCallLimit", err)
	}
}

func TestRunDisabled(t *testing.T) {
	_, err := NewRunner(Disabled()).Run(context.Background(), `clear()`, nil)
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("Run() error = %v, want ErrDisabled", err)
	}
}

func TestPrintGoesToLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := NewRunner(WithLogger(logger))
	if _, err := r.Run(context.Background(), `print("hello", 42)`, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "42") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestRunConcurrent(t *testing.T) {
	r := NewRunner()
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := r.Run(context.Background(), `for i = 0, 100 do line(0, i, 100, i, "#ffffff") end`, nil)
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-errs; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}
}
