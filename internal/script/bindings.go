package script

import (
	"image"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/easel/internal/canvas"
)

// bindings exposes a rasterizer to Lua.
type bindings struct {
	raster    *canvas.Rasterizer
	maxCalls  int
	calls     int
	overLimit bool
}

func newBindings(r *canvas.Rasterizer, maxCalls int) *bindings {
	return &bindings{raster: r, maxCalls: maxCalls}
}

func (b *bindings) install(L *lua.LState) {
	L.SetGlobal("WIDTH", lua.LNumber(canvas.Width))
	L.SetGlobal("HEIGHT", lua.LNumber(canvas.Height))
	L.SetGlobal("line", L.NewFunction(b.shape(canvas.Line)))
	L.SetGlobal("rect", L.NewFunction(b.shape(canvas.Rect)))
	L.SetGlobal("clear", L.NewFunction(b.clear))
}

func (b *bindings) count(L *lua.LState) {
	b.calls++
	if b.calls > b.maxCalls {
		b.overLimit = true
		L.RaiseError("more than %d drawing calls", b.maxCalls)
	}
}

func (b *bindings) shape(kind canvas.Kind) lua.LGFunction {
	return func(L *lua.LState) int {
		b.count(L)
		s := canvas.Shape{
			Kind: kind,
			From: image.Pt(L.CheckInt(1), L.CheckInt(2)),
			To:   image.Pt(L.CheckInt(3), L.CheckInt(4)),
		}
		if err := s.Validate(); err != nil {
			L.RaiseError("%s: %v", kind, err)
		}
		c, err := canvas.ParseColor(L.CheckString(5))
		if err != nil {
			L.ArgError(5, err.Error())
		}
		switch kind {
		case canvas.Line:
			b.raster.Line(s.From, s.To, c)
		case canvas.Rect:
			b.raster.Rect(s.From, s.To, c)
		}
		return 0
	}
}

func (b *bindings) clear(L *lua.LState) int {
	b.count(L)
	b.raster.Clear()
	return 0
}
