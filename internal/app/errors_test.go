package app

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/dshills/easel/internal/canvas"
	"github.com/dshills/easel/internal/codec"
	"github.com/dshills/easel/internal/dispatcher"
	"github.com/dshills/easel/internal/script"
	"github.com/dshills/easel/internal/storage"
)

func TestOperationError(t *testing.T) {
	inner := errors.New("disk full")
	err := NewOperationError("save_image", "a.png", inner)

	if got, want := err.Error(), "save_image a.png: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}

	noTarget := NewOperationError("load_image", "", inner)
	if got, want := noTarget.Error(), "load_image: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var nilErr *OperationError
	if nilErr.Error() != "" || nilErr.Unwrap() != nil {
		t.Error("nil OperationError should be empty")
	}
}

func TestComponentError(t *testing.T) {
	inner := errors.New("boom")
	tests := []struct {
		err  *ComponentError
		want string
	}{
		{NewComponentError("config", "reload", inner), "config: reload: boom"},
		{NewComponentError("hub", "close", nil), "hub: close"},
		{NewComponentError("watcher", "", inner), "watcher: boom"},
		{NewComponentError("bus", "", nil), "bus"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}

	if !errors.Is(NewComponentError("config", "reload", inner), inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestInitError(t *testing.T) {
	err := &InitError{Component: "storage", Err: fs.ErrPermission}
	if got, want := err.Error(), "init storage: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code dispatcher.Code
		ok   bool
	}{
		{"encoding", fmt.Errorf("%w: bad base64", codec.ErrInvalidEncoding), dispatcher.CodeInvalidEncoding, true},
		{"color", fmt.Errorf("%w: red", canvas.ErrInvalidColor), dispatcher.CodeInvalidArgument, true},
		{"shape", canvas.ErrUnknownShape, dispatcher.CodeInvalidArgument, true},
		{"range", canvas.ErrCoordinateRange, dispatcher.CodeInvalidArgument, true},
		{"outside root", NewOperationError("save_image", "../x", &storage.Error{Op: "resolve", Err: storage.ErrOutsideRoot}), dispatcher.CodeInvalidArgument, true},
		{"io", NewOperationError("load_image", "x", &storage.Error{Op: "load", Err: fs.ErrNotExist}), dispatcher.CodeIOError, true},
		{"script", fmt.Errorf("%w: oops", script.ErrScript), dispatcher.CodeScriptError, true},
		{"disabled", script.ErrDisabled, dispatcher.CodeScriptError, true},
		{"other", errors.New("something"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := classifyError(tt.err)
			if code != tt.code || ok != tt.ok {
				t.Errorf("classifyError() = (%q, %v), want (%q, %v)", code, ok, tt.code, tt.ok)
			}
		})
	}
}
