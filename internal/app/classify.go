package app

import (
	"errors"

	"github.com/dshills/easel/internal/canvas"
	"github.com/dshills/easel/internal/codec"
	"github.com/dshills/easel/internal/dispatcher"
	"github.com/dshills/easel/internal/script"
	"github.com/dshills/easel/internal/storage"
)

// classifyError maps component errors to reply codes.
func classifyError(err error) (dispatcher.Code, bool) {
	switch {
	case errors.Is(err, codec.ErrInvalidEncoding):
		return dispatcher.CodeInvalidEncoding, true
	case errors.Is(err, canvas.ErrInvalidColor),
		errors.Is(err, canvas.ErrUnknownShape),
		errors.Is(err, canvas.ErrCoordinateRange),
		errors.Is(err, storage.ErrOutsideRoot):
		return dispatcher.CodeInvalidArgument, true
	case errors.Is(err, script.ErrScript), errors.Is(err, script.ErrDisabled):
		return dispatcher.CodeScriptError, true
	}

	var se *storage.Error
	if errors.As(err, &se) {
		return dispatcher.CodeIOError, true
	}
	return "", false
}
