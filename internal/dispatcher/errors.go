package dispatcher

import (
	"errors"
	"fmt"
)

// Dispatcher errors.
var (
	// ErrNoHandler indicates no handler was found for a command.
	ErrNoHandler = errors.New("dispatcher: no handler for command")

	// ErrInvalidArgs indicates the arguments are not a JSON object.
	ErrInvalidArgs = errors.New("dispatcher: arguments must be a JSON object")

	// ErrPanic indicates the handler panicked.
	ErrPanic = errors.New("dispatcher: handler panic")
)

// Code is the stable, machine-readable category of a failed command.
type Code string

// Reply error codes.
const (
	CodeInvalidArgument Code = "invalid_argument"
	CodeInvalidEncoding Code = "invalid_encoding"
	CodeIOError         Code = "io_error"
	CodeUnknownCommand  Code = "unknown_command"
	CodeScriptError     Code = "script_error"
	CodeInternal        Code = "internal"
)

// Error is a command failure with a reply code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Code)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a reply code.
func NewError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// Errorf creates an Error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument reports a bad or missing command argument.
func InvalidArgument(format string, args ...any) *Error {
	return Errorf(CodeInvalidArgument, format, args...)
}

// Classifier maps an error to a reply code. It returns false when it does
// not recognise the error.
type Classifier func(err error) (Code, bool)

// toError converts any handler error into an *Error.
func toError(err error, classify Classifier) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	switch {
	case errors.Is(err, ErrNoHandler):
		return NewError(CodeUnknownCommand, err)
	case errors.Is(err, ErrInvalidArgs):
		return NewError(CodeInvalidArgument, err)
	}
	if classify != nil {
		if code, ok := classify(err); ok {
			return NewError(code, err)
		}
	}
	return NewError(CodeInternal, err)
}
