package script

import "errors"

var (
	// ErrScript is wrapped by every error caused by the script itself.
	ErrScript = errors.New("script error")

	// ErrTimeout is returned when a script runs past its deadline.
	ErrTimeout = errors.New("script timeout")

	// ErrCallLimit is returned when a script issues too many drawing calls.
	ErrCallLimit = errors.New("script draw call limit exceeded")

	// ErrDisabled is returned by a runner created with scripting turned off.
	ErrDisabled = errors.New("scripting disabled")
)
