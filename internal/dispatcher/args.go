package dispatcher

import (
	"bytes"
	"math"

	"github.com/tidwall/gjson"
)

// Args is the JSON object of arguments passed to a command.
type Args struct {
	raw gjson.Result
}

// ParseArgs validates data as a JSON object. Empty input is an empty object.
func ParseArgs(data []byte) (Args, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		data = []byte("{}")
	}
	if !gjson.ValidBytes(data) {
		return Args{}, ErrInvalidArgs
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return Args{}, ErrInvalidArgs
	}
	return Args{raw: res}, nil
}

// MustArgs parses a JSON object literal and panics if it is invalid.
func MustArgs(s string) Args {
	a, err := ParseArgs([]byte(s))
	if err != nil {
		panic(err)
	}
	return a
}

// Raw returns the arguments as JSON text.
func (a Args) Raw() string {
	if a.raw.Raw == "" {
		return "{}"
	}
	return a.raw.Raw
}

// Get returns the raw gjson value for key.
func (a Args) Get(key string) gjson.Result {
	return a.raw.Get(key)
}

// Has reports whether key is present and not null.
func (a Args) Has(key string) bool {
	v := a.Get(key)
	return v.Exists() && v.Type != gjson.Null
}

// String returns the first of keys holding a string value.
func (a Args) String(keys ...string) (string, bool) {
	for _, k := range keys {
		if v := a.Get(k); v.Type == gjson.String {
			return v.Str, true
		}
	}
	return "", false
}

// RequireString returns the string value of key or an invalid_argument
// error when it is missing, not a string or empty.
func (a Args) RequireString(key string) (string, error) {
	v := a.Get(key)
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		return "", InvalidArgument("missing argument %q", key)
	case v.Type != gjson.String:
		return "", InvalidArgument("argument %q must be a string", key)
	case v.Str == "":
		return "", InvalidArgument("argument %q must not be empty", key)
	}
	return v.Str, nil
}

// RequireUint returns a non-negative integer argument.
func (a Args) RequireUint(key string) (int, error) {
	v := a.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return 0, InvalidArgument("missing argument %q", key)
	}
	if v.Type != gjson.Number {
		return 0, InvalidArgument("argument %q must be a number", key)
	}
	f := v.Num
	if f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return 0, InvalidArgument("argument %q must be a non-negative integer, got %s", key, v.Raw)
	}
	return int(f), nil
}
