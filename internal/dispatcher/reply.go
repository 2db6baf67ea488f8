package dispatcher

import (
	"github.com/tidwall/sjson"
)

var (
	okEnvelope   = []byte(`{"ok":true}`)
	failEnvelope = []byte(`{"ok":false}`)
)

// Success builds a success envelope around data.
func Success(data any) []byte {
	out, err := sjson.SetBytes(clone(okEnvelope), "data", data)
	if err != nil {
		return Failure(NewError(CodeInternal, err))
	}
	return out
}

// SuccessRaw builds a success envelope around already encoded JSON.
func SuccessRaw(raw []byte) []byte {
	out, err := sjson.SetRawBytes(clone(okEnvelope), "data", raw)
	if err != nil {
		return Failure(NewError(CodeInternal, err))
	}
	return out
}

// Failure builds a failure envelope.
func Failure(e *Error) []byte {
	out, _ := sjson.SetBytes(clone(failEnvelope), "error.code", string(e.Code))
	out, _ = sjson.SetBytes(out, "error.message", e.Error())
	return out
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
