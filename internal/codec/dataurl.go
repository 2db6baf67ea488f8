package codec

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// ParseDataURL splits a "data:<mime>;base64,<payload>" string into its MIME
// type and decoded bytes. A string without a comma is treated as a bare
// base64 payload whose type is sniffed from the bytes.
func ParseDataURL(s string) (mime string, data []byte, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil, fmt.Errorf("%w: empty data", ErrInvalidEncoding)
	}

	payload := s
	if header, body, ok := strings.Cut(s, ","); ok {
		payload = body
		mime, err = parseHeader(header)
		if err != nil {
			return "", nil, err
		}
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some encoders drop the padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return "", nil, fmt.Errorf("%w: base64: %v", ErrInvalidEncoding, err)
		}
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%w: empty payload", ErrInvalidEncoding)
	}
	if mime == "" {
		mime = sniff(data)
	}
	return mime, data, nil
}

// parseHeader validates "data:<mime>;base64" and returns the MIME type.
func parseHeader(header string) (string, error) {
	rest, ok := strings.CutPrefix(header, "data:")
	if !ok {
		return "", fmt.Errorf("%w: missing data: scheme", ErrInvalidEncoding)
	}
	mime, params, _ := strings.Cut(rest, ";")
	if !strings.Contains(params, "base64") {
		return "", fmt.Errorf("%w: only base64 data URLs are supported", ErrInvalidEncoding)
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	if mime != "" && !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: not an image: %s", ErrInvalidEncoding, mime)
	}
	return mime, nil
}

// FormatDataURL builds a base64 data URL.
func FormatDataURL(mime string, data []byte) string {
	if mime == "" {
		mime = MIMEPNG
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func sniff(data []byte) string {
	ct := http.DetectContentType(data)
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	return MIMEPNG
}
