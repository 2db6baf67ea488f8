package codec

import (
	"path/filepath"
	"strings"
)

// Image MIME types known to the codec.
const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEGIF  = "image/gif"
	MIMEWebP = "image/webp"
	MIMEBMP  = "image/bmp"
	MIMETIFF = "image/tiff"
)

// MIMEFromPath infers an image MIME type from a file extension, defaulting
// to PNG. It labels data for transport; decoding never relies on it.
func MIMEFromPath(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "jpg", "jpeg":
		return MIMEJPEG
	case "gif":
		return MIMEGIF
	case "webp":
		return MIMEWebP
	case "bmp":
		return MIMEBMP
	case "tif", "tiff":
		return MIMETIFF
	default:
		return MIMEPNG
	}
}
