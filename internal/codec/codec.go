// Package codec converts canvas images between their transport form (a
// base64 data URL, as produced by a browser canvas) and in-memory pixel
// buffers.
//
// Decoding understands PNG, JPEG, GIF, WebP, BMP and TIFF. Encoding always
// produces PNG unless a format is asked for explicitly.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	// Register decoders beyond the standard library's.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/dshills/easel/internal/canvas"
)

// ErrInvalidEncoding is returned when transport data cannot be decoded.
var ErrInvalidEncoding = errors.New("invalid encoding")

// JPEGQuality is used when encoding JPEG output.
const JPEGQuality = 90

// Largest image accepted for decoding. Inputs up to this size are cropped
// to the canvas; anything bigger is rejected from its header before any
// pixel memory is allocated.
const (
	MaxWidth  = 4 * canvas.Width
	MaxHeight = 4 * canvas.Height
)

// Decode turns a data URL (or bare base64 payload) into a canvas-sized
// pixel buffer.
func Decode(transport string) (*image.RGBA, error) {
	_, data, err := ParseDataURL(transport)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes an encoded image and fits it to the canvas.
func DecodeBytes(data []byte) (*image.RGBA, error) {
	if _, err := checkHeader(data); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", ErrInvalidEncoding, err)
	}
	return canvas.Fit(img), nil
}

// checkHeader decodes only the image header and enforces MaxWidth and
// MaxHeight.
func checkHeader(data []byte) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, fmt.Errorf("%w: image header: %v", ErrInvalidEncoding, err)
	}
	if cfg.Width > MaxWidth || cfg.Height > MaxHeight {
		return image.Config{}, fmt.Errorf("%w: image is %dx%d, limit is %dx%d",
			ErrInvalidEncoding, cfg.Width, cfg.Height, MaxWidth, MaxHeight)
	}
	return cfg, nil
}

// Encode returns img as a PNG data URL.
func Encode(img image.Image) (string, error) {
	return EncodeAs(img, MIMEPNG)
}

// EncodeAs returns img as a data URL of the given image MIME type.
func EncodeAs(img image.Image, mime string) (string, error) {
	var buf bytes.Buffer
	if err := Marshal(&buf, img, mime); err != nil {
		return "", err
	}
	return FormatDataURL(mime, buf.Bytes()), nil
}

// CanEncode reports whether Marshal writes mime natively rather than
// falling back to PNG.
func CanEncode(mime string) bool {
	switch mime {
	case MIMEPNG, MIMEJPEG, MIMEGIF:
		return true
	}
	return false
}

// Marshal writes img to w in the format named by mime. Formats the package
// can decode but not encode fall back to PNG.
func Marshal(w io.Writer, img image.Image, mime string) error {
	var err error
	switch mime {
	case MIMEJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case MIMEGIF:
		err = gif.Encode(w, img, nil)
	default:
		err = png.Encode(w, img)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", mime, err)
	}
	return nil
}
