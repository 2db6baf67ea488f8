package codec

import (
	"bytes"
	"image"
	"time"

	"github.com/google/uuid"
)

// Snapshot is one complete, encoded canvas state. Its bytes must not be
// modified after construction.
type Snapshot struct {
	ID        uuid.UUID
	MIME      string
	Data      []byte
	CreatedAt time.Time
}

// NewSnapshot wraps encoded image bytes. The slice is retained.
func NewSnapshot(mime string, data []byte) Snapshot {
	if mime == "" {
		mime = MIMEPNG
	}
	return Snapshot{
		ID:        uuid.New(),
		MIME:      mime,
		Data:      data,
		CreatedAt: time.Now(),
	}
}

// ParseSnapshot validates a data URL and wraps it as a Snapshot. Only the
// image header is decoded.
func ParseSnapshot(dataURL string) (Snapshot, error) {
	mime, data, err := ParseDataURL(dataURL)
	if err != nil {
		return Snapshot{}, err
	}
	if _, err := checkHeader(data); err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(mime, data), nil
}

// SnapshotOf encodes img as a PNG snapshot.
func SnapshotOf(img image.Image) (Snapshot, error) {
	var buf bytes.Buffer
	if err := Marshal(&buf, img, MIMEPNG); err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(MIMEPNG, buf.Bytes()), nil
}

// IsZero reports whether s is the zero Snapshot.
func (s Snapshot) IsZero() bool {
	return s.ID == uuid.Nil && len(s.Data) == 0
}

// DataURL returns the snapshot in transport form.
func (s Snapshot) DataURL() string {
	return FormatDataURL(s.MIME, s.Data)
}

// Image decodes the snapshot into a canvas-sized pixel buffer.
func (s Snapshot) Image() (*image.RGBA, error) {
	return DecodeBytes(s.Data)
}
