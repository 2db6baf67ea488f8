// Package storage saves and loads canvas images under a root directory.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/easel/internal/codec"
)

// DefaultDir is the directory images are stored in when none is configured.
const DefaultDir = "saved_images"

// ErrOutsideRoot is returned for paths that resolve outside the store root.
var ErrOutsideRoot = errors.New("path outside storage root")

// Error records a failed storage operation and the path it was acting on.
type Error struct {
	Op   string // save, load, resolve
	Path string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Store reads and writes image files below a root directory.
type Store struct {
	root string
}

// New creates a store rooted at dir. An empty dir selects DefaultDir.
// The directory is created lazily on the first save.
func New(dir string) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &Error{Op: "resolve", Path: dir, Err: err}
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute root directory.
func (s *Store) Root() string {
	return s.root
}

// Resolve maps path to an absolute location inside the root. Relative paths
// are joined to the root; absolute paths must already lie inside it.
//
// A relative path whose first element is the root's own directory name is
// read as relative to the root's parent, so "saved_images/a.png" and
// "a.png" name the same file in a store rooted at "saved_images".
func (s *Store) Resolve(path string) (string, error) {
	if path == "" {
		return "", &Error{Op: "resolve", Path: path, Err: errors.New("empty path")}
	}

	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(s.root, filepath.Clean(path))
		if err != nil {
			return "", &Error{Op: "resolve", Path: path, Err: ErrOutsideRoot}
		}
		rel = r
	} else {
		rel = s.trimRootName(rel)
	}
	if !filepath.IsLocal(rel) {
		return "", &Error{Op: "resolve", Path: path, Err: ErrOutsideRoot}
	}
	return filepath.Join(s.root, rel), nil
}

// trimRootName drops a leading element equal to the root's base name.
func (s *Store) trimRootName(rel string) string {
	clean := filepath.Clean(rel)
	head, rest, ok := strings.Cut(filepath.ToSlash(clean), "/")
	if ok && rest != "" && head == filepath.Base(s.root) {
		return filepath.FromSlash(rest)
	}
	return clean
}

// Save encodes img in the format implied by the path's extension and writes
// it, creating parent directories as needed. It returns the absolute path.
func (s *Store) Save(path string, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := codec.Marshal(&buf, img, codec.MIMEFromPath(path)); err != nil {
		return "", &Error{Op: "save", Path: path, Err: err}
	}
	return s.SaveBytes(path, buf.Bytes())
}

// SaveBytes writes already encoded image bytes.
func (s *Store) SaveBytes(path string, data []byte) (string, error) {
	full, err := s.Resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", &Error{Op: "save", Path: path, Err: err}
	}
	if err := writeAtomic(full, data); err != nil {
		return "", &Error{Op: "save", Path: path, Err: err}
	}
	return full, nil
}

// Load reads an image and fits it to the canvas.
func (s *Store) Load(path string) (*image.RGBA, error) {
	data, err := s.LoadBytes(path)
	if err != nil {
		return nil, err
	}
	img, err := codec.DecodeBytes(data)
	if err != nil {
		return nil, &Error{Op: "load", Path: path, Err: err}
	}
	return img, nil
}

// LoadBytes reads the raw bytes of a stored image.
func (s *Store) LoadBytes(path string) ([]byte, error) {
	full, err := s.Resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, &Error{Op: "load", Path: path, Err: err}
	}
	return data, nil
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place so readers never see a partial image.
func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
