package photo

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/draw"

	pkgerrors "github.com/omersela/storagescout/pkg/errors"
)

const previewJPEGQuality = 80

// PreviewStore renders and tracks photo previews.
type PreviewStore interface {
	// Create renders a preview for the JPEG data and returns its handle.
	Create(id string, data []byte) (*PreviewHandle, error)
	// Live reports how many previews are currently held.
	Live() int
}

// FileStore renders downscaled JPEG thumbnails into a local directory.
type FileStore struct {
	dir     string
	maxEdge int
	urlBase string

	mu   sync.Mutex
	live int
}

// NewFileStore prepares the preview directory and returns the store.
func NewFileStore(dir string, maxEdge int, urlBase string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("preview directory required")
	}
	if maxEdge <= 0 {
		return nil, fmt.Errorf("preview max edge must be positive")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating preview directory: %w", err)
	}
	return &FileStore{dir: dir, maxEdge: maxEdge, urlBase: urlBase}, nil
}

// Create decodes the JPEG, renders a thumbnail and writes it to disk.
// The returned handle's Release removes the file.
func (s *FileStore) Create(id string, data []byte) (*PreviewHandle, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preview id is required")
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding captured image")
	}

	thumb := downscale(src, s.maxEdge)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: previewJPEGQuality}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding preview")
	}

	name := id + ".jpg"
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing preview file")
	}

	s.mu.Lock()
	s.live++
	s.mu.Unlock()

	url := s.urlBase + "/" + name
	return NewHandle(url, func() error {
		s.mu.Lock()
		s.live--
		s.mu.Unlock()
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}), nil
}

// Live returns the number of previews created and not yet released.
func (s *FileStore) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

func downscale(src image.Image, maxEdge int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxEdge && h <= maxEdge {
		return src
	}
	var dw, dh int
	if w >= h {
		dw = maxEdge
		dh = h * maxEdge / w
	} else {
		dh = maxEdge
		dw = w * maxEdge / h
	}
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
