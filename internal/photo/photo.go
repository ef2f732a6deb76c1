// Package photo holds captured photo data and its preview lifecycle.
package photo

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Photo is a single captured frame held in memory until upload.
type Photo struct {
	ID          uuid.UUID
	Data        []byte
	ContentType string
	Facing      string
	CapturedAt  time.Time
	Preview     *PreviewHandle
}

// NewPhoto wraps captured JPEG bytes with identity and capture metadata.
func NewPhoto(data []byte, facing string, preview *PreviewHandle) Photo {
	return Photo{
		ID:          uuid.New(),
		Data:        data,
		ContentType: "image/jpeg",
		Facing:      facing,
		CapturedAt:  time.Now().UTC(),
		Preview:     preview,
	}
}

// Release frees the photo's preview if one exists. Safe to call on a
// photo without a preview.
func (p *Photo) Release() error {
	if p == nil || p.Preview == nil {
		return nil
	}
	return p.Preview.Release()
}

// PreviewHandle points at a rendered preview. Release frees the backing
// resource exactly once; repeated calls are no-ops.
type PreviewHandle struct {
	URL string

	mu       sync.Mutex
	released bool
	release  func() error
}

// NewHandle builds a preview handle whose Release invokes release once.
func NewHandle(url string, release func() error) *PreviewHandle {
	return &PreviewHandle{URL: url, release: release}
}

// Release frees the preview resource. Only the first call has any effect.
func (h *PreviewHandle) Release() error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	h.released = true
	if h.release == nil {
		return nil
	}
	return h.release()
}

// Released reports whether the handle has already been freed.
func (h *PreviewHandle) Released() bool {
	if h == nil {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
