// Package staging holds captured photos in a bounded buffer until the
// operator submits or discards them.
package staging

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/omersela/storagescout/internal/photo"
	pkgerrors "github.com/omersela/storagescout/pkg/errors"
)

// DefaultCapacity is the photo limit used when no capacity is configured.
const DefaultCapacity = 10

// Buffer is a fixed-capacity, order-preserving photo buffer. All methods
// are safe for concurrent use.
type Buffer struct {
	mu       sync.Mutex
	photos   []photo.Photo
	capacity int
}

// NewBuffer builds a buffer that holds at most capacity photos.
func NewBuffer(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("buffer capacity must be positive")
	}
	return &Buffer{capacity: capacity}, nil
}

// Add appends a single photo. At capacity it returns a capacity error.
func (b *Buffer) Add(p photo.Photo) error {
	return b.AddMany([]photo.Photo{p})
}

// AddMany appends the batch atomically. If the batch does not fit, no
// photo is added and the error details carry the remaining slots.
func (b *Buffer) AddMany(batch []photo.Photo) error {
	if len(batch) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	available := b.capacity - len(b.photos)
	if len(batch) > available {
		return pkgerrors.New(pkgerrors.CodeCapacityExceeded, "photo buffer is full").
			WithDetails(map[string]any{
				"capacity":  b.capacity,
				"available": available,
				"requested": len(batch),
			})
	}
	b.photos = append(b.photos, batch...)
	return nil
}

// RemoveAt drops the photo at index, releases its preview and shifts
// later photos down one slot.
func (b *Buffer) RemoveAt(index int) error {
	b.mu.Lock()
	if index < 0 || index >= len(b.photos) {
		b.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "photo index out of range").
			WithDetails(map[string]any{"index": index, "count": len(b.photos)})
	}
	removed := b.photos[index]
	b.photos = append(b.photos[:index], b.photos[index+1:]...)
	b.mu.Unlock()

	return removed.Release()
}

// Clear drops every photo and releases all previews, aggregating any
// release failures.
func (b *Buffer) Clear() error {
	b.mu.Lock()
	dropped := b.photos
	b.photos = nil
	b.mu.Unlock()

	var err error
	for i := range dropped {
		err = multierr.Append(err, dropped[i].Release())
	}
	return err
}

// Photos returns a snapshot of the buffered photos in capture order.
func (b *Buffer) Photos() []photo.Photo {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]photo.Photo, len(b.photos))
	copy(out, b.photos)
	return out
}

// Len reports the number of buffered photos.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.photos)
}

// Capacity reports the configured photo limit.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Available reports the remaining slots.
func (b *Buffer) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity - len(b.photos)
}

// Full reports whether the buffer has reached capacity.
func (b *Buffer) Full() bool {
	return b.Available() <= 0
}
