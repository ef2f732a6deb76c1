package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omersela/storagescout/internal/photo"
	"github.com/omersela/storagescout/internal/staging"
	pkgerrors "github.com/omersela/storagescout/pkg/errors"
	"github.com/omersela/storagescout/pkg/metrics"
)

// Session owns one camera stream and the staging buffer it fills.
type Session struct {
	device   Device
	buffer   *staging.Buffer
	previews photo.PreviewStore
	settle   time.Duration
	metrics  *metrics.PipelineMetrics

	mu     sync.Mutex
	stream Stream
	facing string
}

// NewSession wires a capture session over the provided device and buffer.
func NewSession(device Device, buffer *staging.Buffer, previews photo.PreviewStore, settle time.Duration, m *metrics.PipelineMetrics) (*Session, error) {
	if device == nil {
		return nil, fmt.Errorf("camera device required")
	}
	if buffer == nil {
		return nil, fmt.Errorf("staging buffer required")
	}
	if previews == nil {
		return nil, fmt.Errorf("preview store required")
	}
	return &Session{
		device:   device,
		buffer:   buffer,
		previews: previews,
		settle:   settle,
		metrics:  m,
		facing:   FacingEnvironment,
	}, nil
}

// Start opens the camera for the current facing. Starting an already
// running session is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		return nil
	}
	stream, err := s.device.Open(ctx, s.facing)
	if err != nil {
		return err
	}
	s.stream = stream
	return nil
}

// Active reports whether the camera is currently open.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream != nil
}

// Facing returns the facing the session is set to.
func (s *Session) Facing() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facing
}

// Capture grabs one frame, renders its preview and stages it. When the
// buffer is already full the frame is not taken and Capture returns
// (nil, nil).
func (s *Session) Capture(ctx context.Context) (*photo.Photo, error) {
	s.mu.Lock()
	stream := s.stream
	facing := s.facing
	s.mu.Unlock()

	if stream == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "camera is not running")
	}
	if s.buffer.Full() {
		return nil, nil
	}

	data, err := stream.Capture(ctx)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	preview, err := s.previews.Create(id.String(), data)
	if err != nil {
		return nil, err
	}

	p := photo.Photo{
		ID:          id,
		Data:        data,
		ContentType: "image/jpeg",
		Facing:      facing,
		CapturedAt:  time.Now().UTC(),
		Preview:     preview,
	}
	if err := s.buffer.Add(p); err != nil {
		// Lost the race against a concurrent capture filling the buffer.
		_ = preview.Release()
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeCapacityExceeded {
			return nil, nil
		}
		return nil, err
	}

	s.metrics.IncCapture(facing)
	return &p, nil
}

// SwitchFacing closes the current stream, waits for the camera to
// settle and reopens with the requested facing.
func (s *Session) SwitchFacing(ctx context.Context, facing string) error {
	if !ValidFacing(facing) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown camera facing").
			WithDetails(map[string]any{"facing": facing})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if facing == s.facing {
		return nil
	}
	wasActive := s.stream != nil
	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			return err
		}
		s.stream = nil
	}
	s.facing = facing
	if !wasActive {
		return nil
	}

	if s.settle > 0 {
		select {
		case <-time.After(s.settle):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	stream, err := s.device.Open(ctx, facing)
	if err != nil {
		return err
	}
	s.stream = stream
	return nil
}

// RemovePhoto drops the staged photo at index.
func (s *Session) RemovePhoto(index int) error {
	return s.buffer.RemoveAt(index)
}

// Photos returns the staged photos in capture order.
func (s *Session) Photos() []photo.Photo {
	return s.buffer.Photos()
}

// Stop closes the camera. Stopping a stopped session is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil
	}
	err := s.stream.Close()
	s.stream = nil
	return err
}

// Finish stops the camera and hands back the staged photos for upload.
// The buffer keeps the photos until the upload pipeline clears it.
func (s *Session) Finish() ([]photo.Photo, error) {
	photos := s.buffer.Photos()
	if err := s.Stop(); err != nil {
		return nil, err
	}
	return photos, nil
}

// Cancel stops the camera and discards everything staged so far.
func (s *Session) Cancel() error {
	stopErr := s.Stop()
	clearErr := s.buffer.Clear()
	if stopErr != nil {
		return stopErr
	}
	return clearErr
}
