// Package capture drives the kiosk camera and feeds captured frames
// into the staging buffer.
package capture

import (
	"context"

	pkgerrors "github.com/omersela/storagescout/pkg/errors"
)

// Camera facings. Environment is the rear-facing camera and the default.
const (
	FacingEnvironment = "environment"
	FacingUser        = "user"
)

// ValidFacing reports whether facing names a supported camera.
func ValidFacing(facing string) bool {
	return facing == FacingEnvironment || facing == FacingUser
}

// Device opens camera streams by facing.
type Device interface {
	Open(ctx context.Context, facing string) (Stream, error)
}

// DisabledDevice stands in when no camera endpoints are configured.
// Every open attempt reports the camera as unavailable so the kiosk
// surface degrades instead of the whole service refusing to start.
type DisabledDevice struct{}

func (DisabledDevice) Open(ctx context.Context, facing string) (Stream, error) {
	return nil, pkgerrors.New(pkgerrors.CodeCameraUnavailable, "no camera is configured")
}

// Stream is an open camera delivering JPEG frames on demand.
type Stream interface {
	// Capture grabs a single frame as JPEG bytes.
	Capture(ctx context.Context) ([]byte, error)
	// Facing reports which camera the stream reads from.
	Facing() string
	// Close releases the camera. Closing twice is safe.
	Close() error
}
