package capture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/omersela/storagescout/pkg/config"
	pkgerrors "github.com/omersela/storagescout/pkg/errors"
)

const maxFrameBytes = 32 * 1024 * 1024

// HTTPDevice reads still frames from network cameras that expose a
// snapshot URL per facing.
type HTTPDevice struct {
	httpClient *http.Client
	urls       map[string]string
	width      int
	height     int
}

// NewHTTPDevice wires the configured snapshot endpoints.
func NewHTTPDevice(cfg config.CameraConfig) (*HTTPDevice, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("no camera snapshot urls configured")
	}
	urls := map[string]string{}
	if cfg.BackURL != "" {
		urls[FacingEnvironment] = cfg.BackURL
	}
	if cfg.FrontURL != "" {
		urls[FacingUser] = cfg.FrontURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPDevice{
		httpClient: &http.Client{Timeout: timeout},
		urls:       urls,
		width:      cfg.Width,
		height:     cfg.Height,
	}, nil
}

// Open probes the snapshot endpoint for the facing and returns a stream.
func (d *HTTPDevice) Open(ctx context.Context, facing string) (Stream, error) {
	if !ValidFacing(facing) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown camera facing").
			WithDetails(map[string]any{"facing": facing})
	}
	u, ok := d.urls[facing]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeCameraUnavailable, "no camera configured for facing").
			WithDetails(map[string]any{"facing": facing})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, d.snapshotURL(u), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building camera probe")
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCameraUnavailable, err, "camera is not reachable")
	}
	_ = resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	return &httpStream{device: d, url: u, facing: facing}, nil
}

func (d *HTTPDevice) snapshotURL(base string) string {
	if d.width <= 0 || d.height <= 0 {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%swidth=%d&height=%d", base, sep, d.width, d.height)
}

type httpStream struct {
	device *HTTPDevice
	url    string
	facing string

	mu     sync.Mutex
	closed bool
}

func (s *httpStream) Capture(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "camera stream is closed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.device.snapshotURL(s.url), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building snapshot request")
	}
	req.Header.Set("Accept", "image/jpeg")

	resp, err := s.device.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCameraUnavailable, err, "camera is not reachable")
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCameraUnavailable, err, "reading snapshot")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeCameraUnavailable, "camera returned an empty frame")
	}
	return data, nil
}

func (s *httpStream) Facing() string {
	return s.facing
}

func (s *httpStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeCameraDenied, "camera access was denied")
	default:
		return pkgerrors.New(pkgerrors.CodeCameraUnavailable, "camera is unavailable").
			WithDetails(map[string]any{"status": status})
	}
}
