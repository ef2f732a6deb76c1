package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/omersela/storagescout/internal/capture"
	"github.com/omersela/storagescout/internal/catalog"
	"github.com/omersela/storagescout/internal/photo"
	"github.com/omersela/storagescout/internal/search"
	"github.com/omersela/storagescout/internal/staging"
	"github.com/omersela/storagescout/internal/uploads"
	pkgAuth "github.com/omersela/storagescout/pkg/auth"
	"github.com/omersela/storagescout/pkg/config"
	pkgerrors "github.com/omersela/storagescout/pkg/errors"
	"github.com/omersela/storagescout/pkg/logger"
	"github.com/omersela/storagescout/pkg/types"
)

type stubStream struct {
	facing string
}

func (s *stubStream) Capture(ctx context.Context) ([]byte, error) {
	return []byte{0xff, 0xd8, 0xff, 0xd9}, nil
}

func (s *stubStream) Facing() string {
	return s.facing
}

func (s *stubStream) Close() error {
	return nil
}

type stubDevice struct{}

func (stubDevice) Open(ctx context.Context, facing string) (capture.Stream, error) {
	return &stubStream{facing: facing}, nil
}

type stubPreviews struct{}

func (stubPreviews) Create(id string, data []byte) (*photo.PreviewHandle, error) {
	return photo.NewHandle("/previews/"+id+".jpg", func() error { return nil }), nil
}

func (stubPreviews) Live() int {
	return 0
}

type stubUploadsService struct{}

func (stubUploadsService) SubmitNew(ctx context.Context, input uploads.NewItemInput) (*catalog.Item, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubUploadsService) SubmitEdit(ctx context.Context, itemID string, input uploads.EditItemInput) (*catalog.Item, bool, error) {
	return nil, false, fmt.Errorf("not implemented")
}

func (stubUploadsService) Delete(ctx context.Context, itemID string) error {
	return nil
}

func (stubUploadsService) Progress() uploads.Progress {
	return uploads.Progress{State: uploads.StateIdle}
}

type stubSearchService struct {
	searchFn func(ctx context.Context, query search.Query) (*search.Page, error)
	moreFn   func(ctx context.Context, token string) (*search.Page, error)
}

func (s stubSearchService) Search(ctx context.Context, query search.Query) (*search.Page, error) {
	if s.searchFn != nil {
		return s.searchFn(ctx, query)
	}
	return &search.Page{Token: "t-1"}, nil
}

func (s stubSearchService) LoadMore(ctx context.Context, token string) (*search.Page, error) {
	if s.moreFn != nil {
		return s.moreFn(ctx, token)
	}
	return &search.Page{Token: token}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		Auth: config.AuthConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, searchSvc search.Service) http.Handler {
	t.Helper()

	buffer, err := staging.NewBuffer(10)
	if err != nil {
		t.Fatalf("create buffer: %v", err)
	}
	session, err := capture.NewSession(stubDevice{}, buffer, stubPreviews{}, 0, nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if searchSvc == nil {
		searchSvc = stubSearchService{}
	}

	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:      cfg,
		Logger:      logg,
		Session:     session,
		Buffer:      buffer,
		Previews:    stubPreviews{},
		Uploads:     stubUploadsService{},
		Search:      searchSvc,
		MaxUploadMB: 20,
	})
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
	if got := resp.Header().Get("X-StorageScout-Env"); got != "test" {
		t.Fatalf("unexpected env header %q", got)
	}
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}

func TestProtectedGroupRejectsMissingToken(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/camera/photos", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestProtectedGroupRejectsBadToken(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/camera/photos", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token got %d", resp.Code)
	}
}

func TestProtectedGroupAcceptsValidToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/camera/photos", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token got %d", resp.Code)
	}
}

func TestCameraCaptureFlow(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, nil)
	token := buildToken(t, cfg)

	start := httptest.NewRequest(http.MethodPost, "/api/v1/camera/start", nil)
	start.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, start)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for camera start got %d: %s", resp.Code, resp.Body.String())
	}

	shot := httptest.NewRequest(http.MethodPost, "/api/v1/camera/capture", nil)
	shot.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, shot)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for capture got %d: %s", resp.Code, resp.Body.String())
	}

	photos := httptest.NewRequest(http.MethodGet, "/api/v1/camera/photos", nil)
	photos.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, photos)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for photo list got %d", resp.Code)
	}
	var body types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode photo list: %v", err)
	}
	payload, ok := body.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload %v", body.Data)
	}
	staged, ok := payload["photos"].([]any)
	if !ok || len(staged) != 1 {
		t.Fatalf("expected one staged photo got %v", payload["photos"])
	}
	stats, ok := payload["status"].(map[string]any)
	if !ok || stats["count"] != float64(1) {
		t.Fatalf("unexpected status payload %v", payload["status"])
	}
}

func TestCaptureWithoutStartConflicts(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, nil)

	shot := httptest.NewRequest(http.MethodPost, "/api/v1/camera/capture", nil)
	shot.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, shot)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for capture before start got %d", resp.Code)
	}
}

func buildPhotoForm(t *testing.T, count int) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for i := 0; i < count; i++ {
		part, err := writer.CreateFormFile("photos", fmt.Sprintf("shot-%d.jpg", i))
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte{0xff, 0xd8, 0xff, 0xd9}); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestPhotoImportStagesBatch(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, nil)

	body, contentType := buildPhotoForm(t, 2)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/camera/photos", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for photo import got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode import response: %v", err)
	}
	payload := envelope.Data.(map[string]any)
	if payload["added"] != float64(2) {
		t.Fatalf("expected 2 photos staged got %v", payload["added"])
	}
}

func TestPhotoImportRejectsOversizedBatch(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, nil)

	body, contentType := buildPhotoForm(t, 11)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/camera/photos", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized batch got %d", resp.Code)
	}

	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeCapacityExceeded) {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}
}

func TestSearchRouteUsesService(t *testing.T) {
	cfg := testConfig()
	svc := stubSearchService{
		searchFn: func(ctx context.Context, query search.Query) (*search.Page, error) {
			if query.TextQuery != "cardboard box" {
				return nil, fmt.Errorf("unexpected query %q", query.TextQuery)
			}
			return &search.Page{Token: "session-1", TotalMatches: 4, HasMore: true}, nil
		},
	}
	router := newTestRouter(t, cfg, svc)

	body := `{"text_query":"cardboard box"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for search got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode search response: %v", err)
	}
	payload, ok := envelope.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload %v", envelope.Data)
	}
	if payload["token"] != "session-1" {
		t.Fatalf("unexpected session token %v", payload["token"])
	}
}

func TestSearchMoreMapsExhaustedSession(t *testing.T) {
	cfg := testConfig()
	svc := stubSearchService{
		moreFn: func(ctx context.Context, token string) (*search.Page, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no more results for this search")
		},
	}
	router := newTestRouter(t, cfg, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/session-1/more", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for exhausted session got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.Auth, time.Now(), pkgAuth.AccessTokenPayload{
		Subject: uuid.NewString(),
		Kiosk:   "dock-1",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
