package controllers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/omersela/storagescout/api/responses"
	"github.com/omersela/storagescout/api/validators"
	"github.com/omersela/storagescout/internal/capture"
	"github.com/omersela/storagescout/internal/photo"
	"github.com/omersela/storagescout/internal/staging"
	pkgerrors "github.com/omersela/storagescout/pkg/errors"
	"github.com/omersela/storagescout/pkg/logger"
)

type photoView struct {
	ID         string `json:"id"`
	PreviewURL string `json:"preview_url,omitempty"`
	Facing     string `json:"facing"`
	CapturedAt string `json:"captured_at"`
}

func photoViews(photos []photo.Photo) []photoView {
	views := make([]photoView, 0, len(photos))
	for _, p := range photos {
		view := photoView{
			ID:         p.ID.String(),
			Facing:     p.Facing,
			CapturedAt: p.CapturedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if p.Preview != nil {
			view.PreviewURL = p.Preview.URL
		}
		views = append(views, view)
	}
	return views
}

type cameraStatus struct {
	Active    bool   `json:"active"`
	Facing    string `json:"facing"`
	Count     int    `json:"count"`
	Capacity  int    `json:"capacity"`
	Available int    `json:"available"`
}

type bufferStats interface {
	Len() int
	Capacity() int
	Available() int
}

func status(session *capture.Session, buffer bufferStats) cameraStatus {
	return cameraStatus{
		Active:    session.Active(),
		Facing:    session.Facing(),
		Count:     buffer.Len(),
		Capacity:  buffer.Capacity(),
		Available: buffer.Available(),
	}
}

// CameraStart opens the camera for the capture session.
func CameraStart(session *capture.Session, buffer bufferStats, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := session.Start(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status(session, buffer))
	}
}

// CameraStop closes the camera but keeps the staged photos.
func CameraStop(session *capture.Session, buffer bufferStats, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := session.Stop(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status(session, buffer))
	}
}

// CameraCapture grabs one frame into the staging buffer. At capacity the
// call succeeds without taking a photo.
func CameraCapture(session *capture.Session, buffer bufferStats, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := session.Capture(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := map[string]any{"status": status(session, buffer)}
		if p != nil {
			out["photo"] = photoViews([]photo.Photo{*p})[0]
		} else {
			out["skipped"] = "buffer full"
		}
		responses.WriteSuccess(w, out)
	}
}

type switchFacingRequest struct {
	Facing string `json:"facing" validate:"required,oneof=environment user"`
}

// CameraFacing switches between the rear and front cameras.
func CameraFacing(session *capture.Session, buffer bufferStats, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload switchFacingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := session.SwitchFacing(r.Context(), payload.Facing); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status(session, buffer))
	}
}

// CameraImportPhotos stages an operator-picked batch of JPEG files. The
// batch is all or nothing: when it does not fit the buffer, nothing is
// staged and the free-slot count is reported back.
func CameraImportPhotos(session *capture.Session, buffer *staging.Buffer, previews photo.PreviewStore, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := int64(maxUploadMB) << 20
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		if err := r.ParseMultipartForm(limit); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "failed to parse multipart form"))
			return
		}
		files := r.MultipartForm.File["photos"]
		if len(files) == 0 {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "no photos provided"))
			return
		}

		batch := make([]photo.Photo, 0, len(files))
		abort := func() {
			for i := range batch {
				_ = batch[i].Release()
			}
		}
		for _, header := range files {
			data, err := readUpload(header)
			if err != nil {
				abort()
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			id := uuid.New()
			preview, err := previews.Create(id.String(), data)
			if err != nil {
				abort()
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			batch = append(batch, photo.Photo{
				ID:          id,
				Data:        data,
				ContentType: "image/jpeg",
				CapturedAt:  time.Now().UTC(),
				Preview:     preview,
			})
		}

		if err := buffer.AddMany(batch); err != nil {
			abort()
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"added":  len(batch),
			"photos": photoViews(buffer.Photos()),
			"status": status(session, buffer),
		})
	}
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "failed to open "+header.Filename)
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "failed to read "+header.Filename)
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, header.Filename+" is empty")
	}
	return data, nil
}

// CameraPhotos lists the staged photos in capture order.
func CameraPhotos(session *capture.Session, buffer bufferStats, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"photos": photoViews(session.Photos()),
			"status": status(session, buffer),
		})
	}
}

// CameraRemovePhoto drops one staged photo by its position.
func CameraRemovePhoto(session *capture.Session, buffer bufferStats, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid photo index"))
			return
		}
		if err := session.RemovePhoto(index); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"photos": photoViews(session.Photos()),
			"status": status(session, buffer),
		})
	}
}

// CameraCancel stops the camera and discards all staged photos.
func CameraCancel(session *capture.Session, buffer bufferStats, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := session.Cancel(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status(session, buffer))
	}
}
