package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/omersela/storagescout/api/responses"
	"github.com/omersela/storagescout/api/validators"
	"github.com/omersela/storagescout/internal/capture"
	"github.com/omersela/storagescout/internal/catalog"
	"github.com/omersela/storagescout/internal/staging"
	"github.com/omersela/storagescout/internal/uploads"
	pkgerrors "github.com/omersela/storagescout/pkg/errors"
	"github.com/omersela/storagescout/pkg/logger"
)

type catalogLister interface {
	List(ctx context.Context) ([]catalog.ListedItem, error)
}

// ListItems returns every item the catalog knows about.
func ListItems(cat catalogLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := cat.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "count": len(items)})
	}
}

type submitItemRequest struct {
	Title         string `json:"title" validate:"required,min=1,max=200"`
	Description   string `json:"description" validate:"max=2000"`
	Location      string `json:"location" validate:"max=300"`
	InternalID    string `json:"internal_id" validate:"max=100"`
	AvailableTime string `json:"available_time" validate:"omitempty"`
}

// SubmitItem uploads the staged photos and metadata as a new item. The
// staging buffer is cleared only after the whole pipeline succeeds.
func SubmitItem(svc uploads.Service, session *capture.Session, buffer *staging.Buffer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload submitItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		photos, err := session.Finish()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.SubmitNew(r.Context(), uploads.NewItemInput{
			Title:         payload.Title,
			Description:   payload.Description,
			Location:      payload.Location,
			InternalID:    payload.InternalID,
			AvailableTime: payload.AvailableTime,
			Photos:        photos,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := buffer.Clear(); err != nil && logg != nil {
			logg.Warn(r.Context(), "releasing previews after upload failed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

type editItemRequest struct {
	Title              string   `json:"title" validate:"required,min=1,max=200"`
	Description        string   `json:"description" validate:"max=2000"`
	Location           string   `json:"location" validate:"max=300"`
	InternalID         string   `json:"internal_id" validate:"max=100"`
	AvailableTime      string   `json:"available_time" validate:"omitempty"`
	KeptImageURIs      []string `json:"kept_image_uris"`
	PreviousImageCount int      `json:"previous_image_count" validate:"min=0"`
}

// EditItem updates an existing item, keeping the listed images and
// appending any staged photos as new ones.
func EditItem(svc uploads.Service, session *capture.Session, buffer *staging.Buffer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := chi.URLParam(r, "id")
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		var payload editItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		photos, err := session.Finish()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, imagesChanged, err := svc.SubmitEdit(r.Context(), itemID, uploads.EditItemInput{
			Title:              payload.Title,
			Description:        payload.Description,
			Location:           payload.Location,
			InternalID:         payload.InternalID,
			AvailableTime:      payload.AvailableTime,
			KeptImageURIs:      payload.KeptImageURIs,
			NewPhotos:          photos,
			PreviousImageCount: payload.PreviousImageCount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := buffer.Clear(); err != nil && logg != nil {
			logg.Warn(r.Context(), "releasing previews after upload failed")
		}
		responses.WriteSuccess(w, map[string]any{
			"item":           item,
			"images_changed": imagesChanged,
		})
	}
}

// DeleteItem removes an item from the catalog and its metadata record.
func DeleteItem(svc uploads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := chi.URLParam(r, "id")
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}
		if err := svc.Delete(r.Context(), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"id": itemID, "status": "deleted"})
	}
}

// UploadProgress reports where the current submission is in the pipeline.
func UploadProgress(svc uploads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Progress())
	}
}
