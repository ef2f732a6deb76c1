package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/omersela/storagescout/api/responses"
	"github.com/omersela/storagescout/api/validators"
	"github.com/omersela/storagescout/internal/search"
	pkgerrors "github.com/omersela/storagescout/pkg/errors"
	"github.com/omersela/storagescout/pkg/logger"
)

type searchRequest struct {
	TextQuery   string `json:"text_query" validate:"omitempty,max=500"`
	ImageBase64 string `json:"image_base64" validate:"omitempty,base64"`
}

// Search starts a similarity search and returns the first result page.
func Search(svc search.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload searchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.Search(r.Context(), search.Query{
			TextQuery:   payload.TextQuery,
			ImageBase64: payload.ImageBase64,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// SearchMore fetches the next page for a running search session.
func SearchMore(svc search.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "search token is required"))
			return
		}

		page, err := svc.LoadMore(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
