package controllers

import (
	"net/http"

	"github.com/omersela/storagescout/api/responses"
	"github.com/omersela/storagescout/pkg/config"
	pkgerrors "github.com/omersela/storagescout/pkg/errors"
	"github.com/omersela/storagescout/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StorageScout-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, checks map[string]func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StorageScout-Env", cfg.App.Env)
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check(); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" is unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
