package middleware

import (
	"net/http"
	"strings"

	"github.com/omersela/storagescout/api/responses"
	pkgAuth "github.com/omersela/storagescout/pkg/auth"
	"github.com/omersela/storagescout/pkg/config"
	pkgerrors "github.com/omersela/storagescout/pkg/errors"
	"github.com/omersela/storagescout/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.AuthConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithSubject(r.Context(), claims.Subject)
			if claims.Kiosk != "" {
				ctx = WithKiosk(ctx, claims.Kiosk)
			}

			if logg != nil {
				fields := map[string]any{"subject": claims.Subject}
				if claims.Kiosk != "" {
					fields["kiosk"] = claims.Kiosk
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
