package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omersela/storagescout/api/controllers"
	"github.com/omersela/storagescout/api/middleware"
	"github.com/omersela/storagescout/internal/capture"
	"github.com/omersela/storagescout/internal/catalog"
	"github.com/omersela/storagescout/internal/photo"
	"github.com/omersela/storagescout/internal/search"
	"github.com/omersela/storagescout/internal/staging"
	"github.com/omersela/storagescout/internal/uploads"
	"github.com/omersela/storagescout/pkg/config"
	"github.com/omersela/storagescout/pkg/logger"
	"github.com/omersela/storagescout/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	Redis         *redis.Client
	ReadyChecks   map[string]func() error
	Session       *capture.Session
	Buffer        *staging.Buffer
	Previews      photo.PreviewStore
	Catalog       *catalog.Client
	Uploads       uploads.Service
	Search        search.Service
	MaxUploadMB   int
	PreviewDir    string
	PreviewPrefix string
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	searchPolicy := middleware.NewRateLimitPolicy("search", cfg.RateLimit.SearchWindow, cfg.RateLimit.SearchLimit)
	writePolicy := middleware.NewRateLimitPolicy("write", cfg.RateLimit.WriteWindow, cfg.RateLimit.WriteLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.ReadyChecks))
	})

	r.Handle("/metrics", promhttp.Handler())

	if deps.PreviewDir != "" && deps.PreviewPrefix != "" {
		fs := http.StripPrefix(deps.PreviewPrefix+"/", http.FileServer(http.Dir(deps.PreviewDir)))
		r.Get(deps.PreviewPrefix+"/*", fs.ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth, logg))

		r.Route("/camera", func(r chi.Router) {
			r.Post("/start", controllers.CameraStart(deps.Session, deps.Buffer, logg))
			r.Post("/stop", controllers.CameraStop(deps.Session, deps.Buffer, logg))
			r.Post("/capture", controllers.CameraCapture(deps.Session, deps.Buffer, logg))
			r.Post("/facing", controllers.CameraFacing(deps.Session, deps.Buffer, logg))
			r.Get("/photos", controllers.CameraPhotos(deps.Session, deps.Buffer, logg))
			r.With(middleware.RateLimit(writePolicy, deps.Redis, logg)).Post("/photos", controllers.CameraImportPhotos(deps.Session, deps.Buffer, deps.Previews, deps.MaxUploadMB, logg))
			r.Delete("/photos/{index}", controllers.CameraRemovePhoto(deps.Session, deps.Buffer, logg))
			r.Post("/cancel", controllers.CameraCancel(deps.Session, deps.Buffer, logg))
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ListItems(deps.Catalog, logg))
			r.Get("/progress", controllers.UploadProgress(deps.Uploads, logg))
			r.With(middleware.RateLimit(writePolicy, deps.Redis, logg)).Post("/", controllers.SubmitItem(deps.Uploads, deps.Session, deps.Buffer, logg))
			r.With(middleware.RateLimit(writePolicy, deps.Redis, logg)).Put("/{id}", controllers.EditItem(deps.Uploads, deps.Session, deps.Buffer, logg))
			r.With(middleware.RateLimit(writePolicy, deps.Redis, logg)).Delete("/{id}", controllers.DeleteItem(deps.Uploads, logg))
		})

		r.Route("/search", func(r chi.Router) {
			r.Use(middleware.RateLimit(searchPolicy, deps.Redis, logg))
			r.Post("/", controllers.Search(deps.Search, logg))
			r.Post("/{token}/more", controllers.SearchMore(deps.Search, logg))
		})
	})

	return r
}
