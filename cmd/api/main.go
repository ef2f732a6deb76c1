package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/omersela/storagescout/api/routes"
	"github.com/omersela/storagescout/internal/capture"
	"github.com/omersela/storagescout/internal/catalog"
	"github.com/omersela/storagescout/internal/photo"
	"github.com/omersela/storagescout/internal/search"
	"github.com/omersela/storagescout/internal/staging"
	"github.com/omersela/storagescout/internal/uploads"
	"github.com/omersela/storagescout/pkg/blobstore/gcs"
	"github.com/omersela/storagescout/pkg/config"
	"github.com/omersela/storagescout/pkg/logger"
	"github.com/omersela/storagescout/pkg/maps"
	"github.com/omersela/storagescout/pkg/metrics"
	"github.com/omersela/storagescout/pkg/redis"
)

const previewPrefix = "/previews"

// mapsGeocoder adapts the Places client to the upload pipeline's
// free-text location resolver.
type mapsGeocoder struct {
	client *maps.Client
}

func (g *mapsGeocoder) Geocode(ctx context.Context, query string) (string, error) {
	place, err := g.client.Geocode(ctx, query)
	if err != nil {
		return "", err
	}
	return place.FormattedAddress, nil
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}

	mapsClient, err := maps.NewClient(cfg.GoogleMaps.APIKey)
	if err != nil {
		logg.Error(context.Background(), "failed to create maps client", err)
		os.Exit(1)
	}

	catalogClient, err := catalog.NewClient(cfg.Catalog.BaseURL)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog client", err)
		os.Exit(1)
	}

	searchClient, err := search.NewClient(cfg.Search.BaseURL)
	if err != nil {
		logg.Error(context.Background(), "failed to create search client", err)
		os.Exit(1)
	}

	pipelineMetrics := metrics.NewPipelineMetrics(prometheus.DefaultRegisterer)

	previews, err := photo.NewFileStore(cfg.Media.PreviewDir, cfg.Media.PreviewMaxEdge, previewPrefix)
	if err != nil {
		logg.Error(context.Background(), "failed to prepare preview store", err)
		os.Exit(1)
	}

	buffer, err := staging.NewBuffer(cfg.Media.MaxPhotos)
	if err != nil {
		logg.Error(context.Background(), "failed to create staging buffer", err)
		os.Exit(1)
	}

	var device capture.Device = capture.DisabledDevice{}
	if cfg.Camera.Configured() {
		device, err = capture.NewHTTPDevice(cfg.Camera)
		if err != nil {
			logg.Error(context.Background(), "failed to configure camera", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "no camera snapshot urls configured, kiosk capture disabled")
	}

	session, err := capture.NewSession(device, buffer, previews, cfg.Camera.SettleDelay, pipelineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create capture session", err)
		os.Exit(1)
	}

	uploadService, err := uploads.NewService(gcsClient, catalogClient, &mapsGeocoder{client: mapsClient}, cfg.Media.RequireLocation, pipelineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create upload service", err)
		os.Exit(1)
	}

	sessionStore := search.NewRedisSessionStore(redisClient, cfg.Search.SessionTTL)
	searchService, err := search.NewService(searchClient, sessionStore, cfg.Search.FirstPageSize, cfg.Search.PageSize, pipelineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create search service", err)
		os.Exit(1)
	}

	readyChecks := map[string]func() error{
		"redis": func() error { return redisClient.Ping(context.Background()) },
		"gcs":   func() error { return gcsClient.Ping(context.Background()) },
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			Redis:         redisClient,
			ReadyChecks:   readyChecks,
			Session:       session,
			Buffer:        buffer,
			Previews:      previews,
			MaxUploadMB:   cfg.Media.MaxUploadMB,
			Catalog:       catalogClient,
			Uploads:       uploadService,
			Search:        searchService,
			PreviewDir:    cfg.Media.PreviewDir,
			PreviewPrefix: previewPrefix,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
