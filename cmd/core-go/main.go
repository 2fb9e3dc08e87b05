package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"homeatlas/core-go/internal/backend"
	"homeatlas/core-go/internal/detail"
	"homeatlas/core-go/internal/favorites"
	"homeatlas/core-go/internal/filter"
	"homeatlas/core-go/internal/httpapi"
	"homeatlas/core-go/internal/mapsurface"
	"homeatlas/core-go/internal/markers"
	"homeatlas/core-go/internal/metrics"
	"homeatlas/core-go/internal/rankings"
	"homeatlas/core-go/internal/region"
	"homeatlas/core-go/internal/search"
	"homeatlas/core-go/internal/session"
	"homeatlas/core-go/internal/sidebar"
)

func main() {
	_ = godotenv.Load(".env")

	addr := envOr("HTTP_ADDR", ":8082")
	logLevel := envOr("LOG_LEVEL", "info")
	backendURL := envOr("BACKEND_BASE_URL", "")
	backendTimeout := envDuration("BACKEND_TIMEOUT", 5*time.Second)
	searchDebounce := envDuration("SEARCH_DEBOUNCE", 300*time.Millisecond)

	logger := httpapi.NewLogger(logLevel)

	if backendURL == "" {
		logger.Fatal().Msg("BACKEND_BASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	sess := session.NewStore()

	client, err := backend.NewClient(logger, sess, m, backend.Options{
		BaseURL: backendURL,
		Timeout: backendTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build backend client")
	}

	mapview := mapsurface.NewRecorder(mapsurface.DefaultCenter, mapsurface.DefaultLevel)
	filters := filter.NewSet()
	modes := sidebar.New()
	coordinator := markers.New(logger, client, m, markers.Options{FetchTimeout: backendTimeout})
	navigator := region.New(logger, client, mapview, region.Options{FetchTimeout: backendTimeout})
	searcher := search.New(logger, client, modes, m, search.Options{
		Debounce:     searchDebounce,
		FetchTimeout: backendTimeout,
	})
	favs := favorites.New(logger, client, sess, m, favorites.Options{FetchTimeout: backendTimeout})
	detailLoader := detail.New(logger, client, detail.Options{FetchTimeout: backendTimeout})
	boards := rankings.New(logger, client, rankings.Options{FetchTimeout: backendTimeout})

	h := httpapi.NewHandler(logger, httpapi.Deps{
		Metrics:     m,
		Filters:     filters,
		Coordinator: coordinator,
		Regions:     navigator,
		Search:      searcher,
		Sidebar:     modes,
		Favorites:   favs,
		Detail:      detailLoader,
		Rankings:    boards,
		MapView:     mapview,
		Ready:       client.Ping,
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Str("backend", backendURL).Msg("core-go listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
}

func envOr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
