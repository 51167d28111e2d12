// footprintd resolves the footprint provider of one mosaic folder and
// serves its masks over HTTP, mainly for inspecting what a mosaic's
// footprint configuration actually selects.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/geomosaic/footprint/internal/logger"
	"github.com/geomosaic/footprint/internal/metrics"
	"github.com/geomosaic/footprint/internal/resolve"
)

var Version = "dev"

func main() {
	cfg := LoadConfig()
	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Component: "footprintd",
		Mosaic:    cfg.MosaicDir,
	}, nil)
	log := logger.NewSlog(&zl)
	log.Info("starting footprintd", "addr", cfg.Addr, "version", Version, "mosaic", cfg.MosaicDir)

	prom := metrics.Init(metrics.Config{Build: metrics.BuildInfo{Version: Version}})

	provider, err := resolve.Open(context.Background(), cfg.MosaicDir,
		resolve.WithLogger(log),
		resolve.WithMetrics(prom),
	)
	if err != nil {
		log.Error("resolve footprint provider", "err", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", prom.Handler())
	r.Get("/roi", roiHandler(log, provider))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		log.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	shutdownSignalCh := make(chan os.Signal, 1)
	signal.Notify(shutdownSignalCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-shutdownSignalCh:
		log.Info("signal received, shutting down", "signal", sig.String())
	case err := <-serverErrCh:
		log.Error("server error", "err", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("server stopped")
}
