package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"showloop/internal/control"
	"showloop/internal/media"
	"showloop/internal/platform/config"
	"showloop/internal/platform/logger"
	"showloop/internal/platform/metrics"
	"showloop/internal/show"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	assetRoot := config.GetEnv("ASSET_ROOT", "assets")
	staticRoot := config.GetEnv("STATIC_ROOT", "public")
	defaultShow := config.GetEnv("DEFAULT_SHOW", "niki")
	assetCount := config.GetEnvInt("ASSET_COUNT", 6)
	greeting := config.GetEnv("CONTROL_GREETING", "HELLO")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")

	log := logger.New(logLevel, logFormat)

	registry, err := show.NewRegistry(assetRoot)
	if err != nil {
		log.Error("asset root scan failed", "root", assetRoot, "error", err)
		os.Exit(1)
	}
	def := show.DefaultVariant(registry, defaultShow)

	met := metrics.New()
	hub := control.NewHub(greeting, log, met)
	fallback := http.FileServer(http.Dir(staticRoot))
	h := media.NewHandler(registry, def, assetRoot, assetCount, fallback, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		met.Handler(func() { met.SetControlPeers(hub.PeerCount()) }).ServeHTTP(w, req)
	})
	r.HandleFunc("/ws", hub.ServeHTTP)
	r.Get("/{asset}", h.ServeAsset)
	r.Head("/{asset}", h.ServeAsset)
	r.Options("/{asset}", h.Preflight)
	r.NotFound(fallback.ServeHTTP)

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"asset_root", assetRoot,
		"default_show", defaultShow,
		"asset_count", assetCount,
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
