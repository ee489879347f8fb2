package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"quoterag/internal/app"
	"quoterag/internal/config"
	"quoterag/internal/httpapi"
	"quoterag/internal/logger"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml or ~/.config/quoterag/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, cfgPath, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}
	logger.Info("config loaded", "path", cfgPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Fatal("startup failed", "error", err)
	}
	defer a.Close()

	// seeding finishes before the listener opens
	n, err := a.Service.Seed(ctx, cfg.Server.SeedDir)
	if err != nil {
		logger.Fatal("seed failed", "dir", cfg.Server.SeedDir, "error", err)
	}
	if n > 0 {
		logger.Info("catalog seeded", "entries", n)
	}

	apiKey := config.Secret(cfg.Server.APIKeyEnv)
	if apiKey == "" {
		logger.Warn("API key not set; every API request will be rejected", "env", cfg.Server.APIKeyEnv)
	}

	if os.Getenv("QUOTERAG_DEBUG") != "true" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(a.Service, httpapi.Options{
		Prefix:         cfg.Server.Prefix,
		APIKey:         apiKey,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "prefix", cfg.Server.Prefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}
