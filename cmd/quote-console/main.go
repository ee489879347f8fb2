package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"quoterag/internal/app"
	"quoterag/internal/config"
	"quoterag/internal/logger"
	"quoterag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml or ~/.config/quoterag/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// log lines would tear the terminal UI
	logPath := filepath.Join(os.TempDir(), "quote-console.log")
	if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		logger.SetOutput(f)
		defer f.Close()
	}

	ctx := context.Background()
	a, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer a.Close()

	if _, err := a.Service.Seed(ctx, cfg.Server.SeedDir); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	n, err := a.Service.CountPrices(ctx)
	if err != nil {
		log.Fatalf("count catalog: %v", err)
	}

	header := fmt.Sprintf("%d entries · %s store · %s embedder · log %s", n, cfg.CatalogStore.Type, a.Embedder.Name(), logPath)
	m := tui.New(ctx, a.Service, header)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
