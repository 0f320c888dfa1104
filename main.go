package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/luke-benham/Cytometry/adapters/sqlite"
	"github.com/luke-benham/Cytometry/app"
	"github.com/luke-benham/Cytometry/internal"
	"github.com/luke-benham/Cytometry/internal/config"
	"github.com/luke-benham/Cytometry/ui"
)

func main() {
	// Load .env file if present (ignore error for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewDefaultLogger()

	repo := sqlite.NewSampleRepository(cfg.Database.File)
	if err := repo.InitSchema(context.Background()); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	service := app.NewAnalysisService(repo, logger)

	dashboard, err := ui.NewApp(service, logger, ui.Config{SourceFile: cfg.Data.SourceFile})
	if err != nil {
		log.Fatalf("Failed to initialize dashboard: %v", err)
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      dashboard.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("dashboard listening on :%s (store %s)", cfg.Server.Port, cfg.Database.File)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
