// Command loadsource replaces the store's contents from a cell-count source
// file without starting the dashboard. Useful for seeding a fresh database
// or restoring from a known file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/luke-benham/Cytometry/adapters/sqlite"
	"github.com/luke-benham/Cytometry/app"
	"github.com/luke-benham/Cytometry/internal"
	"github.com/luke-benham/Cytometry/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	source := flag.String("source", cfg.Data.SourceFile, "cell-count source file (.csv or .xlsx)")
	dbFile := flag.String("db", cfg.Database.File, "SQLite store file")
	flag.Parse()

	logger := internal.NewDefaultLogger()
	repo := sqlite.NewSampleRepository(*dbFile)
	service := app.NewAnalysisService(repo, logger)

	status := service.LoadFromSource(context.Background(), *source)
	fmt.Println(status)
	if strings.HasPrefix(status, "Error") {
		os.Exit(1)
	}
}
