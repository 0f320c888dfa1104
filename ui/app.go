package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/luke-benham/Cytometry/app"
	"github.com/luke-benham/Cytometry/internal"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

// App represents the dashboard application
type App struct {
	router    *chi.Mux
	service   *app.AnalysisService
	logger    *internal.Logger
	templates *template.Template

	// sourceFile is the tabular file the destructive reload action loads.
	sourceFile string
}

// Config holds dashboard application configuration
type Config struct {
	SourceFile string
}

// NewApp creates a new dashboard application
func NewApp(service *app.AnalysisService, logger *internal.Logger, config Config) (*App, error) {
	funcMap := template.FuncMap{
		"pct": func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"pval": func(v float64) string {
			if v < 0.001 {
				return fmt.Sprintf("%.2e", v)
			}
			return fmt.Sprintf("%.4f", v)
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:     chi.NewRouter(),
		service:    service,
		logger:     logger,
		templates:  templates,
		sourceFile: config.SourceFile,
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))

	staticFS := http.FileServer(http.FS(embeddedFiles))
	a.router.Handle("/static/*", staticFS)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleDashboard)
	a.router.Post("/reload", a.handleReload)
	a.router.Post("/samples", a.handleAddSample)
	a.router.Post("/samples/remove", a.handleRemoveSample)
	a.router.Get("/export/frequencies.csv", a.handleExportFrequencies)
}

// Router returns the chi router for mounting in an http.Server
func (a *App) Router() http.Handler {
	return a.router
}
