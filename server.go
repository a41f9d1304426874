package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"examdash/internal/config"
	"examdash/internal/dashboard"
	"examdash/internal/dataset"
	"examdash/internal/detail"
	"examdash/internal/search"
)

// narrator produces a commentary on one student's projection.
type narrator interface {
	Narrate(ctx context.Context, p detail.Projection) (string, error)
}

// Site is the read-only state shared by the web, API and chart handlers.
// Every request projects independently; there is no shared selection.
type Site struct {
	Dataset  *dataset.Dataset
	Overview dashboard.Overview
	Matcher  *search.Matcher
	Insight  narrator
}

// NewSite derives the overview and search index from ds. n may be nil.
func NewSite(ds *dataset.Dataset, n narrator) *Site {
	ds.Normalize()
	return &Site{
		Dataset:  ds,
		Overview: dashboard.BuildOverview(ds),
		Matcher:  search.New(ds.Students),
		Insight:  n,
	}
}

// Project looks up a student and builds the comparison series.
func (s *Site) Project(id string) (detail.Projection, error) {
	student, ok := s.Dataset.Student(id)
	if !ok {
		return detail.Projection{}, fmt.Errorf("%w: %s", dashboard.ErrUnknownStudent, id)
	}
	return detail.Project(student), nil
}

// NewRouter wires every route onto a chi router.
func NewRouter(site *Site) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Web handlers (HTML responses)
	webHandler := NewWebHandler(site)
	r.Get("/", webHandler.Dashboard)
	r.Get("/students/{id}", webHandler.StudentDetail)

	// Chart images
	chartHandler := &ChartHandler{Site: site}
	r.Route("/charts", func(r chi.Router) {
		r.Get("/distribution.png", chartHandler.Distribution)
		r.Get("/subjects.png", chartHandler.Subjects)
		r.Get("/classes.png", chartHandler.Classes)
		r.Get("/students/{id}.png", chartHandler.Student)
	})

	// API handlers (JSON responses)
	apiHandler := &APIHandler{Site: site}
	r.Route("/api", func(r chi.Router) {
		r.Get("/overview", apiHandler.Overview)
		r.Get("/summary", apiHandler.Summary)
		r.Get("/leaderboards", apiHandler.Leaderboards)
		r.Get("/search", apiHandler.Search)
		r.Get("/students/{id}", apiHandler.GetStudent)
		r.Post("/students/{id}/insight", apiHandler.Insight)
	})

	return r
}

// startServer loads the dataset and serves the dashboard until the
// listener fails.
func startServer(cfg config.Config) error {
	logger := setupLogger(cfg)

	ds, err := dataset.Load(context.Background(), cfg.DataSource)
	if err != nil {
		logger.Error("Dataset load failed", "error", err, "source", cfg.DataSource)
		return err
	}

	n := initInsight(cfg, logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting server", "addr", addr, "students", len(ds.Students), "insight", n != nil)
	fmt.Printf("Starting server on http://localhost%s\n", addr)
	return http.ListenAndServe(addr, NewRouter(NewSite(ds, n)))
}
