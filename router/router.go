// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/researches/analysis"
	"github.com/danielhkuo/researches/cliparse"
	"github.com/danielhkuo/researches/comparison"
	"github.com/danielhkuo/researches/handlers"
	"github.com/danielhkuo/researches/middleware"
	"github.com/danielhkuo/researches/store"
	"github.com/danielhkuo/researches/zaidel"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, client zaidel.Client) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	st := store.New(db)
	researchHandler := handlers.NewResearchHandler(st)
	experimentHandler := handlers.NewExperimentHandler(st, analysis.NewEngine(client))
	comparisonHandler := handlers.NewComparisonHandler(st, comparison.NewController(st, client, cfg.ComparisonLockWindow))
	healthHandler := handlers.NewHealthHandler(db)

	// Logged and authenticated
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAuth(cfg.TokenSecret)(h))
	}

	// Health checks and metrics
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /service/health", middleware.WithLogging(healthHandler.Service))
	mux.Handle("GET /metrics", promhttp.Handler())

	// Researches
	mux.HandleFunc("GET /researches/supportedTypes", middleware.WithLogging(researchHandler.SupportedTypes))
	mux.HandleFunc("GET /researches", protected(researchHandler.List))
	mux.HandleFunc("POST /researches", protected(researchHandler.Create))
	mux.HandleFunc("GET /researches/{id}", protected(researchHandler.Get))
	mux.HandleFunc("PATCH /researches/{id}", protected(researchHandler.Update))
	mux.HandleFunc("DELETE /researches/{id}", protected(researchHandler.Delete))
	mux.HandleFunc("POST /researches/{id}/copy", protected(researchHandler.Copy))

	// Experiments
	mux.HandleFunc("GET /experiments", protected(experimentHandler.List))
	mux.HandleFunc("POST /experiments", protected(experimentHandler.Create))
	mux.HandleFunc("GET /experiments/{id}", protected(experimentHandler.Get))
	mux.HandleFunc("PATCH /experiments/{id}", protected(experimentHandler.Update))
	mux.HandleFunc("DELETE /experiments/{id}", protected(experimentHandler.Delete))

	// Comparisons
	mux.HandleFunc("GET /comparisons", protected(comparisonHandler.List))
	mux.HandleFunc("POST /comparisons", protected(comparisonHandler.Create))
	mux.HandleFunc("GET /comparisons/{id}", protected(comparisonHandler.Get))
	mux.HandleFunc("DELETE /comparisons/{id}", protected(comparisonHandler.Delete))

	// Analysis service callbacks
	mux.HandleFunc("PATCH /comparisons/{id}/actualization", protected(comparisonHandler.Actualize))
	mux.HandleFunc("PATCH /comparisons/{id}/finalization", protected(comparisonHandler.Finalize))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("researches API v1"))
	})

	return mux
}
