// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the HTTP surface: the versioned read API, the run
// trigger, Prometheus metrics and the static word-cloud images.
func NewRouter(h *Handlers, imagesDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/subjects", h.Subjects)
		r.Get("/subjects/{id}/similar", h.Similar)
		r.Get("/kpi", h.KPI)
		r.Post("/run", h.TriggerRun)
	})

	r.Handle("/metrics", promhttp.Handler())

	// Word-cloud PNGs, addressed by sanitized subject id. A missing file
	// is the consumer's placeholder case, served here as a plain 404.
	if imagesDir != "" {
		fs := http.StripPrefix("/images/", http.FileServer(http.Dir(imagesDir)))
		r.Get("/images/*", fs.ServeHTTP)
	}

	return r
}
