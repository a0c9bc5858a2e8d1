package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rpattn/signalcat/internal/export"
	"github.com/rpattn/signalcat/internal/middleware"
)

// NewRouter assembles the REST surface. Everything except login requires a
// valid session token.
func NewRouter(handler *Handler, exporter *export.Service, parser middleware.TokenParser) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", handler.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(parser))

			r.Get("/session", handler.handleSession)

			r.Route("/signals", func(r chi.Router) {
				r.Get("/", handler.handleListSignals)
				r.Post("/", handler.handleCreateSignal)
				r.Get("/{id}", handler.handleGetSignal)
				r.Patch("/{id}", handler.handleUpdateSignal)
				r.Delete("/{id}", handler.handleDeleteSignal)
			})

			r.Route("/assets", func(r chi.Router) {
				r.Get("/", handler.handleListAssets)
				r.Post("/", handler.handleCreateAsset)
				r.Get("/{id}", handler.handleGetAsset)
				r.Patch("/{id}", handler.handleUpdateAsset)
				r.Delete("/{id}", handler.handleDeleteAsset)
			})

			r.Route("/versions", func(r chi.Router) {
				r.Get("/", handler.handleRecentChanges)
				r.Method(http.MethodGet, "/export", export.NewHTTPHandler(exporter))
				r.Get("/{kind}/{id}", handler.handleListVersions)
			})

			r.Get("/trash", handler.handleListTrash)
		})
	})

	return r
}
