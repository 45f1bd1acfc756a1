package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/config"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/handlers"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/metrics"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/ratelimit"
)

func SetupRoutes(cfg *config.Config, bridge *handlers.Bridge) *chi.Mux {
	r := chi.NewRouter()

	// standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":   "ok",
			"endpoint": cfg.EndpointURL,
		})
	})
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Use(ratelimit.Middleware(ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)))
		r.Post("/chat/completions", bridge.HandleChatCompletion)
		r.Get("/models", bridge.HandleListModels)
	})

	return r
}
