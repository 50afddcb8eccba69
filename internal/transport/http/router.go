package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, events http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// лента журнала; без таймаута — соединение живёт долго
	if events != nil {
		r.Get("/ws/events", events)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(middlewareChi.Timeout(10 * time.Second))
		pr.Get("/", h.Root)
		pr.Get("/stats", h.Stats)
		pr.Get("/healthz", h.Health)
	})

	return r
}
