package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/service"
)

type StatsSvc interface {
	Stats(ctx context.Context) (service.Stats, error)
	Ping(ctx context.Context) error
}

type Handler struct {
	stats StatsSvc
}

func NewHandler(stats StatsSvc) *Handler {
	return &Handler{stats: stats}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Bot is running"))
}

// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.stats.Ping(r.Context()); err != nil {
		slog.Error("handler.Health:", slog.Any("err", err))
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// GET /stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.stats.Stats(r.Context())
	if err != nil {
		slog.Error("handler.Stats:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, st)
}
