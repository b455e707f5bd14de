package analytics

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	sink *FileSink
}

func NewHandler(sink *FileSink) *Handler {
	return &Handler{sink: sink}
}

// HandleSummary serves the aggregate impact statistics.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sink.Summarize(r.Context())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": "failed to read analytics"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": summary})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/analytics/summary", h.HandleSummary)
}
