package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/contact-keeper/internal/http/respond"
)

// HealthHandler returns uptime and basic status.
type HealthHandler struct {
	startedAt time.Time
	log       *zap.Logger
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, log *zap.Logger) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, log: log}
}

// Register wires the health and welcome routes.
func (h *HealthHandler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/", h.handleWelcome).Methods(http.MethodGet)
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, h.log, http.StatusOK, "ok", map[string]string{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}

func (h *HealthHandler) handleWelcome(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, h.log, http.StatusOK, "Welcome to the ContactKeeper API", nil)
}
