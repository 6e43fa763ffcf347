package http

import (
	"net/http"
	"time"

	"github.com/m-mizutani/dorameter/pkg/domain/model"
	"github.com/m-mizutani/dorameter/pkg/domain/types"
)

type healthHandler struct {
	startedAt time.Time
}

func newHealthHandler(startedAt time.Time) *healthHandler {
	return &healthHandler{startedAt: startedAt}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, &model.HealthStatus{
		Status:    "healthy",
		Service:   "dorameter",
		Version:   types.Version,
		StartedAt: h.startedAt,
	})
}
