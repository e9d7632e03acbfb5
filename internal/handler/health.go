package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/communities/internal/response"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db     Pinger
	logger *slog.Logger
}

func NewHealthHandler(db Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

type healthStatus struct {
	Database string `json:"database"`
}

// HandleHealth answers 200 when the database responds within two seconds
// and 503 otherwise.
//
// HTTP: GET /healthz
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		response.Fail(w, r, http.StatusServiceUnavailable, response.ErrorItem{
			Message: "database unavailable",
			Code:    response.CodeInternalError,
		})
		return
	}

	response.JSON(w, r, http.StatusOK, healthStatus{Database: "ok"}, nil)
}
