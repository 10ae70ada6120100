package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/shiftly/mono-repo/backend/services/works-service/internal/dtos"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController checks DB connectivity, etc.
type HealthController struct {
	db Pinger
}

// NewHealthController takes the DB pool, or nil when the in-memory store
// is in use.
func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db}
}

// HealthCheckHandler => GET /health
func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if c.db == nil {
		utils.RespondWithJSON(w, http.StatusOK, dtos.HealthCheckResponse{Status: "OK", Store: "memory"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := c.db.Ping(ctx); err != nil {
		utils.Logger.WithError(err).Error("works-service DB unreachable")
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeInternal, "Database unreachable", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.HealthCheckResponse{Status: "OK", Store: "postgres"})
}
