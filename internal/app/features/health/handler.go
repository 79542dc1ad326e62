// internal/app/features/health/handler.go
package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/lightspeed/internal/app/system/respond"
	"github.com/dalemusser/lightspeed/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Check reports whether one dependency is reachable.
type Check struct {
	Name     string
	Required bool // a failing required check turns the response into a 503
	Ping     func(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Checks []Check
	Log    *zap.Logger
}

// NewHandler builds a Handler that always pings Mongo. Extra checks (Redis,
// the mail broker) are informational unless marked Required.
func NewHandler(client *mongo.Client, logger *zap.Logger, extra ...Check) *Handler {
	checks := []Check{{
		Name:     "database",
		Required: true,
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	}}
	return &Handler{Checks: append(checks, extra...), Log: logger}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Serve handles GET /health.
//
// 200 {"status":"ok","checks":{"database":"ok"}} when every required check
// passes, 503 with status "error" otherwise.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.Checks))}
	code := http.StatusOK

	for _, c := range h.Checks {
		if err := c.Ping(ctx); err != nil {
			h.Log.Error("health-check failed", zap.String("check", c.Name), zap.Error(err))
			resp.Checks[c.Name] = "unavailable"
			if c.Required {
				resp.Status = "error"
				code = http.StatusServiceUnavailable
			}
			continue
		}
		resp.Checks[c.Name] = "ok"
	}

	respond.JSON(w, code, resp)
}
