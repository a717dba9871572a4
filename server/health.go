package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one collaborator.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) bool
}

// handleHealth reports per-collaborator availability. The service stays
// serving while a collaborator is down, so a degraded report is still 200;
// orchestration should alert on the component list, not the status code.
func (s *Server) handleHealth(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		status := "healthy"
		components := make(map[string]string, len(checks))
		for _, check := range checks {
			if check.Check(ctx) {
				components[check.Name] = "up"
			} else {
				components[check.Name] = "down"
				status = "degraded"
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     status,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": components,
		})
	}
}
