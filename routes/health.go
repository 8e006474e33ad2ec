package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck pings one dependency
type HealthCheck func(ctx context.Context) error

// SetupHealthRoutes registers /health. Checks are optional dependencies;
// a failing check degrades the report but the status stays 200 because
// the chat endpoint keeps answering without them.
func SetupHealthRoutes(router *gin.Engine, checks map[string]HealthCheck) {
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "healthy"
		results := make(gin.H, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = "degraded"
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    status,
			"checks":    results,
			"timestamp": time.Now(),
		})
	})
}
