package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenflow/lumenflow-backend/internal/observability"
)

// MetricsHandler serves Prometheus text exposition. Returns 404 when
// metrics are disabled so scrapers fail loudly instead of reading zeros.
func MetricsHandler(c *gin.Context) {
	m := observability.Current()
	if m == nil {
		c.String(http.StatusNotFound, "metrics disabled")
		return
	}
	c.Header("Content-Type", "text/plain; version=0.0.4")
	if err := m.WritePrometheus(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
