package apiHttp

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vibe-gaming/storefront-router/internal/medusa"
)

// BackendStatus probes the commerce backend.
type BackendStatus interface {
	CheckStatus(ctx context.Context) medusa.Status
}

const rootHealthPage = "<html><body><h1>OK</h1></body></html>"

func (h *Handler) initHealthRoutes(router *gin.Engine) {
	router.GET("/", h.rootHealth)
	router.GET("/api/health", h.apiHealth)
	router.GET("/api/health/backend", h.backendHealth)
}

func (h *Handler) rootHealth(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(rootHealthPage))
}

func (h *Handler) apiHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) backendHealth(c *gin.Context) {
	status := h.backend.CheckStatus(c.Request.Context())
	if !status.Available {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}
