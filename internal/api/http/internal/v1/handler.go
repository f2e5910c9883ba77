package v1

import (
	"github.com/vibe-gaming/storefront-router/internal/config"
	"github.com/vibe-gaming/storefront-router/internal/service"
	"github.com/vibe-gaming/storefront-router/pkg/auth"

	"github.com/gin-gonic/gin"
)

// Handler serves the operator API. Every route requires an operator token.
type Handler struct {
	services     *service.Services
	tokenManager auth.TokenManager
	config       *config.Config
}

func NewHandler(
	services *service.Services,
	tokenManager auth.TokenManager,
	config *config.Config,
) *Handler {
	return &Handler{
		services:     services,
		tokenManager: tokenManager,
		config:       config,
	}
}

func (h *Handler) Init(api *gin.RouterGroup) {
	v1 := api.Group("v1", h.operatorIdentityMiddleware)

	h.initRegionsRoutes(v1)
}
