package apiHttp

import (
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"

	internalV1 "github.com/vibe-gaming/storefront-router/internal/api/http/internal/v1"
	"github.com/vibe-gaming/storefront-router/internal/config"
	"github.com/vibe-gaming/storefront-router/internal/service"
	"github.com/vibe-gaming/storefront-router/pkg/auth"
	"github.com/vibe-gaming/storefront-router/pkg/limiter"
	"github.com/vibe-gaming/storefront-router/pkg/logger"
	"github.com/vibe-gaming/storefront-router/pkg/validator"
)

type Handler struct {
	services     *service.Services
	backend      BackendStatus
	tokenManager auth.TokenManager
	config       *config.Config
}

// NewHandlers wires the HTTP layer. A nil tokenManager turns the operator API off.
func NewHandlers(
	services *service.Services,
	backend BackendStatus,
	tokenManager auth.TokenManager,
	cfg *config.Config,
) *Handler {
	return &Handler{
		services:     services,
		backend:      backend,
		tokenManager: tokenManager,
		config:       cfg,
	}
}

func (h *Handler) Init(cfg *config.Config) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	validator.RegisterGinValidator()

	router.Use(
		ginzap.Ginzap(logger.Logger(), time.RFC3339, true),
		ginzap.RecoveryWithZap(logger.Logger(), true),
		limiter.Limit(cfg.Limiter.RPS, cfg.Limiter.Burst, cfg.Limiter.TTL),
		cors.New(corsConfig(cfg.HttpServer.CorsAllowOrigins)),
	)

	h.initHealthRoutes(router)
	h.initAPI(router)

	storefront, err := newStorefrontProxy(cfg.Storefront.UpstreamURL)
	if err != nil {
		return nil, err
	}

	routing := newRegionRouter(
		h.services.Regions,
		cfg.Routing.DefaultRegion,
		cfg.Routing.GeoHeader,
		cfg.Routing.CacheIDCookie,
		int(cfg.Routing.CacheIDTTL.Seconds()),
		cfg.Routing.ExemptPaths,
	)
	router.NoRoute(routing.Handle, storefront)

	return router, nil
}

func (h *Handler) initAPI(router *gin.Engine) {
	if h.tokenManager == nil {
		return
	}

	internalHandlersV1 := internalV1.NewHandler(h.services, h.tokenManager, h.config)
	api := router.Group("/api")
	internalHandlersV1.Init(api)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "HEAD", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	cfg.MaxAge = 12 * time.Hour

	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true

	return cfg
}
