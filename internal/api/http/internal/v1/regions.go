package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vibe-gaming/storefront-router/internal/domain"
	"github.com/vibe-gaming/storefront-router/internal/queue/client"
	"github.com/vibe-gaming/storefront-router/internal/queue/task"
	"github.com/vibe-gaming/storefront-router/pkg/logger"
)

func (h *Handler) initRegionsRoutes(api *gin.RouterGroup) {
	regions := api.Group("/regions")
	regions.GET("", h.getRegions)
	regions.POST("/revalidate", h.revalidateRegions)
}

type regionsResponse struct {
	UpdatedAt time.Time       `json:"updated_at"`
	Countries []string        `json:"countries"`
	Regions   []domain.Region `json:"regions"`
}

func (h *Handler) getRegions(c *gin.Context) {
	regions, updatedAt, ok := h.services.Regions.Snapshot()
	if !ok {
		errorResponse(c, http.StatusNotFound, RegionsNotLoadedCode)
		return
	}

	c.JSON(http.StatusOK, regionsResponse{
		UpdatedAt: updatedAt,
		Countries: regions.Countries(),
		Regions:   regions.Regions(),
	})
}

type revalidateRequest struct {
	Tag string `json:"tag" binding:"required,max=128,cachetag"`
}

type revalidateResponse struct {
	Tag          string `json:"tag"`
	Removed      int    `json:"removed"`
	WarmEnqueued bool   `json:"warm_enqueued"`
}

func (h *Handler) revalidateRegions(c *gin.Context) {
	var req revalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	ctx := c.Request.Context()

	removed, err := h.services.Regions.Revalidate(ctx, req.Tag)
	if err != nil {
		logger.Error("revalidate regions failed", zap.String("tag", req.Tag), zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, RevalidateFailedCode)
		return
	}

	resp := revalidateResponse{Tag: req.Tag, Removed: removed}

	if queue := client.GetClient(ctx); queue != nil {
		t, err := task.NewWarmRegionsTask(req.Tag)
		if err != nil {
			logger.Error("create warm regions task failed", zap.Error(err))
		} else if _, err := queue.EnqueueContext(ctx, t); err != nil {
			logger.Warn("enqueue warm regions task failed", zap.Error(err))
		} else {
			resp.WarmEnqueued = true
		}
	}

	logger.Info("regions revalidated",
		zap.String("tag", req.Tag),
		zap.Int("removed", removed),
		zap.String("operator", c.GetString(operatorCtx)),
	)

	c.JSON(http.StatusOK, resp)
}
