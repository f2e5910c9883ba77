package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/vibe-gaming/storefront-router/pkg/logger"
)

const (
	authorizationHeader = "Authorization"
	operatorCtx         = "operator"
)

func (h *Handler) operatorIdentityMiddleware(c *gin.Context) {
	subject, err := h.parseAuthHeader(c)
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			logger.Warn("parse auth header failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, getErrorStruct(OperatorUnauthorizedCode))
		return
	}

	c.Set(operatorCtx, subject)
	c.Next()
}

func (h *Handler) parseAuthHeader(c *gin.Context) (string, error) {
	header := c.GetHeader(authorizationHeader)
	if header == "" {
		return "", errors.New("empty auth header")
	}

	headerParts := strings.Split(header, " ")
	if len(headerParts) != 2 || headerParts[0] != "Bearer" {
		return "", errors.New("invalid auth header")
	}

	if len(headerParts[1]) == 0 {
		return "", errors.New("token is empty")
	}

	return h.tokenManager.Parse(headerParts[1])
}
