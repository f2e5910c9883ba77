package apiHttp

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vibe-gaming/storefront-router/pkg/logger"
)

// newStorefrontProxy forwards routed requests to the page renderer. Without an
// upstream every request that reaches it gets a 404.
func newStorefrontProxy(upstream string) (gin.HandlerFunc, error) {
	if upstream == "" {
		return func(c *gin.Context) {
			c.String(http.StatusNotFound, "storefront upstream is not configured")
		}, nil
	}

	target, err := url.Parse(upstream)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		host := req.Host
		director(req)
		req.Header.Set("X-Forwarded-Host", host)
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
		logger.Error("storefront upstream request failed",
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		w.WriteHeader(http.StatusBadGateway)
	}

	return func(c *gin.Context) {
		proxy.ServeHTTP(c.Writer, c.Request)
	}, nil
}
