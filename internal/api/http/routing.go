package apiHttp

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vibe-gaming/storefront-router/internal/service"
	"github.com/vibe-gaming/storefront-router/pkg/logger"
)

const (
	legacyStoreSegment    = "store"
	legacyProductsSegment = "products"
	apiSegment            = "api"
)

var (
	skippedPrefixes   = []string{"/_next/static", "/_next/image", "/images", "/assets"}
	skippedExtensions = map[string]struct{}{
		".png": {}, ".svg": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {}, ".ico": {},
	}
)

type routeAction int

const (
	routePass routeAction = iota
	routeSetCookie
	routeRedirect
)

type routeDecision struct {
	action   routeAction
	location string
}

// decideRoute canonicalizes escapedPath to the /<countryCode>/... scheme.
// escapedPath must keep its percent encoding, it is copied into the redirect
// location as is. Rules are checked in order and the first match wins.
func decideRoute(escapedPath, rawQuery, countryCode string, hasCacheID bool) routeDecision {
	segments := strings.Split(escapedPath, "/")
	first := ""
	if len(segments) > 1 {
		first = segments[1]
	}

	query := ""
	if rawQuery != "" {
		query = "?" + rawQuery
	}

	switch {
	case first == legacyStoreSegment, first == legacyProductsSegment:
		return redirectTo("/" + countryCode + escapedPath + query)

	case first != "" && first != countryCode && first != apiSegment && !strings.Contains(first, "."):
		return redirectTo("/" + countryCode + "/" + strings.Join(segments[2:], "/") + query)

	case first == countryCode && hasCacheID:
		return routeDecision{action: routePass}

	case first == countryCode:
		return routeDecision{action: routeSetCookie}

	case strings.Contains(segments[len(segments)-1], "."):
		return routeDecision{action: routePass}
	}

	rest := escapedPath
	if rest == "/" {
		rest = ""
	}
	return redirectTo("/" + countryCode + rest + query)
}

func redirectTo(location string) routeDecision {
	return routeDecision{action: routeRedirect, location: location}
}

// skipRouting reports whether a path is outside the routing filter:
// build output, image and asset directories and common static extensions.
func skipRouting(urlPath string) bool {
	if urlPath == "/favicon.ico" {
		return true
	}
	for _, prefix := range skippedPrefixes {
		if urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/") {
			return true
		}
	}
	_, ok := skippedExtensions[strings.ToLower(path.Ext(urlPath))]
	return ok
}

func firstSegment(urlPath string) string {
	segments := strings.SplitN(urlPath, "/", 3)
	if len(segments) < 2 {
		return ""
	}
	return segments[1]
}

type regionRouter struct {
	regions       service.Regions
	defaultRegion string
	geoHeader     string
	cookieName    string
	cookieMaxAge  int
	exempt        map[string]struct{}
}

func newRegionRouter(regions service.Regions, defaultRegion, geoHeader, cookieName string, cookieMaxAge int, exemptPaths []string) *regionRouter {
	exempt := make(map[string]struct{}, len(exemptPaths))
	for _, p := range exemptPaths {
		if p = strings.TrimSpace(p); p != "" {
			exempt[p] = struct{}{}
		}
	}

	return &regionRouter{
		regions:       regions,
		defaultRegion: defaultRegion,
		geoHeader:     geoHeader,
		cookieName:    cookieName,
		cookieMaxAge:  cookieMaxAge,
		exempt:        exempt,
	}
}

// Handle resolves the request country and redirects to the canonical
// /<countryCode>/... url. Resolution failures never reach the client: the
// request continues unrouted.
func (r *regionRouter) Handle(c *gin.Context) {
	urlPath := c.Request.URL.Path
	if _, ok := r.exempt[urlPath]; ok || skipRouting(urlPath) {
		c.Next()
		return
	}

	cacheID, err := c.Cookie(r.cookieName)
	hasCacheID := err == nil && cacheID != ""
	if !hasCacheID {
		cacheID = uuid.NewString()
	}

	decision, err := r.decide(c, cacheID, hasCacheID)
	if err != nil {
		logger.Error("region routing failed, passing request through",
			zap.String("path", urlPath),
			zap.Error(err),
		)
		c.Next()
		return
	}

	switch decision.action {
	case routeRedirect:
		r.setCacheID(c, cacheID)
		c.Redirect(http.StatusTemporaryRedirect, decision.location)
		c.Abort()
	case routeSetCookie:
		r.setCacheID(c, cacheID)
		c.Next()
	default:
		c.Next()
	}
}

func (r *regionRouter) decide(c *gin.Context, cacheID string, hasCacheID bool) (decision routeDecision, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while routing: %v", rec)
		}
	}()

	regions, err := r.regions.Map(c.Request.Context(), cacheID)
	if err != nil {
		return routeDecision{}, fmt.Errorf("get region map failed: %w", err)
	}

	escapedPath := c.Request.URL.EscapedPath()
	countryCode := service.ResolveCountryCode(regions, firstSegment(escapedPath), c.GetHeader(r.geoHeader), r.defaultRegion)

	return decideRoute(escapedPath, c.Request.URL.RawQuery, countryCode, hasCacheID), nil
}

func (r *regionRouter) setCacheID(c *gin.Context, cacheID string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(r.cookieName, cacheID, r.cookieMaxAge, "/", "", c.Request.TLS != nil, false)
}
