package apiHttp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibe-gaming/storefront-router/internal/config"
	"github.com/vibe-gaming/storefront-router/internal/domain"
	"github.com/vibe-gaming/storefront-router/internal/medusa"
	queueClient "github.com/vibe-gaming/storefront-router/internal/queue/client"
	"github.com/vibe-gaming/storefront-router/internal/queue/task"
	"github.com/vibe-gaming/storefront-router/internal/service"
	"github.com/vibe-gaming/storefront-router/pkg/auth"
)

const cookieName = "_medusa_cache_id"

type fakeRegions struct {
	mu          sync.Mutex
	regions     domain.RegionMap
	err         error
	panicMsg    string
	calls       int
	cacheIDs    []string
	updatedAt   time.Time
	loaded      bool
	revalidated []string
	removed     int
	revalErr    error
}

func (f *fakeRegions) Map(ctx context.Context, cacheID string) (domain.RegionMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.cacheIDs = append(f.cacheIDs, cacheID)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.regions, f.err
}

func (f *fakeRegions) Snapshot() (domain.RegionMap, time.Time, bool) {
	return f.regions, f.updatedAt, f.loaded
}

func (f *fakeRegions) Invalidate() {}

func (f *fakeRegions) Revalidate(ctx context.Context, tag string) (int, error) {
	f.revalidated = append(f.revalidated, tag)
	return f.removed, f.revalErr
}

func (f *fakeRegions) Warm(ctx context.Context) error { return nil }

type fakeBackend struct {
	status medusa.Status
}

func (f fakeBackend) CheckStatus(ctx context.Context) medusa.Status { return f.status }

var testRegionMap = domain.NewRegionMap([]domain.Region{
	{ID: "reg_eu", Name: "Europe", CurrencyCode: "eur", Countries: []domain.Country{{ISO2: "dk"}, {ISO2: "de"}}},
	{ID: "reg_us", Name: "United States", CurrencyCode: "usd", Countries: []domain.Country{{ISO2: "us"}}},
})

func testConfig(upstream string) *config.Config {
	cfg := &config.Config{Env: "local"}
	cfg.Limiter.RPS = 1000
	cfg.Limiter.Burst = 1000
	cfg.Limiter.TTL = time.Minute
	cfg.HttpServer.CorsAllowOrigins = []string{"*"}
	cfg.Routing.DefaultRegion = "dk"
	cfg.Routing.GeoHeader = "X-Vercel-IP-Country"
	cfg.Routing.CacheIDCookie = cookieName
	cfg.Routing.CacheIDTTL = 24 * time.Hour
	cfg.Routing.ExemptPaths = []string{"/api/health", "/"}
	cfg.Storefront.UpstreamURL = upstream
	return cfg
}

type testEnv struct {
	router   http.Handler
	regions  *fakeRegions
	upstream *[]string
}

func newTestEnv(t *testing.T, regions *fakeRegions, tokenManager auth.TokenManager, backend BackendStatus) testEnv {
	t.Helper()

	var mu sync.Mutex
	var seen []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.RequestURI())
		mu.Unlock()
		_, _ = w.Write([]byte("page"))
	}))
	t.Cleanup(upstream.Close)

	if backend == nil {
		backend = fakeBackend{status: medusa.Status{Available: true, Message: "backend is available"}}
	}

	cfg := testConfig(upstream.URL)
	services := &service.Services{Regions: regions}
	router, err := NewHandlers(services, backend, tokenManager, cfg).Init(cfg)
	require.NoError(t, err)

	return testEnv{router: router, regions: regions, upstream: &seen}
}

func (e testEnv) do(method, target string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for _, m := range mutate {
		m(req)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(closeNotifyingRecorder{w}, req)
	return w
}

// closeNotifyingRecorder lets the reverse proxy run under gin, which requires
// the underlying writer to implement http.CloseNotifier.
type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
}

func (closeNotifyingRecorder) CloseNotify() <-chan bool {
	return make(chan bool)
}

func withCookie(value string) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: cookieName, Value: value})
	}
}

func withGeo(country string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("X-Vercel-IP-Country", country)
	}
}

func cacheCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	return nil
}

func TestRoutingCanonicalRequestPassesThrough(t *testing.T) {
	env := newTestEnv(t, &fakeRegions{regions: testRegionMap}, nil, nil)

	w := env.do(http.MethodGet, "/dk/store", withCookie("known"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "page", w.Body.String())
	assert.Empty(t, w.Header().Get("Location"))
	assert.Empty(t, w.Header().Values("Set-Cookie"))
	assert.Equal(t, []string{"/dk/store"}, *env.upstream)
	assert.Equal(t, []string{"known"}, env.regions.cacheIDs)
}

func TestRoutingLegacyStoreRedirect(t *testing.T) {
	env := newTestEnv(t, &fakeRegions{regions: testRegionMap}, nil, nil)

	w := env.do(http.MethodGet, "/store?sortBy=price_asc")

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/dk/store?sortBy=price_asc", w.Header().Get("Location"))
	assert.Empty(t, *env.upstream)

	cookie := cacheCookie(w)
	require.NotNil(t, cookie)
	_, err := uuid.Parse(cookie.Value)
	assert.NoError(t, err)
	assert.Equal(t, 86400, cookie.MaxAge)
	assert.Equal(t, "/", cookie.Path)
}

func TestRoutingLegacyProductRedirectUsesGeo(t *testing.T) {
	env := newTestEnv(t, &fakeRegions{regions: testRegionMap}, nil, nil)

	w := env.do(http.MethodGet, "/products/foo-bar", withGeo("US"))

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/us/products/foo-bar", w.Header().Get("Location"))
}

func TestRoutingWrongRegionReplaced(t *testing.T) {
	env := newTestEnv(t, &fakeRegions{regions: testRegionMap}, nil, nil)

	w := env.do(http.MethodGet, "/se/store", withGeo("DK"), withCookie("known"))

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/dk/store", w.Header().Get("Location"))

	cookie := cacheCookie(w)
	require.NotNil(t, cookie)
	assert.Equal(t, "known", cookie.Value)
}

func TestRoutingRedirectKeepsPercentEncoding(t *testing.T) {
	env := newTestEnv(t, &fakeRegions{regions: testRegionMap}, nil, nil)

	tests := []struct {
		target string
		want   string
	}{
		{target: "/products/a%3Fb", want: "/dk/products/a%3Fb"},
		{target: "/products/a%23b", want: "/dk/products/a%23b"},
		{target: "/products/foo%3Fbar?x=1", want: "/dk/products/foo%3Fbar?x=1"},
		{target: "/products/a%2Fb", want: "/dk/products/a%2Fb"},
		{target: "/products/%C3%A6bleskiver", want: "/dk/products/%C3%A6bleskiver"},
		{target: "/se/products/a%3Fb", want: "/dk/products/a%3Fb"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := env.do(http.MethodGet, tt.target)
			assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Location"))
		})
	}
	assert.Empty(t, *env.upstream)
}

func TestRoutingPathRegionWinsOverGeo(t *testing.T) {
	env := newTestEnv(t, &fakeRegions{regions: testRegionMap}, nil, nil)

	w := env.do(http.MethodGet, "/us/store", withGeo("DK"), withCookie("known"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
}

func TestRoutingMissingCountryPrefixed(t *testing.T) {
	env := newTestEnv(t, &fakeRegions{regions: testRegionMap}, nil, nil)

	w := env.do(http.MethodGet, "/api/categories?limit=3")

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/dk/api/categories?limit=3", w.Header().Get("Location"))
}

func TestRoutingStaticAssetsBypass(t *testing.T) {
	regions := &fakeRegions{regions: testRegionMap}
	env := newTestEnv(t, regions, nil, nil)

	for _, target := range []string{"/favicon.ico", "/robots.txt", "/_next/static/chunk.js", "/images/logo"} {
		w := env.do(http.MethodGet, target)
		assert.Equal(t, http.StatusOK, w.Code, target)
		assert.Empty(t, w.Header().Get("Location"), target)
	}
}

func TestRoutingExemptPaths(t *testing.T) {
	regions := &fakeRegions{regions: testRegionMap}
	env := newTestEnv(t, regions, nil, nil)

	w := env.do(http.MethodPost, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Values("Set-Cookie"))
	assert.Zero(t, regions.calls)
}

func TestRoutingFailOpen(t *testing.T) {
	env := newTestEnv(t, &fakeRegions{err: domain.ErrBackendNotConfigured}, nil, nil)

	w := env.do(http.MethodGet, "/store?sortBy=price_asc")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "page", w.Body.String())
	assert.Empty(t, w.Header().Get("Location"))
	assert.Empty(t, w.Header().Values("Set-Cookie"))
	assert.Equal(t, []string{"/store?sortBy=price_asc"}, *env.upstream)
}

func TestRoutingFailOpenOnPanic(t *testing.T) {
	env := newTestEnv(t, &fakeRegions{panicMsg: "boom"}, nil, nil)

	w := env.do(http.MethodGet, "/store")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
}

func TestRoutingProvisionsCacheID(t *testing.T) {
	env := newTestEnv(t, &fakeRegions{regions: testRegionMap}, nil, nil)

	w := env.do(http.MethodGet, "/dk/store")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Location"))

	cookie := cacheCookie(w)
	require.NotNil(t, cookie)
	_, err := uuid.Parse(cookie.Value)
	assert.NoError(t, err)
	assert.Equal(t, 86400, cookie.MaxAge)
	assert.Equal(t, []string{cookie.Value}, env.regions.cacheIDs)
}

func TestRoutingEmptyMapFallsBackToDefault(t *testing.T) {
	env := newTestEnv(t, &fakeRegions{}, nil, nil)

	w := env.do(http.MethodGet, "/store")

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/dk/store", w.Header().Get("Location"))
}

func TestHealthRoutes(t *testing.T) {
	regions := &fakeRegions{regions: testRegionMap}
	env := newTestEnv(t, regions, nil, nil)

	w := env.do(http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "OK")

	w = env.do(http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = env.do(http.MethodGet, "/api/health/backend")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"available":true,"message":"backend is available"}`, w.Body.String())

	assert.Zero(t, regions.calls)
	assert.Empty(t, *env.upstream)
}

func TestBackendHealthUnavailable(t *testing.T) {
	env := newTestEnv(t, &fakeRegions{}, nil, fakeBackend{status: medusa.Status{Message: "connection refused"}})

	w := env.do(http.MethodGet, "/api/health/backend")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNoUpstreamConfigured(t *testing.T) {
	cfg := testConfig("")
	services := &service.Services{Regions: &fakeRegions{regions: testRegionMap}}
	router, err := NewHandlers(services, fakeBackend{}, nil, cfg).Init(cfg)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dk/store", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func bearer(t *testing.T, m *auth.Manager) func(*http.Request) {
	t.Helper()
	token, err := m.NewJWT("ops", time.Minute)
	require.NoError(t, err)
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func withJSON(body string) func(*http.Request) {
	return func(r *http.Request) {
		r.Body = io.NopCloser(strings.NewReader(body))
		r.ContentLength = int64(len(body))
		r.Header.Set("Content-Type", "application/json")
	}
}

func TestOperatorRegions(t *testing.T) {
	manager, err := auth.NewManager("secret")
	require.NoError(t, err)

	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	regions := &fakeRegions{regions: testRegionMap, loaded: true, updatedAt: updated}
	env := newTestEnv(t, regions, manager, nil)

	w := env.do(http.MethodGet, "/api/v1/regions")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error_code":1001,"error_message":"operator token is missing or invalid"}`, w.Body.String())

	w = env.do(http.MethodGet, "/api/v1/regions", bearer(t, manager))
	require.Equal(t, http.StatusOK, w.Code)

	var body regionsBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"dk", "de", "us"}, body.Countries)
	assert.Len(t, body.Regions, 2)
	assert.True(t, updated.Equal(body.UpdatedAt))
}

type regionsBody struct {
	UpdatedAt time.Time       `json:"updated_at"`
	Countries []string        `json:"countries"`
	Regions   []domain.Region `json:"regions"`
}

func TestOperatorRegionsNotLoaded(t *testing.T) {
	manager, err := auth.NewManager("secret")
	require.NoError(t, err)
	env := newTestEnv(t, &fakeRegions{}, manager, nil)

	w := env.do(http.MethodGet, "/api/v1/regions", bearer(t, manager))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOperatorRevalidate(t *testing.T) {
	manager, err := auth.NewManager("secret")
	require.NoError(t, err)
	regions := &fakeRegions{regions: testRegionMap, removed: 1}
	env := newTestEnv(t, regions, manager, nil)

	w := env.do(http.MethodPost, "/api/v1/regions/revalidate", bearer(t, manager), withJSON(`{"tag":"regions-abc"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tag":"regions-abc","removed":1,"warm_enqueued":false}`, w.Body.String())
	assert.Equal(t, []string{"regions-abc"}, regions.revalidated)

	w = env.do(http.MethodPost, "/api/v1/regions/revalidate", bearer(t, manager), withJSON(`{"tag":"Bad Tag"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error_code":6000`)
	assert.Contains(t, w.Body.String(), `"field_key":"tag"`)
}

func TestOperatorRevalidateEnqueuesWarm(t *testing.T) {
	mr := miniredis.RunT(t)
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = asynqClient.Close() })

	manager, err := auth.NewManager("secret")
	require.NoError(t, err)
	env := newTestEnv(t, &fakeRegions{regions: testRegionMap, removed: 1}, manager, nil)

	withQueue := func(r *http.Request) {
		*r = *r.WithContext(queueClient.WithClient(r.Context(), asynqClient))
	}

	w := env.do(http.MethodPost, "/api/v1/regions/revalidate", bearer(t, manager), withJSON(`{"tag":"regions"}`), withQueue)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tag":"regions","removed":1,"warm_enqueued":true}`, w.Body.String())

	pending, err := mr.List("asynq:{" + task.WarmRegionsQueueName + "}:pending")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	w = env.do(http.MethodPost, "/api/v1/regions/revalidate", bearer(t, manager), withJSON(`{"tag":"regions"}`), withQueue)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tag":"regions","removed":1,"warm_enqueued":false}`, w.Body.String())
}

func TestOperatorRevalidateFailure(t *testing.T) {
	manager, err := auth.NewManager("secret")
	require.NoError(t, err)
	regions := &fakeRegions{revalErr: errors.New("redis down")}
	env := newTestEnv(t, regions, manager, nil)

	w := env.do(http.MethodPost, "/api/v1/regions/revalidate", bearer(t, manager), withJSON(`{"tag":"regions"}`))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error_code":2002`)
}

func TestOperatorAPIDisabledWithoutTokenManager(t *testing.T) {
	regions := &fakeRegions{regions: testRegionMap, loaded: true}
	env := newTestEnv(t, regions, nil, nil)

	w := env.do(http.MethodGet, "/api/v1/regions")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/dk/api/v1/regions", w.Header().Get("Location"))
}
