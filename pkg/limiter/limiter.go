package limiter

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const defaultTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type visitors struct {
	mu        sync.Mutex
	items     map[string]*visitor
	rps       rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
}

func newVisitors(rps, burst int, ttl time.Duration) *visitors {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &visitors{
		items: make(map[string]*visitor),
		rps:   rate.Limit(rps),
		burst: burst,
		ttl:   ttl,
	}
}

func (v *visitors) get(ip string, now time.Time) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	if now.Sub(v.lastSweep) > v.ttl {
		v.sweep(now)
	}

	item, ok := v.items[ip]
	if !ok {
		item = &visitor{limiter: rate.NewLimiter(v.rps, v.burst)}
		v.items[ip] = item
	}
	item.lastSeen = now

	return item.limiter
}

// sweep drops buckets idle for longer than ttl. Callers hold mu.
func (v *visitors) sweep(now time.Time) {
	for ip, item := range v.items {
		if now.Sub(item.lastSeen) > v.ttl {
			delete(v.items, ip)
		}
	}
	v.lastSweep = now
}

// Limit returns a per client IP token bucket middleware. Idle buckets are
// dropped after ttl, swept from the request path at most once per ttl, so the
// middleware owns no goroutine.
func Limit(rps, burst int, ttl time.Duration) gin.HandlerFunc {
	v := newVisitors(rps, burst, ttl)

	return func(c *gin.Context) {
		if !v.get(c.ClientIP(), time.Now()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
