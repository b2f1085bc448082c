package mw

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// limiterPool 按 IP+路径分桶的令牌桶集合，空闲的桶定期回收。
type limiterPool struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	stop    chan struct{}
}

func newLimiterPool(limit rate.Limit, burst int, idleTTL time.Duration) *limiterPool {
	return &limiterPool{
		buckets: make(map[string]*bucket),
		limit:   limit,
		burst:   burst,
		idleTTL: idleTTL,
		stop:    make(chan struct{}),
	}
}

func (p *limiterPool) allow(key string) bool {
	p.mu.Lock()
	b, ok := p.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(p.limit, p.burst)}
		p.buckets[key] = b
	}
	b.lastSeen = time.Now()
	lim := b.lim
	p.mu.Unlock()
	return lim.Allow()
}

func (p *limiterPool) gc() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-p.idleTTL)
			p.mu.Lock()
			for k, b := range p.buckets {
				if b.lastSeen.Before(cutoff) {
					delete(p.buckets, k)
				}
			}
			p.mu.Unlock()
		}
	}
}

// exemptPaths 不参与限速：WebSocket 升级是长连接，健康检查和指标
// 由基础设施高频访问。
var exemptPaths = map[string]bool{
	"/ws":      true,
	"/healthz": true,
	"/metrics": true,
}

// RateLimit 返回基于 IP+路径的令牌桶限速中间件。
func RateLimit(limit rate.Limit, burst int) gin.HandlerFunc {
	pool := newLimiterPool(limit, burst, 2*time.Minute)
	go pool.gc()
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if exemptPaths[path] {
			c.Next()
			return
		}
		key := clientIP(c.Request.RemoteAddr) + "|" + path
		if !pool.allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func clientIP(remote string) string {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}
