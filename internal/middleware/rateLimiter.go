package middleware

import (
	"sync"
	"time"

	"github.com/akolanti/RegGuru/internal/config"
	"golang.org/x/time/rate"
)

var limiterInstance = NewIPRateLimiter(rate.Limit(config.RATE_LIMIT_PER_SECOND), config.BURST_RATE_LIMIT_PER_SECOND)

// forget clients that have been quiet this long
const limiterIdleTTL = 10 * time.Minute

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out one token bucket per client IP.
type IPRateLimiter struct {
	mu        sync.Mutex
	ips       map[string]*ipLimiter
	rateLimit rate.Limit
	burstRate int
	lastPrune time.Time
	now       func() time.Time
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:       make(map[string]*ipLimiter),
		rateLimit: r,
		burstRate: b,
		now:       time.Now,
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if now.Sub(i.lastPrune) > limiterIdleTTL {
		i.prune(now)
	}
	entry, exists := i.ips[ip]
	if !exists {
		entry = &ipLimiter{limiter: rate.NewLimiter(i.rateLimit, i.burstRate)}
		i.ips[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (i *IPRateLimiter) prune(now time.Time) {
	for ip, entry := range i.ips {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(i.ips, ip)
		}
	}
	i.lastPrune = now
}

//TODO: move the per-IP limiters to redis once more than one API instance runs
