package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// WalletRateLimiter is the in-process fallback implementation of the join
// rate limit, one token bucket per wallet. Single-node only; deployments
// with several API servers use the redis-backed limiter instead.
type WalletRateLimiter struct {
	mu      sync.Mutex
	wallets map[string]*rate.Limiter
	r       rate.Limit
	b       int
}

// NewWalletRateLimiter allows roughly limit attempts per window per wallet.
func NewWalletRateLimiter(limit int, window time.Duration) *WalletRateLimiter {
	return &WalletRateLimiter{
		wallets: make(map[string]*rate.Limiter),
		r:       rate.Limit(float64(limit) / window.Seconds()),
		b:       limit,
	}
}

func (l *WalletRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	lim, ok := l.wallets[key]
	if !ok {
		lim = rate.NewLimiter(l.r, l.b)
		l.wallets[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow(), nil
}
