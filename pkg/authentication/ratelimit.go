// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/canonical/estate-portal/internal/http/types"
	"github.com/canonical/estate-portal/internal/logging"
)

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	limit rate.Limit
	burst int
	now   func() time.Time

	logger logging.LoggerInterface
}

func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}

	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}

	return true, 0
}

func (l *RateLimiter) evict(now time.Time) {
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > limiterIdleTTL {
			delete(l.visitors, k)
		}
	}
}

// Middleware answers 429 with Retry-After once a client exhausts its bucket.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientAddress(r)

		if ok, wait := l.Allow(key); !ok {
			l.logger.Debugf("rate limited %s on %s", key, r.URL.Path)

			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			types.WriteError(w, http.StatusTooManyRequests, "Too many attempts. Please wait a moment and try again.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// NewRateLimiter allows perSecond requests per client with bursts of burst.
// A non positive rate disables limiting.
func NewRateLimiter(perSecond float64, burst int, logger logging.LoggerInterface) *RateLimiter {
	l := new(RateLimiter)

	l.visitors = make(map[string]*visitor)
	l.limit = rate.Limit(perSecond)
	if perSecond <= 0 {
		l.limit = rate.Inf
	}
	l.burst = burst
	if l.burst < 1 {
		l.burst = 1
	}
	l.now = time.Now

	l.logger = logger

	return l
}
