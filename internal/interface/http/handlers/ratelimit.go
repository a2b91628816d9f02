package handlers

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// RateLimiter allows limit requests per client IP in each fixed window.
type RateLimiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*window

	stop chan struct{}
	once sync.Once
}

// NewRateLimiter starts a limiter and its sweeper goroutine; call Stop on shutdown.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		clients: make(map[string]*window),
		stop:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Allow counts one request for key.
func (rl *RateLimiter) Allow(key string) bool {
	_, ok := rl.take(key)
	return ok
}

// take returns how long until the window of key resets and whether the request fits.
func (rl *RateLimiter) take(key string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w := rl.clients[key]
	if w == nil || now.Sub(w.start) >= rl.period {
		w = &window{start: now}
		rl.clients[key] = w
	}
	reset := rl.period - now.Sub(w.start)
	if w.count >= rl.limit {
		return reset, false
	}
	w.count++
	return reset, true
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reset, ok := rl.take(ClientIP(r))
		if !ok {
			secs := int(reset.Round(time.Second) / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// sweep drops windows that have expired so idle clients do not pile up.
func (rl *RateLimiter) sweep() {
	t := time.NewTicker(rl.period)
	defer t.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-t.C:
			rl.mu.Lock()
			now := rl.now()
			for k, w := range rl.clients {
				if now.Sub(w.start) >= rl.period {
					delete(rl.clients, k)
				}
			}
			rl.mu.Unlock()
		}
	}
}
