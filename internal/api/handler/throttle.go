// internal/api/handler/throttle.go
package handler

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"fxwallet/internal/api/types"

	"golang.org/x/time/rate"
)

// UserLimiter allows each authenticated user one request per interval.
type UserLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	limiters map[int64]*rate.Limiter
}

func NewUserLimiter(interval time.Duration) *UserLimiter {
	return &UserLimiter{interval: interval, limiters: make(map[int64]*rate.Limiter)}
}

// Allow reports whether userID may proceed now.
func (l *UserLimiter) Allow(userID int64) bool {
	l.mu.Lock()
	lim, ok := l.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[userID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// Middleware rejects requests over the limit with 429. It must run after
// Authenticator.
func (l *UserLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		if !l.Allow(userID) {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.interval.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, types.ErrorResponse{Error: "Too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
