package chat

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// turnLimiterStore holds a token bucket per IP+conversationId key, so one
// visitor hammering a conversation cannot starve the rest of the site.
type turnLimiterStore struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex

	perMinute int
	burst     int
}

func newTurnLimiterStore(perMinute, burst int) *turnLimiterStore {
	if perMinute <= 0 {
		perMinute = 20
	}
	if burst <= 0 {
		burst = 5
	}
	return &turnLimiterStore{
		limiters:  make(map[string]*rate.Limiter),
		perMinute: perMinute,
		burst:     burst,
	}
}

// allow consumes one token for the given IP+conversation key.
func (s *turnLimiterStore) allow(ip, conversationID string) bool {
	key := ip + "|" + conversationID

	s.mu.Lock()
	limiter, exists := s.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMinute)), s.burst)
		s.limiters[key] = limiter
	}
	s.mu.Unlock()

	return limiter.Allow()
}
