package middleware

import (
	"golang.org/x/time/rate"
)

// RateLimitConfig limits inbound frames on one connection
type RateLimitConfig struct {
	RPS   float64 // 0 disables limiting
	Burst int
}

// DefaultRateLimitConfig returns the per-connection defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RPS:   50,
		Burst: 100,
	}
}

// Enabled reports whether limiting is active
func (c RateLimitConfig) Enabled() bool {
	return c.RPS > 0
}

// ConnectionLimiter is a token bucket owned by a single connection. A nil
// *ConnectionLimiter allows everything.
type ConnectionLimiter struct {
	limiter *rate.Limiter
}

// NewConnectionLimiter creates a limiter, or nil when limiting is disabled
func NewConnectionLimiter(config RateLimitConfig) *ConnectionLimiter {
	if !config.Enabled() {
		return nil
	}
	burst := config.Burst
	if burst < 1 {
		burst = 1
	}
	return &ConnectionLimiter{
		limiter: rate.NewLimiter(rate.Limit(config.RPS), burst),
	}
}

// Allow reports whether one more frame may be processed now
func (l *ConnectionLimiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.limiter.Allow()
}
