// Package ratelimit throttles transfer bandwidth with token buckets.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a token bucket rate limiter where one token is one
// byte. It allows bursts up to maxTokens, then refills at refillRate
// tokens/second.
type RateLimiter struct {
	tokens     float64   // Current number of tokens available
	maxTokens  float64   // Maximum bucket capacity
	refillRate float64   // Tokens added per second
	lastRefill time.Time // Last time tokens were refilled
	now        func() time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a new rate limiter.
//
// Parameters:
//   - tokensPerSecond: Rate at which tokens are added
//   - burstSize: Maximum tokens that can accumulate (allows brief bursts)
func NewRateLimiter(tokensPerSecond float64, burstSize float64) *RateLimiter {
	return newRateLimiter(tokensPerSecond, burstSize, time.Now)
}

func newRateLimiter(tokensPerSecond, burstSize float64, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		tokens:     burstSize, // Start with full bucket
		maxTokens:  burstSize,
		refillRate: tokensPerSecond,
		lastRefill: now(),
		now:        now,
	}
}

// SetRate changes the refill rate and burst size, keeping the tokens already
// earned up to the new capacity.
func (rl *RateLimiter) SetRate(tokensPerSecond, burstSize float64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	rl.refillRate = tokensPerSecond
	rl.maxTokens = burstSize
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
}

// Take grants up to n tokens without blocking and returns how many were
// granted, possibly zero.
func (rl *RateLimiter) Take(n int64) int64 {
	if n <= 0 {
		return 0
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()

	granted := min(float64(n), rl.tokens)
	if granted < 1 {
		return 0
	}
	got := int64(granted)
	rl.tokens -= float64(got)
	return got
}

// Wait blocks until n tokens were taken or ctx is cancelled. Requests larger
// than the burst size are served in burst-sized chunks.
func (rl *RateLimiter) Wait(ctx context.Context, n int64) error {
	for n > 0 {
		// Check if context is already cancelled
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n -= rl.Take(n)
		if n == 0 {
			return nil
		}

		// Wait for either the next token or context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rl.timeUntilNextToken()):
		}
	}
	return nil
}

// refillLocked adds the tokens earned since the last refill.
// Must be called with rl.mu held.
func (rl *RateLimiter) refillLocked() {
	now := rl.now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate

	// Cap at max tokens (don't accumulate infinitely)
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now
}

// timeUntilNextToken calculates how long to wait until at least one token is available.
func (rl *RateLimiter) timeUntilNextToken() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	tokensNeeded := 1.0 - rl.tokens
	if tokensNeeded <= 0 || rl.refillRate <= 0 {
		return 0
	}

	secondsNeeded := tokensNeeded / rl.refillRate
	return time.Duration(secondsNeeded * float64(time.Second))
}

// GetCurrentTokens returns the current number of tokens (for testing/debugging).
func (rl *RateLimiter) GetCurrentTokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}
