package ratelimit

import (
	"sync"
	"time"

	"github.com/driftsync/syncshell/internal/models"
)

// burstSeconds is how much unused bandwidth a direction may save up.
const burstSeconds = 2

// Bandwidth holds one optional limiter per transfer direction. A direction
// without a limit is not throttled.
type Bandwidth struct {
	mu       sync.RWMutex
	limiters [2]*RateLimiter
	kbs      [2]int
	now      func() time.Time
}

// NewBandwidth returns a Bandwidth with both directions unlimited.
func NewBandwidth() *Bandwidth {
	return &Bandwidth{now: time.Now}
}

// SetLimitKBs sets d's limit in KB/s. Zero or negative values remove the
// limit; automatic limiting is left to the engine's own pacing.
func (b *Bandwidth) SetLimitKBs(d models.Direction, kbs int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if kbs <= 0 {
		b.limiters[d] = nil
		b.kbs[d] = 0
		return
	}
	rate := float64(kbs) * 1024
	if l := b.limiters[d]; l != nil {
		l.SetRate(rate, rate*burstSeconds)
	} else {
		b.limiters[d] = newRateLimiter(rate, rate*burstSeconds, b.now)
	}
	b.kbs[d] = kbs
}

// LimitKBs returns d's limit, 0 when unlimited.
func (b *Bandwidth) LimitKBs(d models.Direction) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.kbs[d]
}

// Allow grants up to n bytes for d without blocking.
func (b *Bandwidth) Allow(d models.Direction, n int64) int64 {
	if b == nil {
		return n
	}
	b.mu.RLock()
	l := b.limiters[d]
	b.mu.RUnlock()
	if l == nil {
		return n
	}
	return l.Take(n)
}
