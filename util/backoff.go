package util

import (
	"math/rand/v2"
	"time"
)

type BackOff struct {
	BaseDelay  time.Duration
	Multiplier float64
	Jitter     float64
	MaxDelay   time.Duration
}

var DefaultBackOff = BackOff{
	BaseDelay:  1 * time.Second,
	Multiplier: 1.6,
	Jitter:     0.2,
	MaxDelay:   120 * time.Second,
}

// Duration returns how long to wait before attempt number retries, growing
// from BaseDelay by Multiplier up to MaxDelay, spread by +/- Jitter.
func (b BackOff) Duration(retries int) time.Duration {
	if retries == 0 {
		return b.BaseDelay
	}
	backoff, m := float64(b.BaseDelay), float64(b.MaxDelay)
	for backoff < m && retries > 0 {
		backoff *= b.Multiplier
		retries--
	}
	if backoff > m {
		backoff = m
	}
	backoff *= 1 + b.Jitter*(rand.Float64()*2-1)
	if backoff < 0 {
		return 0
	}
	return time.Duration(backoff)
}
