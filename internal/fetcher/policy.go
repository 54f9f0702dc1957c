package fetcher

import (
	"math"
	"time"
)

// Policy controls how many times a request is attempted and how long to wait
// between attempts.
type Policy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	BackoffFactor float64
	Timeout       time.Duration
}

var (
	MetadataPolicy = Policy{MaxAttempts: 5, InitialDelay: 3 * time.Second, BackoffFactor: 2, Timeout: 15 * time.Second}
	ChapterPolicy  = Policy{MaxAttempts: 10, InitialDelay: 10 * time.Second, BackoffFactor: 2, Timeout: 30 * time.Second}
	CoverPolicy    = Policy{MaxAttempts: 5, InitialDelay: 3 * time.Second, BackoffFactor: 2, Timeout: 10 * time.Second}
)

// normalized fills zero fields with safe values.
func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.InitialDelay < 0 {
		p.InitialDelay = 0
	}
	if p.BackoffFactor < 1 {
		p.BackoffFactor = 1
	}
	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}
	return p
}

// BaseDelay is the wait after the given failed attempt (1-based) before jitter:
// InitialDelay * BackoffFactor^(attempt-1).
func (p Policy) BaseDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.InitialDelay) * math.Pow(p.BackoffFactor, float64(attempt-1))
	if d > float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Backoff adds jitter to BaseDelay. r is a uniform sample from [0, 1), so the
// jitter stays within [0, 0.1*delay).
func (p Policy) Backoff(attempt int, r float64) time.Duration {
	base := p.BaseDelay(attempt)
	if r < 0 || r >= 1 {
		r = 0
	}
	return base + time.Duration(0.1*float64(base)*r)
}
