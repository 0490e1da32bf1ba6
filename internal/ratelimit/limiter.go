// Package ratelimit provides the request pacing handle shared by every client
// built for one forge credential.
package ratelimit

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Limiter blocks until the caller may issue another request
type Limiter interface {
	Wait(ctx context.Context) error
}

type unlimited struct{}

func (unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}

// Unlimited returns a Limiter that never blocks
func Unlimited() Limiter {
	return unlimited{}
}

// TokenBucket paces requests at a steady rate with bursts
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket allows rps requests per second with the given burst. rps <= 0 means unlimited.
func NewTokenBucket(rps float64, burst int) Limiter {
	if rps <= 0 {
		return Unlimited()
	}
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (b *TokenBucket) Wait(ctx context.Context) error {
	return b.limiter.Wait(ctx)
}

// Counting wraps a Limiter and records how many waits were granted
type Counting struct {
	Limiter
	calls atomic.Int64
}

func NewCounting(inner Limiter) *Counting {
	return &Counting{Limiter: inner}
}

func (c *Counting) Wait(ctx context.Context) error {
	if err := c.Limiter.Wait(ctx); err != nil {
		return err
	}
	c.calls.Add(1)
	return nil
}

// Calls returns the number of granted waits so far
func (c *Counting) Calls() int {
	return int(c.calls.Load())
}
