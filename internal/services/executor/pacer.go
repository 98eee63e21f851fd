package executor

import (
	"context"
	"time"
)

// Pacer enforces a fixed pause after each order attempt.
type Pacer struct {
	delay time.Duration
}

// NewPacer creates a pacer. A non-positive delay disables pausing.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Wait blocks for the configured delay or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
