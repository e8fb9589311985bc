package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// PlaylistPageInterval is the minimum gap between two playlist page requests.
const PlaylistPageInterval = time.Second

// Pacer blocks until the next request is allowed.
type Pacer interface {
	Wait(ctx context.Context) error
}

func NewPlaylistPacer() *rate.Limiter {
	return rate.NewLimiter(rate.Every(PlaylistPageInterval), 1)
}

// Unlimited never blocks.
func Unlimited() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
