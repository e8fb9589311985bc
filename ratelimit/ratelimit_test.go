package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neura-neura/sp0t-dl-tg/ratelimit"
)

func TestPlaylistPacerSpacesRequests(t *testing.T) {
	t.Parallel()

	pacer := ratelimit.NewPlaylistPacer()
	ctx := context.Background()

	require.NoError(t, pacer.Wait(ctx))
	start := time.Now()
	require.NoError(t, pacer.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestSleepHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ratelimit.Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
	require.NoError(t, ratelimit.Sleep(context.Background(), time.Millisecond))
}
