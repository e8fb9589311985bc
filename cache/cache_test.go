package cache_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neura-neura/sp0t-dl-tg/cache"
)

func TestCoversFetchOnce(t *testing.T) {
	t.Parallel()

	covers := cache.NewCovers()
	t.Cleanup(covers.Stop)

	calls := 0
	fetch := func() ([]byte, error) {
		calls++
		return []byte("jpeg"), nil
	}

	for range 3 {
		b, err := covers.Fetch("https://img/1", time.Minute, fetch)
		require.NoError(t, err)
		assert.Equal(t, []byte("jpeg"), b)
	}
	assert.Equal(t, 1, calls)
}

func TestCoversFetchError(t *testing.T) {
	t.Parallel()

	covers := cache.NewCovers()
	t.Cleanup(covers.Stop)

	errBoom := errors.New("boom")
	_, err := covers.Fetch("https://img/2", time.Minute, func() ([]byte, error) { return nil, errBoom })
	require.ErrorIs(t, err, errBoom)
}
