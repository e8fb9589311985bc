package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/karlseguin/ccache/v3"
)

var DefaultCoverTTL = 1 * time.Hour

// Covers keeps downloaded cover art keyed by its URL. Album tracks share one
// cover, so a batch fetches it once.
type Covers struct {
	c   *ccache.Cache[[]byte]
	mux sync.Mutex
}

func NewCovers() *Covers {
	return &Covers{
		c: ccache.New(
			ccache.Configure[[]byte]().
				MaxSize(100).
				GetsPerPromote(3).
				ItemsToPrune(1),
		),
		mux: sync.Mutex{},
	}
}

func (c *Covers) Fetch(url string, ttl time.Duration, fetch func() ([]byte, error)) ([]byte, error) {
	c.mux.Lock()
	defer c.mux.Unlock()

	item, err := c.c.Fetch(url, ttl, fetch)
	if nil != err {
		return nil, fmt.Errorf("fetch cover: %w", err)
	}

	return item.Value(), nil
}

func (c *Covers) Stop() {
	c.c.Stop()
}
