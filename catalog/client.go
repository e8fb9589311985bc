package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/neura-neura/sp0t-dl-tg/cache"
	"github.com/neura-neura/sp0t-dl-tg/config"
	"github.com/neura-neura/sp0t-dl-tg/httputil"
	"github.com/neura-neura/sp0t-dl-tg/ratelimit"
)

const (
	albumPageLimit    = 300
	playlistPageLimit = 100
)

// Authorizer decorates outgoing requests with session credentials.
type Authorizer interface {
	Authorize(req *http.Request)
}

type Client struct {
	auth   Authorizer
	http   *http.Client
	conf   config.Catalog
	covers *cache.Covers
	pacer  ratelimit.Pacer
}

func NewClient(auth Authorizer, httpClient *http.Client, conf config.Catalog, covers *cache.Covers, pacer ratelimit.Pacer) *Client {
	return &Client{
		auth:   auth,
		http:   httpClient,
		conf:   conf,
		covers: covers,
		pacer:  pacer,
	}
}

func (c *Client) uri(kind LinkKind, id string) string {
	if c.conf.URINamespace == "" {
		return kind.String() + ":" + id
	}

	return c.conf.URINamespace + ":" + kind.String() + ":" + id
}

type persistedQuery struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Extensions    struct {
		PersistedQuery struct {
			Version    int    `json:"version"`
			SHA256Hash string `json:"sha256Hash"`
		} `json:"persistedQuery"`
	} `json:"extensions"`
}

// query posts a persisted query envelope and returns the raw 200 body.
// A 429 maps to ErrTooManyRequests.
func (c *Client) query(ctx context.Context, operation, hash string, variables map[string]any) (b []byte, err error) {
	var envelope persistedQuery
	envelope.OperationName = operation
	envelope.Variables = variables
	envelope.Extensions.PersistedQuery.Version = 1
	envelope.Extensions.PersistedQuery.SHA256Hash = hash

	reqBody, err := json.Marshal(envelope)
	if nil != err {
		return nil, fmt.Errorf("failed to encode %s query: %v", operation, err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.conf.Timeouts.Query)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.conf.QueryURL, bytes.NewReader(reqBody))
	if nil != err {
		return nil, fmt.Errorf("failed to create %s request: %v", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) get(ctx context.Context, reqURL string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if nil != err {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) (b []byte, err error) {
	c.auth.Authorize(req)

	resp, err := c.http.Do(req)
	if nil != err {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, context.DeadlineExceeded
		}

		if errors.Is(err, context.Canceled) {
			return nil, context.Canceled
		}

		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer httputil.CloseBody(resp, &err)

	switch code := resp.StatusCode; code {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrTooManyRequests
	default:
		return nil, httputil.UnexpectedStatus(resp)
	}

	return httputil.ReadResponseBody(resp)
}
