package catalog_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/neura-neura/sp0t-dl-tg/cache"
	"github.com/neura-neura/sp0t-dl-tg/catalog"
	"github.com/neura-neura/sp0t-dl-tg/config"
	"github.com/neura-neura/sp0t-dl-tg/ratelimit"
)

type staticAuth struct{}

func (staticAuth) Authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer test")
}

type queryRequest struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

type queryHandler func(t *testing.T, w http.ResponseWriter, q queryRequest)

// newCatalog starts a server answering persisted queries via handle and
// serving any extra routes.
func newCatalog(t *testing.T, handle queryHandler, routes map[string]http.HandlerFunc) *catalog.Client {
	t.Helper()

	client, _ := newCatalogServer(t, handle, routes)

	return client
}

// newCatalogServer is newCatalog that also returns the server base URL.
func newCatalogServer(t *testing.T, handle queryHandler, routes map[string]http.HandlerFunc) (*catalog.Client, string) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var q queryRequest
		if err := json.NewDecoder(r.Body).Decode(&q); nil != err {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		handle(t, w, q)
	})
	for path, h := range routes {
		mux.HandleFunc(path, h)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	covers := cache.NewCovers()
	t.Cleanup(covers.Stop)

	conf := config.Catalog{ //nolint:exhaustruct
		QueryURL:          srv.URL + "/query",
		ManifestURLFormat: srv.URL + "/manifest/%s",
		StorageURLFormat:  srv.URL + "/storage/%s",
		URINamespace:      "ns",
		Timeouts: config.CatalogTimeouts{
			Query:     5,
			Manifest:  5,
			Cover:     5,
			StreamURL: 5,
			Download:  5,
		},
	}

	return catalog.NewClient(staticAuth{}, srv.Client(), conf, covers, ratelimit.Unlimited()), srv.URL
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}
