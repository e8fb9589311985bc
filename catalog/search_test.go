package catalog_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neura-neura/sp0t-dl-tg/catalog"
	"github.com/neura-neura/sp0t-dl-tg/httputil"
)

func TestSearch(t *testing.T) {
	t.Parallel()

	client := newCatalog(t, func(t *testing.T, w http.ResponseWriter, q queryRequest) {
		assert.Equal(t, "searchDesktop", q.OperationName)
		assert.Equal(t, "daft punk", q.Variables["searchTerm"])
		assert.EqualValues(t, 10, q.Variables["limit"])
		assert.EqualValues(t, 5, q.Variables["numberOfTopResults"])
		assert.Equal(t, false, q.Variables["includeAudiobooks"])
		_, _ = io.WriteString(w, `{"data":{"search":{
			"tracks":{"items":[
				{"track":{"uri":"ns:track:t1","name":"One More Time","artists":{"items":[{"profile":{"name":"Daft Punk"}}]}}},
				{"track":{"uri":"ns:track:t2","name":"Untitled"}},
				{"track":{"name":"No URI"}}
			]},
			"albums":{"items":[
				{"uri":"ns:album:a1","name":"Discovery","artists":{"items":[{"profile":{"name":"Daft Punk"}}]},"tracks":{"totalCount":14}}
			]},
			"playlists":{"items":[
				{"uri":"ns:playlist:p1","name":"House","owner":{"data":{"name":"dj"}}},
				{"uri":"ns:playlist:p2","name":"Orphan"}
			]}
		}}}`)
	}, nil)

	res, err := client.Search(context.Background(), "daft punk", 10)
	require.NoError(t, err)

	require.Len(t, res.Tracks, 2)
	assert.Equal(t, catalog.SearchItem{Kind: catalog.LinkKindTrack, ID: "t1", Name: "One More Time", Owner: "Daft Punk", TrackCount: 0}, res.Tracks[0])
	assert.Equal(t, "Unknown Artist", res.Tracks[1].Owner)

	require.Len(t, res.Albums, 1)
	assert.Equal(t, "a1", res.Albums[0].ID)
	assert.Equal(t, 14, res.Albums[0].TrackCount)

	require.Len(t, res.Playlists, 2)
	assert.Equal(t, "dj", res.Playlists[0].Owner)
	assert.Equal(t, "Unknown Owner", res.Playlists[1].Owner)
	assert.NotEmpty(t, res.Raw)
}

func TestSearchErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		write func(w http.ResponseWriter)
		check func(t *testing.T, err error)
	}{
		{
			name:  "rate limited",
			write: func(w http.ResponseWriter) { w.WriteHeader(http.StatusTooManyRequests) },
			check: func(t *testing.T, err error) {
				t.Helper()
				require.ErrorIs(t, err, catalog.ErrTooManyRequests)
			},
		},
		{
			name: "server error",
			write: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, "boom")
			},
			check: func(t *testing.T, err error) {
				t.Helper()
				var statusErr *httputil.StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
				assert.NotErrorIs(t, err, catalog.ErrTooManyRequests)
			},
		},
		{
			name:  "invalid json",
			write: func(w http.ResponseWriter) { _, _ = io.WriteString(w, "{not json") },
			check: func(t *testing.T, err error) {
				t.Helper()
				require.ErrorIs(t, err, catalog.ErrMalformedResponse)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := newCatalog(t, func(_ *testing.T, w http.ResponseWriter, _ queryRequest) {
				tc.write(w)
			}, nil)

			_, err := client.Search(context.Background(), "anything", 5)
			tc.check(t, err)
		})
	}
}

func TestAccountAttributes(t *testing.T) {
	t.Parallel()

	client := newCatalog(t, func(t *testing.T, w http.ResponseWriter, q queryRequest) {
		switch q.OperationName {
		case "accountAttributes":
			_, _ = io.WriteString(w, `{"data":{"me":{"account":{"product":"premium","country":"AR"}}}}`)
		case "profileAttributes":
			_, _ = io.WriteString(w, `{"data":{"me":{"profile":{"username":"someone"}}}}`)
		default:
			t.Errorf("unexpected operation %s", q.OperationName)
		}
	}, nil)

	account, err := client.AccountAttributes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &catalog.Account{Product: "premium", Country: "AR", Username: "someone"}, account)
}
