package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

const unknownName = "Unknown"

// Search runs a single catalog search. Rate limiting surfaces as
// ErrTooManyRequests and an unparsable body as ErrMalformedResponse.
func (c *Client) Search(ctx context.Context, query string, limit int) (*SearchResults, error) {
	respBytes, err := c.query(
		ctx,
		"searchDesktop",
		c.conf.Queries.Search,
		map[string]any{
			"searchTerm":         query,
			"offset":             0,
			"limit":              limit,
			"numberOfTopResults": 5,
			"includeAudiobooks":  false,
		},
	)
	if nil != err {
		if errors.Is(err, ErrTooManyRequests) {
			return nil, ErrTooManyRequests
		}

		return nil, fmt.Errorf("search failed: %w", err)
	}

	if !gjson.ValidBytes(respBytes) {
		return nil, fmt.Errorf("%w: invalid json in search response", ErrMalformedResponse)
	}

	return parseSearchResults(respBytes), nil
}

func parseSearchResults(b []byte) *SearchResults {
	out := &SearchResults{Raw: b}
	search := gjson.GetBytes(b, "data.search")

	for _, item := range search.Get("tracks.items").Array() {
		track := item.Get("track")
		if it, ok := searchItem(LinkKindTrack, track, firstArtist(track)); ok {
			out.Tracks = append(out.Tracks, it)
		}
	}

	for _, item := range search.Get("albums.items").Array() {
		if it, ok := searchItem(LinkKindAlbum, item, firstArtist(item)); ok {
			it.TrackCount = int(item.Get("tracks.totalCount").Int())
			out.Albums = append(out.Albums, it)
		}
	}

	for _, item := range search.Get("playlists.items").Array() {
		owner := item.Get("owner.data.name").Str
		if owner == "" {
			owner = unknownName + " Owner"
		}
		if it, ok := searchItem(LinkKindPlaylist, item, owner); ok {
			out.Playlists = append(out.Playlists, it)
		}
	}

	return out
}

func firstArtist(item gjson.Result) string {
	if name := item.Get("artists.items.0.profile.name").Str; name != "" {
		return name
	}

	return unknownName + " Artist"
}

func searchItem(kind LinkKind, item gjson.Result, owner string) (SearchItem, bool) {
	uri, name := item.Get("uri").Str, item.Get("name").Str
	if uri == "" || name == "" {
		return SearchItem{}, false //nolint:exhaustruct
	}

	return SearchItem{Kind: kind, ID: IDFromURI(uri), Name: name, Owner: owner, TrackCount: 0}, true
}
