package catalog

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

// Playlist pages through the playlist membership until the reported total is
// reached. Pages are spaced by the client pacer.
func (c *Client) Playlist(ctx context.Context, id string) (*Playlist, error) {
	playlist := &Playlist{ID: id, Name: "", TrackIDs: nil}

	for offset := 0; ; offset += playlistPageLimit {
		if err := c.pacer.Wait(ctx); nil != err {
			return nil, fmt.Errorf("failed to wait for playlist page slot: %w", err)
		}

		respBytes, err := c.query(
			ctx,
			"fetchPlaylist",
			c.conf.Queries.Playlist,
			map[string]any{
				"uri":    c.uri(LinkKindPlaylist, id),
				"offset": offset,
				"limit":  playlistPageLimit,
			},
		)
		if nil != err {
			return nil, fmt.Errorf("failed to get playlist %s page at offset %d: %w", id, offset, err)
		}

		page, err := parsePlaylistPage(id, respBytes)
		if nil != err {
			return nil, err
		}

		if offset == 0 {
			playlist.Name = page.name
		}
		playlist.TrackIDs = append(playlist.TrackIDs, page.trackIDs...)

		if offset+playlistPageLimit >= page.total {
			break
		}

		if page.items == 0 {
			return nil, fmt.Errorf("%w: playlist %s returned an empty page at offset %d of %d", ErrNoProgress, id, offset, page.total)
		}
	}

	if playlist.Name == "" {
		playlist.Name = "Playlist_" + id
	}

	return playlist, nil
}

type playlistPage struct {
	name     string
	trackIDs []string
	items    int
	total    int
}

func parsePlaylistPage(id string, b []byte) (*playlistPage, error) {
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("%w: playlist %s response is not json", ErrMalformedResponse, id)
	}

	if errs := gjson.GetBytes(b, "errors"); errs.Exists() {
		return nil, fmt.Errorf("%w: playlist %s returned errors: %s", ErrMalformedResponse, id, errs.Raw)
	}

	data := gjson.GetBytes(b, "data.playlistV2")
	if !data.Exists() {
		return nil, fmt.Errorf("%w: playlist %s response has no membership list", ErrMalformedResponse, id)
	}

	if data.Get("__typename").Str == "NotFound" {
		return nil, fmt.Errorf("playlist %s not found or not accessible: %w", id, ErrNotFound)
	}

	items := data.Get("content.items").Array()
	page := &playlistPage{
		name:     data.Get("name").Str,
		trackIDs: make([]string, 0, len(items)),
		items:    len(items),
		total:    int(data.Get("content.totalCount").Int()),
	}
	for _, item := range items {
		wrapper := item.Get("itemV2")
		if wrapper.Get("__typename").Str != "TrackResponseWrapper" {
			continue
		}

		track := wrapper.Get("data")
		if track.Get("__typename").Str != "Track" || !track.Get("uri").Exists() {
			continue
		}
		page.trackIDs = append(page.trackIDs, IDFromURI(track.Get("uri").Str))
	}

	return page, nil
}
