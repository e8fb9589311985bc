package catalog

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

// Album lists the album tracks in catalog order. Artist and album names come
// from the first track's tags and stay empty for an empty album.
func (c *Client) Album(ctx context.Context, id string) (*Album, error) {
	respBytes, err := c.query(
		ctx,
		"queryAlbumTracks",
		c.conf.Queries.AlbumTracks,
		map[string]any{
			"uri":    c.uri(LinkKindAlbum, id),
			"offset": 0,
			"limit":  albumPageLimit,
		},
	)
	if nil != err {
		return nil, fmt.Errorf("failed to get album %s: %w", id, err)
	}

	trackIDs, err := parseAlbumTrackIDs(id, respBytes)
	if nil != err {
		return nil, err
	}

	album := &Album{ID: id, Artist: "", Name: "", TrackIDs: trackIDs}
	if len(trackIDs) > 0 {
		tags, err := c.TrackTags(ctx, trackIDs[0])
		if nil != err {
			return nil, fmt.Errorf("failed to get album %s first track tags: %w", id, err)
		}
		album.Artist = tags.Artist
		album.Name = tags.Album
	}

	return album, nil
}

func parseAlbumTrackIDs(id string, b []byte) ([]string, error) {
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("%w: album %s response is not json", ErrMalformedResponse, id)
	}

	album := gjson.GetBytes(b, "data.album")
	if !album.Exists() || album.Get("__typename").Str == "NotFound" {
		return nil, fmt.Errorf("album %s: %w", id, ErrNotFound)
	}

	var ids []string
	for _, item := range album.Get("tracks.items").Array() {
		if uri := item.Get("track.uri"); uri.Exists() {
			ids = append(ids, IDFromURI(uri.Str))
		}
	}

	return ids, nil
}
