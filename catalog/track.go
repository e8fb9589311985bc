package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/neura-neura/sp0t-dl-tg/cache"
	"github.com/neura-neura/sp0t-dl-tg/httputil"
)

type coverSource struct {
	URL   string
	Width int64
}

// TrackTags resolves the tag set of a track, including its cover art bytes.
func (c *Client) TrackTags(ctx context.Context, id string) (*TagSet, error) {
	respBytes, err := c.query(ctx, "getTrack", c.conf.Queries.Track, map[string]any{"uri": c.uri(LinkKindTrack, id)})
	if nil != err {
		return nil, fmt.Errorf("failed to get track %s: %w", id, err)
	}

	tags, coverURL, err := parseTrackTags(id, respBytes)
	if nil != err {
		return nil, err
	}

	if coverURL != "" {
		cover, err := c.covers.Fetch(coverURL, cache.DefaultCoverTTL, func() ([]byte, error) {
			return c.fetchCover(ctx, coverURL)
		})
		if nil != err {
			return nil, fmt.Errorf("failed to get track %s cover: %w", id, err)
		}
		tags.Cover = cover
	}

	return tags, nil
}

func parseTrackTags(id string, b []byte) (*TagSet, string, error) {
	if !gjson.ValidBytes(b) {
		return nil, "", fmt.Errorf("%w: track %s response is not json", ErrMalformedResponse, id)
	}

	track := gjson.GetBytes(b, "data.trackUnion")
	if !track.Exists() || track.Get("__typename").Str == "NotFound" {
		return nil, "", fmt.Errorf("track %s: %w", id, ErrNotFound)
	}

	album := track.Get("albumOfTrack")
	if !album.Exists() {
		return nil, "", fmt.Errorf("%w: track %s has no album", ErrMalformedResponse, id)
	}

	artist := track.Get("firstArtist.items.0.profile.name").Str
	releaseDate := releaseDateOf(album.Get("date"))

	trackNumber := 1
	if n := track.Get("trackNumber"); n.Exists() {
		trackNumber = int(n.Int())
	}

	tags := &TagSet{
		ID:          id,
		Title:       track.Get("name").Str,
		Artist:      artist,
		AlbumArtist: artist,
		Album:       album.Get("name").Str,
		TrackNumber: trackNumber,
		TotalTracks: int(album.Get("tracks.totalCount").Int()),
		DiscNumber:  1,
		TotalDiscs:  1,
		ReleaseDate: releaseDate,
		Date:        yearOf(releaseDate),
		Comment:     "",
		Copyright:   copyrightOf(album.Get("copyright.items")),
		Cover:       nil,
	}

	return tags, largestCover(album.Get("coverArt.sources")), nil
}

// copyrightOf returns the first performance (P) or composition (C) notice.
func copyrightOf(items gjson.Result) string {
	for _, item := range items.Array() {
		if slices.Contains([]string{"P", "C"}, item.Get("type").Str) {
			return item.Get("text").Str
		}
	}

	return ""
}

func releaseDateOf(date gjson.Result) string {
	if date.Get("precision").Str == "YEAR" {
		return strconv.FormatInt(date.Get("year").Int(), 10) + "-01-01"
	}

	iso := date.Get("isoString").Str
	if len(iso) > 10 {
		return iso[:10]
	}

	return iso
}

// yearOf keeps the first four characters of the tagged timestamp.
func yearOf(releaseDate string) string {
	return (releaseDate + "T00:00:00Z")[:4]
}

func largestCover(sources gjson.Result) string {
	candidates := lo.Map(sources.Array(), func(s gjson.Result, _ int) coverSource {
		return coverSource{URL: s.Get("url").Str, Width: s.Get("width").Int()}
	})
	if len(candidates) == 0 {
		return ""
	}

	return lo.MaxBy(candidates, func(a, b coverSource) bool { return a.Width > b.Width }).URL
}

func (c *Client) fetchCover(ctx context.Context, coverURL string) ([]byte, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(500*time.Millisecond),
				backoff.WithMaxInterval(5*time.Second),
			),
			3,
		),
		ctx,
	)

	return backoff.RetryWithData(func() ([]byte, error) {
		b, err := c.downloadCover(ctx, coverURL)
		if nil != err {
			var statusErr *httputil.StatusError
			if errors.As(err, &statusErr) && statusErr.Code < http.StatusInternalServerError {
				return nil, backoff.Permanent(err)
			}

			if errors.Is(err, context.Canceled) {
				return nil, backoff.Permanent(err)
			}

			return nil, err
		}

		return b, nil
	}, policy)
}

func (c *Client) downloadCover(ctx context.Context, coverURL string) (b []byte, err error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.conf.Timeouts.Cover)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if nil != err {
		return nil, fmt.Errorf("failed to create cover request: %v", err)
	}

	resp, err := c.http.Do(req)
	if nil != err {
		return nil, fmt.Errorf("failed to send cover request: %w", err)
	}
	defer httputil.CloseBody(resp, &err)

	if resp.StatusCode != http.StatusOK {
		return nil, httputil.UnexpectedStatus(resp)
	}

	b, err = io.ReadAll(resp.Body)
	if nil != err {
		return nil, fmt.Errorf("failed to read cover body: %v", err)
	}

	return b, nil
}
