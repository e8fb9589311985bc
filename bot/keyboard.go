package bot

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/goccy/go-json"

	"github.com/neura-neura/sp0t-dl-tg/catalog"
	"github.com/neura-neura/sp0t-dl-tg/must"
)

const (
	searchLimit        = 10
	maxTrackButtons    = 4
	maxAlbumButtons    = 4
	maxPlaylistButtons = 2
	noneCallbackData   = "none"
)

var ErrInvalidCallbackData = errors.New("invalid callback data")

type callbackData struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func encodeCallbackData(it catalog.SearchItem) string {
	return string(must.Value(json.Marshal(callbackData{Type: it.Kind.String(), ID: it.ID})))
}

// parseCallbackData decodes a search button. ok is false for the "none"
// button.
func parseCallbackData(data string) (link catalog.Link, ok bool, err error) {
	if data == noneCallbackData {
		return catalog.Link{}, false, nil
	}

	var d callbackData
	if err := json.Unmarshal([]byte(data), &d); nil != err {
		return catalog.Link{}, false, fmt.Errorf("%w: %v", ErrInvalidCallbackData, err)
	}

	kind, known := catalog.ParseLinkKind(d.Type)
	if !known || d.ID == "" {
		return catalog.Link{}, false, fmt.Errorf("%w: %q", ErrInvalidCallbackData, data)
	}

	return catalog.Link{Kind: kind, ID: d.ID}, true, nil
}

func searchKeyboard(res *catalog.SearchResults) gotgbot.InlineKeyboardMarkup {
	var rows [][]gotgbot.InlineKeyboardButton
	add := func(text string, it catalog.SearchItem) {
		rows = append(rows, []gotgbot.InlineKeyboardButton{{ //nolint:exhaustruct
			Text:         text,
			CallbackData: encodeCallbackData(it),
		}})
	}

	for _, it := range firstN(res.Tracks, maxTrackButtons) {
		add("🎵 "+it.Name+" - "+it.Owner, it)
	}

	for _, it := range firstN(res.Albums, maxAlbumButtons) {
		add("💿 "+it.Name+" - "+it.Owner+" ("+strconv.Itoa(it.TrackCount)+" tracks)", it)
	}

	for _, it := range firstN(res.Playlists, maxPlaylistButtons) {
		add("📃 "+it.Name+" - "+it.Owner, it)
	}

	rows = append(rows, []gotgbot.InlineKeyboardButton{{ //nolint:exhaustruct
		Text:         "❌ None of these",
		CallbackData: noneCallbackData,
	}})

	return gotgbot.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func firstN[T any](s []T, n int) []T {
	return s[:min(n, len(s))]
}
