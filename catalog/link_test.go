package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neura-neura/sp0t-dl-tg/catalog"
)

func TestParseLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		expected catalog.Link
		ok       bool
	}{
		{
			name:     "track link",
			text:     "https://open.example.com/track/4uLU6hMCjMI75M1A2tKUQC",
			expected: catalog.Link{Kind: catalog.LinkKindTrack, ID: "4uLU6hMCjMI75M1A2tKUQC"},
			ok:       true,
		},
		{
			name:     "album link with query",
			text:     "https://open.example.com/album/1DFixLWuPkv3KT3TnV35m3?si=abc",
			expected: catalog.Link{Kind: catalog.LinkKindAlbum, ID: "1DFixLWuPkv3KT3TnV35m3"},
			ok:       true,
		},
		{
			name:     "playlist link with locale prefix inside text",
			text:     "check this https://open.example.com/intl-es/playlist/37i9dQZF1DXcBWIGoYBM5M please",
			expected: catalog.Link{Kind: catalog.LinkKindPlaylist, ID: "37i9dQZF1DXcBWIGoYBM5M"},
			ok:       true,
		},
		{
			name: "plain http is rejected",
			text: "http://open.example.com/track/abc",
		},
		{
			name: "artist link is not supported",
			text: "https://open.example.com/artist/0OdUWJ0sBjDrqHygGUXeCF",
		},
		{
			name: "missing id",
			text: "https://open.example.com/track/",
		},
		{
			name: "no link",
			text: "hello there",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			link, ok := catalog.ParseLink(test.text)
			assert.Equal(t, test.ok, ok)
			if test.ok {
				assert.Equal(t, test.expected, link)
			}
		})
	}
}

func TestIDFromURI(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", catalog.IDFromURI("ns:track:abc"))
	assert.Equal(t, "abc", catalog.IDFromURI("abc"))
}
