package catalog

import (
	"net/url"
	"regexp"
	"strings"
)

type LinkKind int

const (
	LinkKindTrack LinkKind = iota
	LinkKindAlbum
	LinkKindPlaylist
)

func (k LinkKind) String() string {
	switch k {
	case LinkKindTrack:
		return "track"
	case LinkKindAlbum:
		return "album"
	case LinkKindPlaylist:
		return "playlist"
	}

	return "unknown"
}

func ParseLinkKind(s string) (LinkKind, bool) {
	switch s {
	case "track":
		return LinkKindTrack, true
	case "album":
		return LinkKindAlbum, true
	case "playlist":
		return LinkKindPlaylist, true
	}

	return 0, false
}

type Link struct {
	Kind LinkKind
	ID   string
}

var urlPattern = regexp.MustCompile(`https?://\S+`)

// ParseLink returns the first track, album or playlist link found in text.
// Links look like https://host/[intl-xx/]<kind>/<id>[?query].
func ParseLink(text string) (Link, bool) {
	for _, raw := range urlPattern.FindAllString(text, -1) {
		u, err := url.Parse(raw)
		if nil != err || u.Scheme != "https" {
			continue
		}

		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i+1 < len(parts); i++ {
			kind, ok := ParseLinkKind(parts[i])
			if !ok {
				continue
			}

			if id := parts[i+1]; isID(id) {
				return Link{Kind: kind, ID: id}, true
			}
		}
	}

	return Link{}, false
}

// IDFromURI returns the last colon-separated segment of a catalog URI.
func IDFromURI(uri string) string {
	return uri[strings.LastIndex(uri, ":")+1:]
}

func isID(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}

	return true
}
