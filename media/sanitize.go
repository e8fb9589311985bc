package media

import (
	"strings"

	"github.com/neura-neura/sp0t-dl-tg/catalog"
)

const (
	maxFolderNameLen = 40
	maxFileNameLen   = 80
)

var reserved = strings.NewReplacer(
	`\`, "_",
	"/", "_",
	":", "_",
	"*", "_",
	"?", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
	";", "_",
)

// Sanitize makes s usable as a file name, or as a folder name when folder is
// set. Lengths are counted in runes.
func Sanitize(s string, folder bool) string {
	s = reserved.Replace(s)

	limit := maxFileNameLen
	if folder {
		limit = maxFolderNameLen
	}
	if r := []rune(s); len(r) > limit {
		s = string(r[:limit])
	}

	s = strings.TrimSpace(s)
	if folder && strings.HasSuffix(s, ".") {
		s = strings.TrimSuffix(s, ".") + "_"
	}

	return s
}

// FinalName is the delivered file name of a track.
func FinalName(tags *catalog.TagSet) string {
	return Sanitize(tags.Artist+" - "+tags.Title, false) + ".mp3"
}
