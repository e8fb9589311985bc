package media_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/neura-neura/sp0t-dl-tg/catalog"
	"github.com/neura-neura/sp0t-dl-tg/media"
)

var sanitizeInputs = []string{
	"",
	"plain name",
	`AC/DC: Back In Black?`,
	`a\b/c:d*e?f"g<h>i|j;k`,
	"  padded  ",
	"ends with a dot.",
	"....",
	strings.Repeat("x", 39) + ".",
	strings.Repeat("y", 120),
	strings.Repeat("é", 90),
	strings.Repeat("ab ", 30) + "tail",
	strings.Repeat("z", 39) + " .",
	"Beyoncé – Déjà Vu (feat. Jay-Z)",
}

func TestSanitizeRemovesReservedCharacters(t *testing.T) {
	t.Parallel()

	for _, in := range sanitizeInputs {
		for _, folder := range []bool{false, true} {
			out := media.Sanitize(in, folder)
			assert.False(t, strings.ContainsAny(out, `\/:*?"<>|;`), "input %q produced %q", in, out)
		}
	}
}

func TestSanitizeBoundsLength(t *testing.T) {
	t.Parallel()

	for _, in := range sanitizeInputs {
		folder := media.Sanitize(in, true)
		assert.LessOrEqual(t, utf8.RuneCountInString(folder), 40, "input %q", in)
		assert.False(t, strings.HasSuffix(folder, "."), "folder name %q ends with a dot", folder)

		file := media.Sanitize(in, false)
		assert.LessOrEqual(t, utf8.RuneCountInString(file), 80, "input %q", in)
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	t.Parallel()

	for _, in := range sanitizeInputs {
		for _, folder := range []bool{false, true} {
			once := media.Sanitize(in, folder)
			assert.Equal(t, once, media.Sanitize(once, folder), "input %q folder=%t", in, folder)
		}
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "AC_DC_ Back In Black_", media.Sanitize("AC/DC: Back In Black?", false))
	assert.Equal(t, "ends with a dot_", media.Sanitize("ends with a dot.", true))
	assert.Equal(t, "ends with a dot.", media.Sanitize("ends with a dot.", false))
	assert.Equal(t, "padded", media.Sanitize("  padded  ", false))
}

func TestFinalName(t *testing.T) {
	t.Parallel()

	tags := &catalog.TagSet{Artist: "Simon & Garfunkel", Title: "Mrs. Robinson: Live"} //nolint:exhaustruct
	assert.Equal(t, "Simon & Garfunkel - Mrs. Robinson_ Live.mp3", media.FinalName(tags))
}
