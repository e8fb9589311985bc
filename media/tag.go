package media

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/gabriel-vasile/mimetype"

	"github.com/neura-neura/sp0t-dl-tg/catalog"
)

const coverMimeFallback = "image/jpeg"

// WriteTags replaces every existing frame of the file at path with tags.
func WriteTags(path string, tags *catalog.TagSet) (err error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if nil != err {
		return fmt.Errorf("failed to open tags: %v", err)
	}
	defer func() {
		if closeErr := tag.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close tagged file: %v", closeErr))
		}
	}()

	tag.DeleteAllFrames()
	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	enc := tag.DefaultEncoding()

	text := func(id, value string) {
		tag.AddFrame(id, id3v2.TextFrame{Encoding: enc, Text: value})
	}
	text("TIT2", tags.Title)
	text("TPE1", tags.Artist)
	text("TPE2", tags.AlbumArtist)
	text("TALB", tags.Album)
	text("TRCK", strconv.Itoa(tags.TrackNumber)+"/"+strconv.Itoa(tags.TotalTracks))
	text("TPOS", strconv.Itoa(tags.DiscNumber)+"/"+strconv.Itoa(tags.TotalDiscs))
	text("TDRC", tags.Date)
	text("TCOP", tags.Copyright)
	tag.AddCommentFrame(id3v2.CommentFrame{
		Encoding:    enc,
		Language:    "eng",
		Description: "",
		Text:        tags.Comment,
	})

	if len(tags.Cover) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    enc,
			MimeType:    coverMime(tags.Cover),
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     tags.Cover,
		})
	}

	if err := tag.Save(); nil != err {
		return fmt.Errorf("failed to save tags: %v", err)
	}

	return nil
}

func coverMime(b []byte) string {
	if m := mimetype.Detect(b); strings.HasPrefix(m.String(), "image/") {
		return m.String()
	}

	return coverMimeFallback
}

// ReadTags reads back the fields written by WriteTags.
func ReadTags(path string) (_ *catalog.TagSet, err error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if nil != err {
		return nil, fmt.Errorf("failed to open tags: %v", err)
	}
	defer func() {
		if closeErr := tag.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close tagged file: %v", closeErr))
		}
	}()

	trackNumber, totalTracks := splitPosition(tag.GetTextFrame("TRCK").Text)
	discNumber, totalDiscs := splitPosition(tag.GetTextFrame("TPOS").Text)

	out := &catalog.TagSet{ //nolint:exhaustruct
		Title:       tag.GetTextFrame("TIT2").Text,
		Artist:      tag.GetTextFrame("TPE1").Text,
		AlbumArtist: tag.GetTextFrame("TPE2").Text,
		Album:       tag.GetTextFrame("TALB").Text,
		TrackNumber: trackNumber,
		TotalTracks: totalTracks,
		DiscNumber:  discNumber,
		TotalDiscs:  totalDiscs,
		Date:        tag.GetTextFrame("TDRC").Text,
		Copyright:   tag.GetTextFrame("TCOP").Text,
	}

	if frames := tag.GetFrames("COMM"); len(frames) > 0 {
		if comment, ok := frames[0].(id3v2.CommentFrame); ok {
			out.Comment = comment.Text
		}
	}

	if frames := tag.GetFrames("APIC"); len(frames) > 0 {
		if pic, ok := frames[0].(id3v2.PictureFrame); ok {
			out.Cover = pic.Picture
		}
	}

	return out, nil
}

func splitPosition(s string) (int, int) {
	n, total, _ := strings.Cut(s, "/")
	a, _ := strconv.Atoi(n)
	b, _ := strconv.Atoi(total)

	return a, b
}
