// Package id3 writes episode metadata and chapter markers as an ID3v2.4 tag.
package id3

import (
	"fmt"
	"time"

	"github.com/bogem/id3v2/v2"

	"github.com/alnah/lingocast/internal/chapter"
)

// Default tag values.
const (
	DefaultTitle  = "LingoFlow - German Learning"
	DefaultArtist = "LingoFlow"
	DefaultAlbum  = "German Learning Texts"
)

// MaxChapters is the largest chapter count a table of contents can hold.
const MaxChapters = 255

const (
	tocElementID = "toc1"
	tocTitle     = "Chapters"
)

// Tags is the metadata written to an episode.
type Tags struct {
	Title    string
	Artist   string
	Album    string
	Chapters []chapter.Info
}

// withDefaults fills empty text fields with the default values.
func (t Tags) withDefaults() Tags {
	if t.Title == "" {
		t.Title = DefaultTitle
	}
	if t.Artist == "" {
		t.Artist = DefaultArtist
	}
	if t.Album == "" {
		t.Album = DefaultAlbum
	}
	return t
}

// ChapterID returns the element ID of the chapter at zero-based index i.
func ChapterID(i int) string {
	return fmt.Sprintf("chap%d", i+1)
}

// Write replaces the ID3 tag of the MP3 file at path.
// One CHAP frame is written per chapter, plus an ordered top-level CTOC
// listing them when there is at least one chapter.
func Write(path string, tags Tags) error {
	if len(tags.Chapters) > MaxChapters {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyChapters, len(tags.Chapters), MaxChapters)
	}
	tags = tags.withDefaults()

	tag, err := id3v2.Open(path, id3v2.Options{Parse: false})
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrTag, path, err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(tags.Title)
	tag.SetArtist(tags.Artist)
	tag.SetAlbum(tags.Album)

	ids := make([]string, len(tags.Chapters))
	for i, c := range tags.Chapters {
		ids[i] = ChapterID(i)
		tag.AddChapterFrame(id3v2.ChapterFrame{
			ElementID:   ids[i],
			StartTime:   time.Duration(c.StartMs) * time.Millisecond,
			EndTime:     time.Duration(c.EndMs) * time.Millisecond,
			StartOffset: id3v2.IgnoredOffset,
			EndOffset:   id3v2.IgnoredOffset,
			Title: &id3v2.TextFrame{
				Encoding: id3v2.EncodingUTF8,
				Text:     c.Title,
			},
		})
	}
	if len(ids) > 0 {
		tag.AddFrame("CTOC", tocFrame{
			ElementID: tocElementID,
			TopLevel:  true,
			Ordered:   true,
			ChildIDs:  ids,
			Title:     tocTitle,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrTag, path, err)
	}
	return nil
}
