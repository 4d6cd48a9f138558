// Package id3tag is a library and set of command-line tools for
// reading, editing, and rewriting the ID3v1/ID3v2 metadata tags
// embedded in MPEG audio files. See mpegfile.go for the file-level
// codec and tagset.go (this file) for the neutral in-memory model that
// ties the id3v1 and id3v2 dialects together.
package id3tag

import (
	"ktkr.us/pkg/id3tag/id3v1"
	"ktkr.us/pkg/id3tag/id3v2"
)

// TagSet is the neutral container for a file's tags: at most one ID3v1
// tag and at most one ID3v2 tag, held independently (invariant I5 of
// spec.md §3 — clearing one slot never touches the other).
type TagSet struct {
	V1 *id3v1.Tag
	V2 *id3v2.Tag
}

// Empty reports whether both slots are unset.
func (ts *TagSet) Empty() bool {
	return ts.V1 == nil && ts.V2 == nil
}

// ConvertV24ToV10 projects the canonical text fields of a v2.4 tag into
// a new ID3v1.0 tag, per spec.md §4.7: title/artist/album/year/comment
// are read from TIT2/TPE1/TALB/TDRC/COMM and truncated to the ID3v1
// field widths by id3v1.Encode; genre defaults to id3v1.GenreOther
// because ID3v1 has no general way to carry a non-numeric v2 genre
// string. The v2 tag is left untouched; callers that want a pure v1.0
// file remove the v2 slot themselves.
func ConvertV24ToV10(v2 *id3v2.Tag) *id3v1.Tag {
	t := &id3v1.Tag{Genre: id3v1.GenreOther}

	if title, ok := v2.GetText("title"); ok {
		t.Title = title
	}
	if artist, ok := v2.GetText("artist"); ok {
		t.Artist = artist
	}
	if album, ok := v2.GetText("album"); ok {
		t.Album = album
	}
	if year, ok := v2.GetText("year"); ok {
		t.Year = year
	}
	if c, ok := v2.GetComment(); ok {
		t.Comment = c.Text
	}
	if idx, ok := v2.GetGenreIndex(); ok {
		t.Genre = byte(idx)
	}

	return t
}

// RemoveV1 clears the TagSet's v1 slot only.
func (ts *TagSet) RemoveV1() { ts.V1 = nil }

// RemoveV2 clears the TagSet's v2 slot only.
func (ts *TagSet) RemoveV2() { ts.V2 = nil }
