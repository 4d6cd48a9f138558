// Package id3v1 implements the ID3v1.0 and ID3v1.1 trailer tag: a fixed
// 128-byte structure appended to the end of an MPEG audio file.
package id3v1

import (
	"ktkr.us/pkg/id3tag/byteio"

	"github.com/pkg/errors"
)

// Size is the fixed byte length of an ID3v1 tag, 1.0 or 1.1 alike.
const Size = 128

// ErrInvalidMagic is returned when the trailing 128 bytes do not begin
// with the "TAG" identification field.
var ErrInvalidMagic = errors.New("id3v1: invalid magic")

// Genres is the Winamp-extended ID3v1 genre list, indices 0-191. The
// first 80 entries (0-79) are the original ID3v1 genre list; the rest
// are the de facto Winamp extension, carried here because real-world
// files commonly use them and a narrower table would make genre
// round-tripping lossy.
var Genres = []string{
	"Blues", "Classic Rock", "Country", "Dance", "Disco", "Funk", "Grunge",
	"Hip-Hop", "Jazz", "Metal", "New Age", "Oldies", "Other", "Pop", "R&B",
	"Rap", "Reggae", "Rock", "Techno", "Industrial", "Alternative", "Ska",
	"Death Metal", "Pranks", "Soundtrack", "Euro-Techno", "Ambient", "Trip-Hop",
	"Vocal", "Jazz+Funk", "Fusion", "Trance", "Classical", "Instrumental", "Acid",
	"House", "Game", "Sound Clip", "Gospel", "Noise", "Alternative Rock", "Bass",
	"Soul", "Punk", "Space", "Meditative", "Instrumental Pop", "Instrumental Rock",
	"Ethnic", "Gothic", "Darkwave", "Techno-Industrial", "Electronic", "Pop-Folk",
	"Eurodance", "Dream", "Southern Rock", "Comedy", "Cult", "Gangsta", "Top 40",
	"Christian Rap", "Pop/Funk", "Jungle", "Native US", "Cabaret", "New Wave",
	"Psychadelic", "Rave", "Showtunes", "Trailer", "Lo-Fi", "Tribal", "Acid Punk",
	"Acid Jazz", "Polka", "Retro", "Musical", "Rock & Roll", "Hard Rock", "Folk",
	"Folk-Rock", "National Folk", "Swing", "Fast Fusion", "Bebop", "Latin",
	"Revival", "Celtic", "Bluegrass", "Avantgarde", "Gothic Rock",
	"Progressive Rock", "Psychedelic Rock", "Symphonic Rock", "Slow Rock",
	"Big Band", "Chorus", "Easy Listening", "Acoustic", "Humour", "Speech",
	"Chanson", "Opera", "Chamber Music", "Sonata", "Symphony", "Booty Bass",
	"Primus", "Porn Groove", "Satire", "Slow Jam", "Club", "Tango", "Samba",
	"Folklore", "Ballad", "Power Ballad", "Rhytmic Soul", "Freestyle", "Duet",
	"Punk Rock", "Drum Solo", "Acapella", "Euro-House", "Dance Hall", "Goa",
	"Drum & Bass", "Club-House", "Hardcore", "Terror", "Indie", "BritPop",
	"Negerpunk", "Polsk Punk", "Beat", "Christian Gangsta", "Heavy Metal",
	"Black Metal", "Crossover", "Contemporary Christian", "Christian Rock",
	"Merengue", "Salsa", "Thrash Metal", "Anime", "Jpop", "Synthpop",
	"Abstract", "Art Rock", "Baroque", "Bhangra", "Big Beat", "Breakbeat",
	"Chillout", "Downtempo", "Dub", "EBM", "Eclectic", "Electro", "Electroclash",
	"Emo", "Experimental", "Garage", "Global", "IDM", "Illbient",
	"Industro-Goth", "Jam Band", "Krautrock", "Leftfield", "Lounge", "Math Rock",
	"New Romantic", "Nu-Breakz", "Post-Punk", "Post-Rock", "Psytrance",
	"Shoegaze", "Space Rock", "Trop Rock", "World Music", "Neoclassical",
	"Audiobook", "Audio Theatre", "Neue Deutsche Welle", "Podcast",
	"Indie Rock", "G-Funk", "Dubstep", "Garage Rock", "Psybient",
}

// GenreOther is the canonical "unknown/other" index used when a genre
// cannot be determined, e.g. during a v2.4-to-v1.0 conversion that has
// no genre information to project.
const GenreOther = 12

// Tag is the neutral, decoded form of an ID3v1 trailer. IsV11 reports
// which of the two sub-dialects (spec.md's V10/V11) the tag was decoded
// as, or should be encoded as.
type Tag struct {
	IsV11   bool
	Title   string
	Artist  string
	Album   string
	Year    string
	Comment string
	Track   byte // only meaningful when IsV11
	Genre   byte
}

// GenreName returns the textual genre name for t.Genre, or "" if the
// index is outside the known table.
func (t *Tag) GenreName() string {
	if int(t.Genre) < len(Genres) {
		return Genres[t.Genre]
	}
	return ""
}

// Detect reports whether buf (the whole file) ends in an ID3v1 tag, and
// if so whether it is the 1.0 or 1.1 sub-dialect. It never fails: an
// undersized buffer or a missing "TAG" magic simply reports false, per
// spec.md §7's detection-predicate policy.
//
// Per spec.md §4.3 and invariant I3, discrimination is:
//   - byte[N-3] (the comment's 29th byte) is NUL and byte[N-2] (the
//     would-be track byte) is non-zero => v1.1.
//   - otherwise (including when both are NUL) => v1.0, matching the
//     policy note's "v1.0 wins" tie-break.
func Detect(buf []byte) (present, isV11 bool) {
	if len(buf) < Size {
		return false, false
	}
	tail := buf[len(buf)-Size:]
	if string(tail[0:3]) != "TAG" {
		return false, false
	}
	commentEnd := tail[Size-3]
	trackByte := tail[Size-2]
	isV11 = commentEnd == 0 && trackByte != 0
	return true, isV11
}

// Decode parses the trailing 128 bytes of buf as an ID3v1 tag. Decode
// assumes Detect has already reported present==true; it still validates
// the magic itself and returns ErrInvalidMagic if that invariant was
// violated by the caller.
func Decode(buf []byte) (*Tag, error) {
	if len(buf) < Size {
		return nil, byteio.ErrTruncated
	}
	r := byteio.NewReader(buf[len(buf)-Size:])

	magic, err := r.ReadFixed(3)
	if err != nil {
		return nil, err
	}
	if string(magic) != "TAG" {
		return nil, ErrInvalidMagic
	}

	title, err := r.ReadFixedText(30)
	if err != nil {
		return nil, err
	}
	artist, err := r.ReadFixedText(30)
	if err != nil {
		return nil, err
	}
	album, err := r.ReadFixedText(30)
	if err != nil {
		return nil, err
	}
	year, err := r.ReadFixedText(4)
	if err != nil {
		return nil, err
	}

	_, isV11 := Detect(buf)

	t := &Tag{IsV11: isV11, Title: title, Artist: artist, Album: album, Year: year}

	if isV11 {
		comment, err := r.ReadFixedText(28)
		if err != nil {
			return nil, err
		}
		if err := r.Skip(1); err != nil { // NUL track marker byte
			return nil, err
		}
		track, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		t.Comment = comment
		t.Track = track
	} else {
		comment, err := r.ReadFixedText(30)
		if err != nil {
			return nil, err
		}
		t.Comment = comment
	}

	genre, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	t.Genre = genre

	return t, nil
}

// Encode serializes t into exactly Size bytes. Strings are truncated to
// their field width with no error; a year shorter than 4 bytes is
// zero-padded by WriteFixedText's NUL-fill, matching the field's ASCII
// digit convention closely enough for round-tripping (ID3v1 readers
// treat non-digit bytes in the year field as unknown, same as NUL).
func Encode(t *Tag) []byte {
	w := byteio.NewWriter()
	w.Write([]byte("TAG"))
	w.WriteFixedText(t.Title, 30)
	w.WriteFixedText(t.Artist, 30)
	w.WriteFixedText(t.Album, 30)
	w.WriteFixedText(t.Year, 4)

	if t.IsV11 {
		w.WriteFixedText(t.Comment, 28)
		w.WriteU8(0)
		w.WriteU8(t.Track)
	} else {
		w.WriteFixedText(t.Comment, 30)
	}

	w.WriteU8(t.Genre)

	return w.Bytes()
}
