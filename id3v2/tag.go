// Package id3v2 implements the ID3v2.0, ID3v2.3 and ID3v2.4 tag dialects:
// the shared 10-byte header, the v2.3 extended header, the v2.4 footer,
// the version-specific frame codec, and a typed accessor layer over the
// canonical text frames.
package id3v2

import (
	"strings"

	"ktkr.us/pkg/id3tag/byteio"

	"github.com/pkg/errors"
)

// Variant discriminates the three ID3v2 dialects this package supports.
// A Tag carries exactly one variant, replacing the source's pointer
// union with a type-level invariant.
type Variant int

const (
	V20 Variant = iota
	V23
	V24
)

func variantFromMajor(major byte) (Variant, error) {
	switch major {
	case 2:
		return V20, nil
	case 3:
		return V23, nil
	case 4:
		return V24, nil
	default:
		return 0, ErrUnsupportedVersion
	}
}

func (v Variant) major() byte {
	switch v {
	case V20:
		return 2
	case V23:
		return 3
	default:
		return 4
	}
}

// Tag is the decoded form of an ID3v2 tag in any of the three
// supported dialects. ExtHeader is only ever populated for V23 (the
// only variant in scope per spec.md §4.4); Footer is only ever
// populated for V24.
type Tag struct {
	Variant   Variant
	Header    *Header
	ExtHeader *ExtendedHeader23
	Frames    []*Frame
	Footer    *Footer
}

// canonicalFrameIDs maps the seven neutral text fields of spec.md §4.5
// to their version-specific frame identifier.
var canonicalFrameIDs = map[Variant]map[string]string{
	V20: {
		"title": "TT2", "artist": "TP1", "album": "TAL", "year": "TYE",
		"comment": "COM", "track": "TRK", "genre": "TCO",
	},
	V23: {
		"title": "TIT2", "artist": "TPE1", "album": "TALB", "year": "TYER",
		"comment": "COMM", "track": "TRCK", "genre": "TCON",
	},
	V24: {
		"title": "TIT2", "artist": "TPE1", "album": "TALB", "year": "TDRC",
		"comment": "COMM", "track": "TRCK", "genre": "TCON",
	},
}

func (t *Tag) frameID(field string) string {
	return canonicalFrameIDs[t.Variant][field]
}

// decodeTextPayload decodes a text-frame payload for the tag's variant.
// v2.0 text frames carry no leading encoding byte (they are always
// Latin-1); v2.3/v2.4 text frames do, per spec.md §4.5.
func (t *Tag) decodeTextPayload(payload []byte) (string, error) {
	if t.Variant == V20 {
		return DecodeText(EncodingLatin1, payload)
	}
	return DecodeTextFramePayload(payload)
}

func (t *Tag) encodeTextPayload(enc byte, s string) ([]byte, error) {
	if t.Variant == V20 {
		return EncodeText(EncodingLatin1, s)
	}
	return EncodeTextFramePayload(enc, s)
}

// GetText returns the decoded value of the named canonical text field
// (one of "title", "artist", "album", "year", "track", "genre"), and
// whether the frame was present. Absent the frame's own canonical id, it
// falls back to the forgiving aliases of SPEC_FULL.md §12: a v2.0/v2.2
// three-letter alias id, then a well-known TXXX description — both
// matched against the field's v2.3 frame id, since that is how
// AliasFrameIDs/TXXXDescriptionsFor are indexed. For "year" that id is
// TYER, which has no alias or TXXX description, so the year field has no
// fallback in any dialect.
func (t *Tag) GetText(field string) (string, bool) {
	if f := GetFrame(t.Frames, t.frameID(field)); f != nil {
		if s, err := t.decodeTextPayload(f.Payload); err == nil {
			return s, true
		}
	}

	canonicalID := canonicalFrameIDs[V23][field]

	if t.Variant == V20 {
		for _, alias := range AliasFrameIDs(canonicalID) {
			if f := GetFrame(t.Frames, alias); f != nil {
				if s, err := t.decodeTextPayload(f.Payload); err == nil {
					return s, true
				}
			}
		}
	}

	descs := TXXXDescriptionsFor(canonicalID)
	if len(descs) == 0 {
		return "", false
	}
	for _, f := range GetFrames(t.Frames, "TXXX") {
		x, err := DecodeTXXX(f.Payload)
		if err != nil {
			continue
		}
		for _, desc := range descs {
			if strings.EqualFold(x.Description, desc) {
				return x.Value, true
			}
		}
	}
	return "", false
}

// SetText replaces (or appends) the named canonical text field, encoded
// with enc (ignored for v2.0, which is always Latin-1).
func (t *Tag) SetText(field string, enc byte, s string) error {
	payload, err := t.encodeTextPayload(enc, s)
	if err != nil {
		return err
	}
	t.Frames = SetFrame(t.Frames, t.frameID(field), payload)
	return nil
}

// GetGenreIndex returns the ID3v1-style genre index embedded in the
// genre text frame's "(N)" form, or ok=false (with idx=id3v1.GenreOther's
// value, 12) if the frame is absent or its text does not parse as an
// index, per spec.md §4.5's malformed-genre policy.
func (t *Tag) GetGenreIndex() (idx int, ok bool) {
	s, present := t.GetText("genre")
	if !present {
		return 12, false
	}
	idx, ok = ParseGenreIndex(s)
	if !ok {
		return 12, false
	}
	return idx, true
}

// SetGenreIndex writes the genre frame in the historical "(N)" form.
func (t *Tag) SetGenreIndex(enc byte, idx int) error {
	return t.SetText("genre", enc, FormatGenreIndex(idx))
}

// GetComment decodes the tag's comment frame (COM for v2.0, COMM
// otherwise), or returns ok=false if absent.
func (t *Tag) GetComment() (c *Comment, ok bool) {
	f := GetFrame(t.Frames, t.frameID("comment"))
	if f == nil {
		return nil, false
	}
	c, err := DecodeComment(t.Variant.major(), f.Payload)
	if err != nil {
		return nil, false
	}
	return c, true
}

// SetComment replaces (or appends) the tag's comment frame.
func (t *Tag) SetComment(c *Comment) error {
	payload, err := c.Encode(t.Variant.major())
	if err != nil {
		return err
	}
	t.Frames = SetFrame(t.Frames, t.frameID("comment"), payload)
	return nil
}

// Decode reads one ID3v2 tag (header, optional extended header, frames,
// optional footer) from the start of buf. It returns the decoded tag
// and the total number of bytes consumed, including the footer if
// present, per invariant I1.
func Decode(buf []byte) (tag *Tag, consumed int, err error) {
	header, err := DecodeHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	variant, err := variantFromMajor(header.Major)
	if err != nil {
		return nil, 0, err
	}

	t := &Tag{Variant: variant, Header: header}

	bodyStart := HeaderSize
	if variant == V23 && header.HasFlag(FlagExtendedHeader) {
		if len(buf) < bodyStart+10 {
			return nil, 0, byteio.ErrTruncated
		}
		ext, err := DecodeExtendedHeader23(buf[bodyStart:])
		if err != nil {
			return nil, 0, errors.Wrap(err, "id3v2: decode extended header")
		}
		t.ExtHeader = ext
		bodyStart += 4 + int(ext.EffectiveSize())
	}

	bodyEnd := HeaderSize + int(header.Size)
	if bodyEnd > len(buf) {
		return nil, 0, byteio.ErrTruncated
	}

	pos := bodyStart
	for pos < bodyEnd {
		f, n, err := DecodeFrame(header.Major, buf[pos:bodyEnd])
		if err != nil {
			return nil, 0, errors.Wrap(err, "id3v2: decode frames")
		}
		if f == nil {
			// All-NUL padding sentinel: the rest of the body is padding.
			break
		}
		if f.Flags&frameFlagUnsynchronised(header.Major) != 0 {
			f.Payload = undoFrameUnsynchronisation(f.Payload)
		}
		t.Frames = append(t.Frames, f)
		pos += n
	}

	consumed = bodyEnd
	if variant == V24 && header.HasFlag(FlagFooterPresent) {
		if len(buf) < bodyEnd+FooterSize {
			return nil, 0, byteio.ErrTruncated
		}
		footer, err := DecodeFooter(buf[bodyEnd:])
		if err != nil {
			return nil, 0, errors.Wrap(err, "id3v2: decode footer")
		}
		t.Footer = footer
		consumed += FooterSize
	}

	return t, consumed, nil
}

// frameFlagUnsynchronised returns the per-frame unsynchronisation flag
// bit for the given major version; v2.0 has no per-frame flags.
func frameFlagUnsynchronised(major byte) uint16 {
	if major == 4 {
		return 1 << 1 // v2.4 frame status flag byte 1, bit 1
	}
	if major == 3 {
		return 0 // no frame-level unsynchronisation flag in v2.3
	}
	return 0
}

// Encode serializes t to its wire form. The header's size field (and the
// extended header's size, if present) are recomputed from the actual
// serialized frame bytes; stale size fields on t.Header/t.ExtHeader are
// never trusted, per spec.md §4.6's splice-algorithm note.
func (t *Tag) Encode() []byte {
	major := t.Variant.major()

	var body []byte
	for _, f := range t.Frames {
		body = append(body, f.Encode(major)...)
	}

	var extBytes []byte
	if t.Variant == V23 && t.ExtHeader != nil {
		ext := *t.ExtHeader
		ext.Size = 6 // flags+padSize after the 4-byte size field, CRC excluded per wire format
		ext.PadSize = 0
		extBytes = ext.Encode()
	}

	header := *t.Header
	header.Major = major
	header.Size = uint32(len(extBytes) + len(body))

	out := append(header.Encode(), extBytes...)
	out = append(out, body...)

	if t.Variant == V24 && header.HasFlag(FlagFooterPresent) {
		footer := FooterFromHeader(&header)
		out = append(out, footer.Encode()...)
	}

	return out
}
