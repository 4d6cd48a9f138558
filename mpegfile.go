package id3tag

import (
	"os"

	"ktkr.us/pkg/id3tag/id3v1"
	"ktkr.us/pkg/id3tag/id3v2"
)

// MpegFile owns the raw byte content of an MPEG audio file and answers
// detection, read, and write queries over its ID3v1/ID3v2 tag regions.
// Per spec.md §5, an MpegFile is exclusive to one goroutine; there is no
// internal synchronization.
type MpegFile struct {
	buf []byte
}

// Load reads path into memory and wraps it as an MpegFile.
func Load(path string) (*MpegFile, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &MpegFile{buf: buf}, nil
}

// NewMpegFile wraps an in-memory buffer, e.g. for tests or pipelines
// that already have file contents loaded by some other means.
func NewMpegFile(buf []byte) *MpegFile {
	return &MpegFile{buf: buf}
}

// Save writes the file's current buffer to path, replacing its
// contents wholesale. Tag mutation is never performed in place on
// disk: callers mutate the in-memory buffer via SetTags/RemoveTags and
// only then Save.
func (f *MpegFile) Save(path string) error {
	return os.WriteFile(path, f.buf, 0644)
}

// Bytes returns the file's current raw content.
func (f *MpegFile) Bytes() []byte { return f.buf }

// HasV10 reports whether the file ends in an ID3v1.0 trailer.
func (f *MpegFile) HasV10() bool {
	present, isV11 := id3v1.Detect(f.buf)
	return present && !isV11
}

// HasV11 reports whether the file ends in an ID3v1.1 trailer.
func (f *MpegFile) HasV11() bool {
	present, isV11 := id3v1.Detect(f.buf)
	return present && isV11
}

// HasV20 reports whether the file begins with an ID3v2.0 header.
func (f *MpegFile) HasV20() bool { return f.hasV2Major(2) }

// HasV23 reports whether the file begins with an ID3v2.3 header.
func (f *MpegFile) HasV23() bool { return f.hasV2Major(3) }

// HasV24 reports whether the file begins with an ID3v2.4 header.
func (f *MpegFile) HasV24() bool { return f.hasV2Major(4) }

func (f *MpegFile) hasV2Major(major byte) bool {
	present, got := id3v2.Detect(f.buf)
	return present && got == major
}

// GetTags parses whichever tags are present into a TagSet. The v1 slot
// holds a v1.1 tag if one is detected, else a v1.0 tag, else nothing;
// the v2 slot holds whatever dialect id3v2.Detect finds in the header
// (the buffer carries at most one ID3v2 prefix, so there is no
// version-priority choice to make here beyond what Detect reports).
func (f *MpegFile) GetTags() (*TagSet, error) {
	ts := &TagSet{}

	if present, _ := id3v1.Detect(f.buf); present {
		t, err := id3v1.Decode(f.buf)
		if err != nil {
			return nil, err
		}
		ts.V1 = t
	}

	if present, _ := id3v2.Detect(f.buf); present {
		t, _, err := id3v2.Decode(f.buf)
		if err != nil {
			return nil, err
		}
		ts.V2 = t
	}

	return ts, nil
}

// v2PrefixLength reports the total byte length of buf's leading ID3v2
// region (header + body + footer, per invariant I1), or 0 if no valid
// header is present. It reads only the header, not the frame sequence,
// matching the splice algorithm of spec.md §4.6 which trusts the
// current header's size field for locating the audio region.
func v2PrefixLength(buf []byte) int {
	present, _ := id3v2.Detect(buf)
	if !present {
		return 0
	}
	header, err := id3v2.DecodeHeader(buf)
	if err != nil {
		return 0
	}
	length := id3v2.HeaderSize + int(header.Size)
	if header.Major == 4 && header.HasFlag(id3v2.FlagFooterPresent) {
		length += id3v2.FooterSize
	}
	if length > len(buf) {
		return 0
	}
	return length
}

// v1SuffixLength reports the byte length of buf's trailing ID3v1
// region: id3v1.Size if present, else 0.
func v1SuffixLength(buf []byte) int {
	present, _ := id3v1.Detect(buf)
	if !present {
		return 0
	}
	return id3v1.Size
}

// SetTags rewrites both tag regions from ts, byte-preserving the
// audio region between them, per the splice algorithm of spec.md §4.6:
// any existing v2 prefix is stripped and replaced by ts.V2 (if non-nil);
// any existing v1 suffix is stripped and replaced by ts.V1 (if non-nil).
// All length fields in the newly emitted v2 header are recomputed by
// id3v2.Tag.Encode from the actual serialized frames; stale size fields
// are never reused.
func (f *MpegFile) SetTags(ts *TagSet) {
	bodyStart := v2PrefixLength(f.buf)
	bodyEnd := len(f.buf) - v1SuffixLength(f.buf)
	if bodyStart > bodyEnd {
		// A malformed or overlapping pair of regions; fall back to
		// treating the whole buffer as audio rather than truncating data.
		bodyStart, bodyEnd = 0, len(f.buf)
	}
	audio := f.buf[bodyStart:bodyEnd]

	var out []byte
	if ts.V2 != nil {
		out = append(out, ts.V2.Encode()...)
	}
	out = append(out, audio...)
	if ts.V1 != nil {
		out = append(out, id3v1.Encode(ts.V1)...)
	}

	f.buf = out
}

// RemoveTags is equivalent to SetTags(&TagSet{}): it strips both
// regions, leaving only the audio. Two successive calls are idempotent
// (P3): the second finds nothing to strip and produces an identical
// buffer.
func (f *MpegFile) RemoveTags() {
	f.SetTags(&TagSet{})
}
