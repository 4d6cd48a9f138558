package id3tag

import (
	"bytes"
	"testing"

	"ktkr.us/pkg/id3tag/id3v1"
	"ktkr.us/pkg/id3tag/id3v2"
)

// fakeAudio stands in for an MPEG audio payload; the splice algorithm
// treats it as opaque bytes to preserve, so its content is irrelevant.
var fakeAudio = bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x00, 0xAB, 0xCD}, 20)

// TestScenario1V11Trailer is spec.md end-to-end scenario 1.
func TestScenario1V11Trailer(t *testing.T) {
	v1 := &id3v1.Tag{IsV11: true, Track: 5, Genre: 17}
	buf := append(append([]byte{}, fakeAudio...), id3v1.Encode(v1)...)
	f := NewMpegFile(buf)

	if !f.HasV11() {
		t.Error("expected HasV11")
	}
	if f.HasV10() {
		t.Error("did not expect HasV10")
	}

	ts, err := f.GetTags()
	if err != nil {
		t.Fatal(err)
	}
	if ts.V1 == nil || !ts.V1.IsV11 || ts.V1.Track != 5 || ts.V1.Genre != 17 {
		t.Fatalf("V1 = %+v", ts.V1)
	}
	if ts.V1.GenreName() != "Rock" {
		t.Errorf("genre name = %q, want Rock", ts.V1.GenreName())
	}
}

// TestScenario5RemoveTagsPreservesAudio is spec.md end-to-end scenario 5.
func TestScenario5RemoveTagsPreservesAudio(t *testing.T) {
	v2 := &id3v2.Tag{Variant: id3v2.V23, Header: &id3v2.Header{Major: 3}}
	v2.SetText("title", id3v2.EncodingLatin1, "Song")
	v1 := &id3v1.Tag{IsV11: true, Title: "Song", Track: 1}

	buf := append(append(append([]byte{}, v2.Encode()...), fakeAudio...), id3v1.Encode(v1)...)
	f := NewMpegFile(buf)

	f.RemoveTags()

	if !bytes.Equal(f.Bytes(), fakeAudio) {
		t.Errorf("RemoveTags did not yield byte-exact audio region:\ngot  %x\nwant %x", f.Bytes(), fakeAudio)
	}
}

// TestP3IdempotentRemove verifies two successive RemoveTags calls
// produce identical buffers.
func TestP3IdempotentRemove(t *testing.T) {
	v2 := &id3v2.Tag{Variant: id3v2.V24, Header: &id3v2.Header{Major: 4}}
	v2.SetText("title", id3v2.EncodingUTF8, "x")
	v1 := &id3v1.Tag{Title: "x"}
	buf := append(append(append([]byte{}, v2.Encode()...), fakeAudio...), id3v1.Encode(v1)...)
	f := NewMpegFile(buf)

	f.RemoveTags()
	once := append([]byte{}, f.Bytes()...)
	f.RemoveTags()
	twice := f.Bytes()

	if !bytes.Equal(once, twice) {
		t.Errorf("RemoveTags not idempotent:\n%x\n%x", once, twice)
	}
}

func TestDetectionPredicatesOnPlainAudio(t *testing.T) {
	f := NewMpegFile(append([]byte{}, fakeAudio...))
	if f.HasV10() || f.HasV11() || f.HasV20() || f.HasV23() || f.HasV24() {
		t.Error("expected no tags detected on bare audio")
	}
	ts, err := f.GetTags()
	if err != nil {
		t.Fatal(err)
	}
	if !ts.Empty() {
		t.Errorf("expected empty TagSet, got %+v", ts)
	}
}

func TestSetTagsRewritesBothRegionsIndependently(t *testing.T) {
	f := NewMpegFile(append([]byte{}, fakeAudio...))

	v2 := &id3v2.Tag{Variant: id3v2.V23, Header: &id3v2.Header{Major: 3}}
	v2.SetText("title", id3v2.EncodingLatin1, "New")
	f.SetTags(&TagSet{V2: v2})

	if !f.HasV23() {
		t.Fatal("expected HasV23 after SetTags with only a v2 tag")
	}
	if f.HasV10() || f.HasV11() {
		t.Error("did not expect a v1 tag")
	}

	ts, err := f.GetTags()
	if err != nil {
		t.Fatal(err)
	}
	title, ok := ts.V2.GetText("title")
	if !ok || title != "New" {
		t.Errorf("title = %q, %v", title, ok)
	}

	// Now add a v1 tag on top; the existing v2 prefix must round trip.
	f.SetTags(&TagSet{V2: v2, V1: &id3v1.Tag{IsV11: true, Title: "New"}})
	if !f.HasV23() || !f.HasV11() {
		t.Fatal("expected both v2.3 and v1.1 tags present")
	}
}

func TestSetTagsReplacesExistingV2Prefix(t *testing.T) {
	oldV2 := &id3v2.Tag{Variant: id3v2.V23, Header: &id3v2.Header{Major: 3}}
	oldV2.SetText("title", id3v2.EncodingLatin1, "Old")
	buf := append(append([]byte{}, oldV2.Encode()...), fakeAudio...)
	f := NewMpegFile(buf)

	newV2 := &id3v2.Tag{Variant: id3v2.V24, Header: &id3v2.Header{Major: 4}}
	newV2.SetText("title", id3v2.EncodingUTF8, "New")
	f.SetTags(&TagSet{V2: newV2})

	if f.HasV23() {
		t.Error("old v2.3 prefix should have been fully replaced")
	}
	if !f.HasV24() {
		t.Error("expected new v2.4 prefix")
	}
	ts, err := f.GetTags()
	if err != nil {
		t.Fatal(err)
	}
	title, _ := ts.V2.GetText("title")
	if title != "New" {
		t.Errorf("title = %q, want New", title)
	}
}
