package byteio

import (
	"bytes"
	"testing"
)

func TestSynchsafeRoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 0x7F, 0x80, 0x3FFF, 0x1FFFFF, 0x0FFFFFFF}
	for _, n := range cases {
		enc := SynchsafeEncode(n)
		for _, b := range enc {
			if b&0x80 != 0 {
				t.Fatalf("SynchsafeEncode(%d) set high bit: %x", n, enc)
			}
		}
		got, err := SynchsafeDecode(enc)
		if err != nil {
			t.Fatalf("SynchsafeDecode(%x): %v", enc, err)
		}
		if got != n {
			t.Errorf("round trip %d: got %d", n, got)
		}
	}
}

func TestSynchsafeEncodeClamps(t *testing.T) {
	enc := SynchsafeEncode(0xFFFFFFFF)
	got, err := SynchsafeDecode(enc)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x0FFFFFFF {
		t.Errorf("expected clamp to 0x0FFFFFFF, got %#x", got)
	}
}

func TestSynchsafeDecodeMalformed(t *testing.T) {
	_, err := SynchsafeDecode([4]byte{0x00, 0x80, 0x00, 0x00})
	if err != ErrMalformedSynchsafe {
		t.Errorf("expected ErrMalformedSynchsafe, got %v", err)
	}
}

func TestReaderFixedText(t *testing.T) {
	r := NewReader([]byte("Hello\x00\x00\x00\x00\x00rest"))
	s, err := r.ReadFixedText(10)
	if err != nil {
		t.Fatal(err)
	}
	if s != "Hello" {
		t.Errorf("got %q", s)
	}
	rest, err := r.ReadFixed(4)
	if err != nil {
		t.Fatal(err)
	}
	if string(rest) != "rest" {
		t.Errorf("got %q", rest)
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if _, err := r.ReadBEU32(); err != ErrTruncated {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestReaderNulTerminated(t *testing.T) {
	r := NewReader([]byte("abc\x00def"))
	s, err := r.ReadNulTerminated()
	if err != nil {
		t.Fatal(err)
	}
	if string(s) != "abc" {
		t.Errorf("got %q", s)
	}
	if r.Pos() != 4 {
		t.Errorf("expected pos 4, got %d", r.Pos())
	}
}

func TestReaderNulTerminatedWide(t *testing.T) {
	r := NewReader([]byte{'a', 0, 'b', 0, 0, 0, 'x'})
	s, err := r.ReadNulTerminatedWide()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(s, []byte{'a', 0, 'b', 0}) {
		t.Errorf("got %x", s)
	}
}

func TestWriterFixedText(t *testing.T) {
	w := NewWriter()
	w.WriteFixedText("hi", 5)
	if !bytes.Equal(w.Bytes(), []byte("hi\x00\x00\x00")) {
		t.Errorf("got %q", w.Bytes())
	}

	w2 := NewWriter()
	w2.WriteFixedText("toolongstring", 4)
	if !bytes.Equal(w2.Bytes(), []byte("tool")) {
		t.Errorf("got %q", w2.Bytes())
	}
}

func TestWriterBigEndian(t *testing.T) {
	w := NewWriter()
	w.WriteBEU16(0x0102)
	w.WriteBEU24(0x030405)
	w.WriteBEU32(0x06070809)
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("got % x, want % x", w.Bytes(), want)
	}
}
