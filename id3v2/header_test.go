package id3v2

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	h := &Header{Major: 3, Revision: 0, Flags: FlagExtendedHeader, Size: 1234}
	buf := h.Encode()
	if len(buf) != HeaderSize {
		t.Fatalf("encoded header is %d bytes, want %d", len(buf), HeaderSize)
	}
	got, err := DecodeHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *h {
		t.Errorf("round trip mismatch: %+v != %+v", got, h)
	}
}

func TestHeaderRejectsBadMagic(t *testing.T) {
	buf := []byte("XYZ\x03\x00\x00\x00\x00\x00\x00")
	if _, err := DecodeHeader(buf); err != ErrInvalidMagic {
		t.Errorf("err = %v, want ErrInvalidMagic", err)
	}
}

func TestHeaderRejectsUnsupportedVersion(t *testing.T) {
	buf := []byte("ID3\x05\x00\x00\x00\x00\x00\x00")
	if _, err := DecodeHeader(buf); err != ErrUnsupportedVersion {
		t.Errorf("err = %v, want ErrUnsupportedVersion", err)
	}
}

func TestHeaderToleratesNonZeroRevision(t *testing.T) {
	buf := []byte("ID3\x03\x01\x00\x00\x00\x00\x00")
	h, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("expected non-zero revision to be tolerated, got %v", err)
	}
	if h.Revision != 1 {
		t.Errorf("revision = %d, want preserved as 1", h.Revision)
	}
}

func TestHeaderHasFlag(t *testing.T) {
	h := &Header{Flags: FlagUnsynchronisation | FlagFooterPresent}
	if !h.HasFlag(FlagUnsynchronisation) || !h.HasFlag(FlagFooterPresent) {
		t.Error("expected both flags set")
	}
	if h.HasFlag(FlagExtendedHeader) {
		t.Error("did not expect extended header flag")
	}
}

func TestExtendedHeader23RoundTripNoCRC(t *testing.T) {
	e := &ExtendedHeader23{Size: 6, Flags: 0, PadSize: 20}
	buf := e.Encode()
	if len(buf) != 10 {
		t.Fatalf("got %d bytes, want 10", len(buf))
	}
	got, err := DecodeExtendedHeader23(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Size != 6 || got.PadSize != 20 || got.HasCRC {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.EffectiveSize() != 6 {
		t.Errorf("EffectiveSize = %d, want 6", got.EffectiveSize())
	}
}

func TestExtendedHeader23RoundTripWithCRC(t *testing.T) {
	e := &ExtendedHeader23{Size: 6, PadSize: 0, HasCRC: true, CRC: 0xDEADBEEF}
	buf := e.Encode()
	if len(buf) != 14 {
		t.Fatalf("got %d bytes, want 14 (10 + CRC)", len(buf))
	}
	got, err := DecodeExtendedHeader23(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !got.HasCRC || got.CRC != 0xDEADBEEF {
		t.Errorf("CRC round trip mismatch: %+v", got)
	}
	if got.EffectiveSize() != 10 {
		t.Errorf("EffectiveSize = %d, want 10", got.EffectiveSize())
	}
}

func TestFooterRoundTrip(t *testing.T) {
	h := &Header{Major: 4, Revision: 0, Flags: FlagFooterPresent, Size: 999}
	f := FooterFromHeader(h)
	buf := f.Encode()
	if string(buf[0:3]) != FooterMagic {
		t.Errorf("footer magic = %q, want %q", buf[0:3], FooterMagic)
	}
	got, err := DecodeFooter(buf)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *f {
		t.Errorf("round trip mismatch: %+v != %+v", got, f)
	}
}

func TestFooterRejectsBadMagic(t *testing.T) {
	buf := []byte("ID3\x04\x00\x00\x00\x00\x00\x00")
	if _, err := DecodeFooter(buf); err != ErrInvalidMagic {
		t.Errorf("err = %v, want ErrInvalidMagic", err)
	}
}
