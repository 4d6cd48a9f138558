package id3v2

import (
	"ktkr.us/pkg/id3tag/byteio"

	"github.com/pkg/errors"
)

// Magic is the fixed 3-byte identification field at the start of every
// ID3v2 tag.
const Magic = "ID3"

// FooterMagic is the fixed 3-byte identification field at the start of
// an ID3v2.4 footer.
const FooterMagic = "3DI"

// HeaderSize is the fixed byte length of the main ID3v2 header.
const HeaderSize = 10

// FooterSize is the fixed byte length of an ID3v2.4 footer.
const FooterSize = 10

// Tag-level header flags (byte 5 of the main header).
const (
	FlagUnsynchronisation = 1 << 7
	FlagExtendedHeader    = 1 << 6 // v2.3/v2.4 only
	FlagExperimental      = 1 << 5
	FlagFooterPresent     = 1 << 4 // v2.4 only
)

var (
	// ErrInvalidMagic is returned when the expected "ID3"/"3DI" magic is
	// not present.
	ErrInvalidMagic = errors.New("id3v2: invalid magic")

	// ErrUnsupportedVersion is returned when the major version byte is
	// outside {2, 3, 4}.
	ErrUnsupportedVersion = errors.New("id3v2: unsupported major version")
)

// Header is the shared 10-byte ID3v2 header, common to v2.0, v2.3 and
// v2.4. Size is the synchsafe-decoded body length: everything after this
// 10-byte header, excluding a v2.4 footer if present (per spec.md's
// invariant I1).
type Header struct {
	Major    byte
	Revision byte
	Flags    byte
	Size     uint32
}

// HasFlag reports whether the given tag-level flag bit is set.
func (h *Header) HasFlag(flag byte) bool { return h.Flags&flag != 0 }

// DecodeHeader reads the 10-byte main header from the start of buf.
// Per spec.md §4.4, the revision byte (buf[4]) is preserved for
// re-emission but is not itself a validity condition: some writers in
// the wild do not zero it, and rejecting otherwise-well-formed tags on
// that basis would make detection needlessly brittle (see DESIGN.md).
func DecodeHeader(buf []byte) (*Header, error) {
	r := byteio.NewReader(buf)
	magic, err := r.ReadFixed(3)
	if err != nil {
		return nil, err
	}
	if string(magic) != Magic {
		return nil, ErrInvalidMagic
	}
	major, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	if major < 2 || major > 4 {
		return nil, ErrUnsupportedVersion
	}
	revision, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	flags, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	size, err := r.ReadSynchsafeU32()
	if err != nil {
		return nil, err
	}
	return &Header{Major: major, Revision: revision, Flags: flags, Size: size}, nil
}

// Encode serializes h to its 10-byte wire form.
func (h *Header) Encode() []byte {
	w := byteio.NewWriter()
	w.Write([]byte(Magic))
	w.WriteU8(h.Major)
	w.WriteU8(h.Revision)
	w.WriteU8(h.Flags)
	w.WriteSynchsafeU32(h.Size)
	return w.Bytes()
}

// ExtendedHeader23 is the v2.3 extended header: a 4-byte big-endian
// plain size, a 2-byte flag field, and a 4-byte padding size, plus an
// optional 4-byte CRC when the CRC-data-present flag is set. Per
// spec.md §4.4, Size is the wire-format size field, which per the
// ID3v2.3 spec does not include the CRC bytes; EffectiveSize reports the
// size including the CRC when present.
type ExtendedHeader23 struct {
	Size      uint32
	Flags     uint16
	PadSize   uint32
	CRC       uint32
	HasCRC    bool
}

const extFlag23CRCDataPresent = 1 << 15

// EffectiveSize is Size plus 4 if a CRC is present, i.e. the number of
// bytes actually occupied by the extended header after its own 4-byte
// size field.
func (e *ExtendedHeader23) EffectiveSize() uint32 {
	if e.HasCRC {
		return e.Size + 4
	}
	return e.Size
}

// DecodeExtendedHeader23 reads a v2.3 extended header from the start of
// buf.
func DecodeExtendedHeader23(buf []byte) (*ExtendedHeader23, error) {
	r := byteio.NewReader(buf)
	size, err := r.ReadBEU32()
	if err != nil {
		return nil, err
	}
	flags, err := r.ReadBEU16()
	if err != nil {
		return nil, err
	}
	padSize, err := r.ReadBEU32()
	if err != nil {
		return nil, err
	}
	e := &ExtendedHeader23{Size: size, Flags: flags, PadSize: padSize}
	if flags&extFlag23CRCDataPresent != 0 {
		crc, err := r.ReadBEU32()
		if err != nil {
			return nil, err
		}
		e.CRC = crc
		e.HasCRC = true
	}
	return e, nil
}

// Encode serializes e to its wire form: the 10-byte size+flags+padSize
// prefix (size field excludes the CRC, per the v2.3 spec), followed by
// the CRC if present.
func (e *ExtendedHeader23) Encode() []byte {
	w := byteio.NewWriter()
	flags := e.Flags
	if e.HasCRC {
		flags |= extFlag23CRCDataPresent
	} else {
		flags &^= extFlag23CRCDataPresent
	}
	w.WriteBEU32(e.Size)
	w.WriteBEU16(flags)
	w.WriteBEU32(e.PadSize)
	if e.HasCRC {
		w.WriteBEU32(e.CRC)
	}
	return w.Bytes()
}

// Footer is the optional v2.4 trailing footer: identical in layout to
// the main header but with magic "3DI", placed after the tag body and
// padding.
type Footer struct {
	Major    byte
	Revision byte
	Flags    byte
	Size     uint32
}

// DecodeFooter reads a 10-byte v2.4 footer from the start of buf.
func DecodeFooter(buf []byte) (*Footer, error) {
	r := byteio.NewReader(buf)
	magic, err := r.ReadFixed(3)
	if err != nil {
		return nil, err
	}
	if string(magic) != FooterMagic {
		return nil, ErrInvalidMagic
	}
	major, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	revision, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	flags, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	size, err := r.ReadSynchsafeU32()
	if err != nil {
		return nil, err
	}
	return &Footer{Major: major, Revision: revision, Flags: flags, Size: size}, nil
}

// Encode serializes f to its 10-byte wire form.
func (f *Footer) Encode() []byte {
	w := byteio.NewWriter()
	w.Write([]byte(FooterMagic))
	w.WriteU8(f.Major)
	w.WriteU8(f.Revision)
	w.WriteU8(f.Flags)
	w.WriteSynchsafeU32(f.Size)
	return w.Bytes()
}

// FooterFromHeader builds the footer that mirrors h, used when encoding
// a v2.4 tag with the footer-present flag set.
func FooterFromHeader(h *Header) *Footer {
	return &Footer{Major: h.Major, Revision: h.Revision, Flags: h.Flags, Size: h.Size}
}
