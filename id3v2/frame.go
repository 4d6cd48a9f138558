package id3v2

import (
	"ktkr.us/pkg/id3tag/byteio"

	"github.com/pkg/errors"
)

// ErrMalformedFrame is returned when a frame's declared size exceeds the
// remaining tag body, or its identifier is not ASCII A-Z0-9.
var ErrMalformedFrame = errors.New("id3v2: malformed frame")

// Frame is a single ID3v2 frame: a typed key/value record identified by
// a 3-byte (v2.0) or 4-byte (v2.3/v2.4) ASCII code. Flags is always 0
// for a v2.0 frame, which has no per-frame flags field. Payload is
// opaque; id3v2/textframe.go provides a typed accessor layer over it for
// the canonical text frames.
type Frame struct {
	ID      string
	Flags   uint16
	Payload []byte
}

// FrameHeaderSize returns the on-wire size of a frame header (not
// including payload) for the given ID3v2 major version: 6 bytes for
// v2.0 (3-byte id + 3-byte size, no flags), 10 bytes for v2.3/v2.4
// (4-byte id + 4-byte size + 2 flag bytes).
func FrameHeaderSize(major byte) int {
	if major == 2 {
		return 6
	}
	return 10
}

func validFrameIDByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func validFrameID(id []byte) bool {
	if len(id) == 0 {
		return false
	}
	for _, b := range id {
		if !validFrameIDByte(b) {
			return false
		}
	}
	return true
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// DecodeFrame reads one frame from the start of buf, assuming the
// tag-body encoding rules of the given major version. It returns a nil
// frame and zero consumed bytes (with a nil error) when the identifier
// is all-NUL: the padding sentinel that ends frame iteration per
// spec.md §4.5.
func DecodeFrame(major byte, buf []byte) (frame *Frame, consumed int, err error) {
	idLen := 3
	if major != 2 {
		idLen = 4
	}

	r := byteio.NewReader(buf)
	id, err := r.ReadFixed(idLen)
	if err != nil {
		return nil, 0, err
	}
	if allZero(id) {
		return nil, 0, nil
	}
	if !validFrameID(id) {
		return nil, 0, ErrMalformedFrame
	}

	var size uint32
	var flags uint16

	switch major {
	case 2:
		size, err = r.ReadBEU24()
		if err != nil {
			return nil, 0, err
		}
	case 3:
		size, err = r.ReadBEU32()
		if err != nil {
			return nil, 0, err
		}
		flags, err = r.ReadBEU16()
		if err != nil {
			return nil, 0, err
		}
	case 4:
		size, err = r.ReadSynchsafeU32()
		if err != nil {
			return nil, 0, err
		}
		flags, err = r.ReadBEU16()
		if err != nil {
			return nil, 0, err
		}
	default:
		return nil, 0, ErrUnsupportedVersion
	}

	if r.Remaining() < int(size) {
		return nil, 0, ErrMalformedFrame
	}
	payload, err := r.ReadFixed(int(size))
	if err != nil {
		return nil, 0, err
	}
	// payload aliases buf; copy it so the frame survives the tag body
	// buffer being reused or mutated.
	owned := make([]byte, len(payload))
	copy(owned, payload)

	return &Frame{ID: string(id), Flags: flags, Payload: owned}, FrameHeaderSize(major) + int(size), nil
}

// Encode serializes f to its wire form for the given major version.
// Callers are responsible for ensuring f.ID has the right width for
// major (3 bytes for v2.0, 4 for v2.3/v2.4); neither this method nor
// Tag.Encode translates ids across versions.
func (f *Frame) Encode(major byte) []byte {
	w := byteio.NewWriter()
	w.Write([]byte(f.ID))

	switch major {
	case 2:
		w.WriteBEU24(uint32(len(f.Payload)))
	case 4:
		w.WriteSynchsafeU32(uint32(len(f.Payload)))
		w.WriteBEU16(f.Flags)
	default: // v2.3
		w.WriteBEU32(uint32(len(f.Payload)))
		w.WriteBEU16(f.Flags)
	}

	w.Write(f.Payload)
	return w.Bytes()
}

// GetFrame returns the first frame in frames whose ID matches, or nil.
func GetFrame(frames []*Frame, id string) *Frame {
	for _, f := range frames {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// GetFrames returns every frame in frames whose ID matches, preserving
// order.
func GetFrames(frames []*Frame, id string) []*Frame {
	var out []*Frame
	for _, f := range frames {
		if f.ID == id {
			out = append(out, f)
		}
	}
	return out
}

// SetFrame replaces the payload of the first frame matching id in place,
// preserving its position and its flags, or appends
// a new frame at the end if none exists. This implements spec.md §4.5's
// unified replace-or-append semantics.
func SetFrame(frames []*Frame, id string, payload []byte) []*Frame {
	for _, f := range frames {
		if f.ID == id {
			f.Payload = payload
			return frames
		}
	}
	return append(frames, &Frame{ID: id, Payload: payload})
}

// AddFrame always appends a new frame, even if one with the same id
// already exists.
func AddFrame(frames []*Frame, id string, payload []byte) []*Frame {
	return append(frames, &Frame{ID: id, Payload: payload})
}

// RemoveFrame removes the first frame matching id, if any, preserving
// the order of the rest.
func RemoveFrame(frames []*Frame, id string) []*Frame {
	for i, f := range frames {
		if f.ID == id {
			out := make([]*Frame, 0, len(frames)-1)
			out = append(out, frames[:i]...)
			out = append(out, frames[i+1:]...)
			return out
		}
	}
	return frames
}
