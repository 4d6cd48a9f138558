// Package mpegframe decodes and encodes the 4-byte frame header that
// precedes every MPEG audio frame, deriving bitrate, sample rate, frame
// size and duration from the standard MPEG tables. It does not read or
// write frame payloads, and the file-level MpegFile codec does not use
// it: the audio region is located from the ID3 tag sizes alone.
package mpegframe

import "github.com/pkg/errors"

// ErrNoSync is returned when the 11-bit frame sync pattern is not
// present at the start of the 4 bytes handed to Decode.
var ErrNoSync = errors.New("mpegframe: missing frame sync")

// Version is the MPEG audio version signalled by bits 4-3 of the second
// header byte.
type Version int

const (
	Version2_5     Version = 0
	VersionReserved Version = 1
	Version2        Version = 2
	Version1        Version = 3
)

// Layer is the MPEG audio layer signalled by bits 2-1 of the second
// header byte.
type Layer int

const (
	LayerReserved Layer = 0
	LayerIII      Layer = 1
	LayerII       Layer = 2
	LayerI        Layer = 3
)

// ChannelMode is signalled by bits 7-6 of the fourth header byte.
type ChannelMode int

const (
	ChannelStereo      ChannelMode = 0
	ChannelJointStereo ChannelMode = 1
	ChannelDualChannel ChannelMode = 2
	ChannelMono        ChannelMode = 3
)

// bitrate tables in kbps, indexed [version][layer][4-bit index].
// Index 0 (free) and 15 (bad) are both encoded as 0, matching spec.md's
// "return 0 on reserved/bad" rule; they are indistinguishable to callers
// of BitrateKbps, which is the behavior the spec asks for.
var bitrateTable = [4][4][16]int{
	Version1: {
		LayerI:   {0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0},
		LayerII:  {0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0},
		LayerIII: {0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},
	},
	Version2: {
		LayerI:   {0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0},
		LayerII:  {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		LayerIII: {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
	},
	Version2_5: {
		LayerI:   {0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0},
		LayerII:  {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		LayerIII: {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
	},
}

// sample rate table in Hz, indexed [version][2-bit index]. Index 3
// (reserved) is 0.
var sampleRateTable = [4][4]int{
	Version1:   {44100, 48000, 32000, 0},
	Version2:   {22050, 24000, 16000, 0},
	Version2_5: {11025, 12000, 8000, 0},
}

// Header is the raw 4-byte MPEG audio frame header. All accessors derive
// their result from the bytes on every call; there is no cached,
// invalidatable state.
type Header [4]byte

// Decode validates that b begins with the 11-bit frame sync pattern
// (0xFF followed by the top 3 bits of the next byte all set) and returns
// the header formed from its first 4 bytes. It does not validate
// version/layer/bitrate/sample-rate; those are reported as zero by the
// relevant accessor when reserved or invalid, per spec.md §4.2.
func Decode(b []byte) (Header, error) {
	var h Header
	if len(b) < 4 {
		return h, ErrNoSync
	}
	if b[0] != 0xFF || b[1]&0xE0 != 0xE0 {
		return h, ErrNoSync
	}
	copy(h[:], b[:4])
	return h, nil
}

// Bytes returns the raw 4 bytes.
func (h Header) Bytes() []byte {
	b := h
	return b[:]
}

// Version reports the MPEG version.
func (h Header) Version() Version {
	return Version(h[1] >> 3 & 0x3)
}

// Layer reports the MPEG layer.
func (h Header) Layer() Layer {
	return Layer(h[1] >> 1 & 0x3)
}

// HasCRC reports whether a 16-bit CRC follows the header (protection
// bit clear).
func (h Header) HasCRC() bool {
	return h[1]&0x1 == 0
}

// BitrateIndex is the raw 4-bit bitrate index from byte 2.
func (h Header) BitrateIndex() int {
	return int(h[2] >> 4 & 0xF)
}

// SampleRateIndex is the raw 2-bit sample-rate index from byte 2.
func (h Header) SampleRateIndex() int {
	return int(h[2] >> 2 & 0x3)
}

// Padding reports whether the padding bit is set.
func (h Header) Padding() bool {
	return h[2]>>1&0x1 == 1
}

// ChannelMode reports the 2-bit channel mode from byte 3.
func (h Header) ChannelMode() ChannelMode {
	return ChannelMode(h[3] >> 6 & 0x3)
}

// BitrateKbps returns the decoded bitrate in kbps, or 0 if the version,
// layer or bitrate index is reserved/invalid.
func (h Header) BitrateKbps() int {
	v, l := h.Version(), h.Layer()
	if v == VersionReserved || l == LayerReserved {
		return 0
	}
	return bitrateTable[v][l][h.BitrateIndex()]
}

// SampleRateHz returns the decoded sample rate in Hz, or 0 if the
// version or sample-rate index is reserved/invalid.
func (h Header) SampleRateHz() int {
	v := h.Version()
	if v == VersionReserved {
		return 0
	}
	return sampleRateTable[v][h.SampleRateIndex()]
}

// FrameSize returns the derived frame size in bytes, including the
// 4-byte header itself. It is 0 if the bitrate or sample rate is 0.
func (h Header) FrameSize() int {
	bitrate := h.BitrateKbps()
	samplerate := h.SampleRateHz()
	if bitrate == 0 || samplerate == 0 {
		return 0
	}
	pad := 0
	if h.Padding() {
		pad = 1
	}
	switch h.Layer() {
	case LayerI:
		return (12000*bitrate/samplerate + pad) * 4
	case LayerII, LayerIII:
		return 144000*bitrate/samplerate + pad
	default:
		return 0
	}
}

// Duration returns the playback duration of one frame, in seconds. Per
// spec.md §4.2 it is 1152/sampleRate for layers II and III and
// 384/sampleRate for layer I, independent of MPEG version.
func (h Header) Duration() float64 {
	samplerate := h.SampleRateHz()
	if samplerate == 0 {
		return 0
	}
	switch h.Layer() {
	case LayerI:
		return 384 / float64(samplerate)
	case LayerII, LayerIII:
		return 1152 / float64(samplerate)
	default:
		return 0
	}
}

// SetVersion masks in the 2-bit version field, leaving every other bit
// of the header untouched.
func (h *Header) SetVersion(v Version) {
	h[1] = h[1]&^(0x3<<3) | byte(v)<<3
}

// SetLayer masks in the 2-bit layer field.
func (h *Header) SetLayer(l Layer) {
	h[1] = h[1]&^(0x3<<1) | byte(l)<<1
}

// SetHasCRC masks in the protection bit (clear means CRC present).
func (h *Header) SetHasCRC(present bool) {
	if present {
		h[1] = h[1] &^ 0x1
	} else {
		h[1] = h[1] | 0x1
	}
}

// SetBitrateIndex masks in the 4-bit bitrate index.
func (h *Header) SetBitrateIndex(idx int) {
	h[2] = h[2]&^(0xF<<4) | byte(idx&0xF)<<4
}

// SetSampleRateIndex masks in the 2-bit sample-rate index.
func (h *Header) SetSampleRateIndex(idx int) {
	h[2] = h[2]&^(0x3<<2) | byte(idx&0x3)<<2
}

// SetPadding masks in the padding bit.
func (h *Header) SetPadding(pad bool) {
	if pad {
		h[2] = h[2] | 0x1<<1
	} else {
		h[2] = h[2] &^ (0x1 << 1)
	}
}

// SetChannelMode masks in the 2-bit channel mode field.
func (h *Header) SetChannelMode(m ChannelMode) {
	h[3] = h[3]&^(0x3<<6) | byte(m)<<6
}

// New returns a header with the frame sync bits set and every other
// field zeroed, ready for the Set* methods.
func New() Header {
	return Header{0xFF, 0xE0, 0x00, 0x00}
}
