package id3v2

// Detect reports whether buf begins with a well-formed ID3v2 header,
// and if so its major version. It never fails: a short buffer, bad
// magic, or unsupported version simply reports absent, matching
// spec.md §7's detection-predicate propagation policy (has_* never
// returns an error).
func Detect(buf []byte) (present bool, major byte) {
	h, err := DecodeHeader(buf)
	if err != nil {
		return false, 0
	}
	return true, h.Major
}
