package protocol

// Sum returns the 8-bit truncated sum of the first n bytes of b. n is clamped
// to len(b).
func Sum(b []byte, n int) byte {
	if n > len(b) {
		n = len(b)
	}
	var sum byte
	for i := 0; i < n; i++ {
		sum += b[i]
	}
	return sum
}

// Validate reports whether frame carries a correct checksum. The declared
// payload length is read from LengthLow (index 5) and the checksum is expected
// immediately after the payload, at index 6+length. Trailer bytes are not
// inspected.
//
// Frames with a nonzero LengthHigh byte, or whose implied size exceeds
// MaxFrameSize, are reported invalid. Validate never panics on short input.
func Validate(frame []byte) bool {
	if len(frame) < IndexPayload+1 {
		return false
	}
	if frame[IndexLengthHigh] != 0 {
		return false
	}
	length := int(frame[IndexLengthLow])
	if FrameSize(length) > MaxFrameSize {
		return false
	}
	at := IndexPayload + length
	if at >= len(frame) {
		return false
	}
	return Sum(frame, at) == frame[at]
}

// BuildChecksum sums buf[0:total-3] and stores the result 3 bytes from the
// end, leaving the two trailer bytes untouched.
//
// Unlike Validate this derives the checksum slot from the total frame length,
// not from LengthLow. The two agree only when LengthLow matches the real
// payload size.
func BuildChecksum(buf []byte, total int) {
	if total > len(buf) || total < trailerLen+1 {
		return
	}
	at := total - trailerLen - 1
	buf[at] = Sum(buf, at)
}
