package radar

import "encoding/binary"

// DistanceCM converts a raw distance unit to centimetres. One unit is 0.5 m.
func DistanceCM(raw uint8) int {
	return int(raw) * 50
}

// DistanceM converts a raw distance unit to metres.
func DistanceM(raw uint8) float64 {
	return float64(raw) * 0.5
}

// Speed converts a raw speed byte to metres per second. 10 is stationary,
// values above 10 are receding and reported as negative.
func Speed(raw uint8) float64 {
	switch {
	case raw == 10:
		return 0
	case raw > 10:
		return -float64(raw-10) * 0.5
	default:
		return float64(raw) * 0.5
	}
}

// TimeMS decodes a big-endian 4 byte timer value in milliseconds. Short input
// is treated as zero-padded on the right.
func TimeMS(b []byte) uint32 {
	var buf [4]byte
	copy(buf[:], b)
	return binary.BigEndian.Uint32(buf[:])
}

// cmToRaw converts a boundary in centimetres to raw units.
func cmToRaw(cm int) uint8 {
	return uint8(cm / 50)
}
