package protocol

import (
	"errors"
	"fmt"
)

// ErrPayloadTooLarge is returned by Build when the payload cannot fit in a
// single frame.
var ErrPayloadTooLarge = errors.New("payload too large")

// Build constructs an outgoing frame:
//
//	[0x53][0x59][CTRL][CMD][0x00][LEN][PAYLOAD...][SUM][0x54][0x43]
//
// The result is a fresh slice; Build has no side effects.
func Build(control, command byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrPayloadTooLarge, len(payload), MaxPayload)
	}

	total := FrameSize(len(payload))
	buf := make([]byte, total)
	buf[IndexSync1] = Sync1
	buf[IndexSync2] = Sync2
	buf[IndexControl] = control
	buf[IndexCommand] = command
	buf[IndexLengthHigh] = 0x00
	buf[IndexLengthLow] = byte(len(payload))
	copy(buf[IndexPayload:], payload)
	buf[total-2] = Trailer1
	buf[total-1] = Trailer2

	BuildChecksum(buf, total)
	return buf, nil
}

// MustBuild is like Build but panics on error. It is intended for
// package-level command tables.
func MustBuild(control, command byte, payload ...byte) []byte {
	b, err := Build(control, command, payload)
	if err != nil {
		panic(err)
	}
	return b
}

// Query builds a query frame carrying the standard 0x0F payload.
func Query(control, command byte) []byte {
	return MustBuild(control, command, QueryPayload)
}
