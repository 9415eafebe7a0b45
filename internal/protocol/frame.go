// Package protocol implements the MR24HPC1 wire format: frame layout, the
// additive checksum, a sync-hunting receiver and the outgoing frame builder.
//
// Frame layout:
//
//	[0x53][0x59][CTRL][CMD][LEN_H][LEN_L][PAYLOAD...][SUM][0x54][0x43]
package protocol

import "fmt"

const (
	Sync1    byte = 0x53
	Sync2    byte = 0x59
	Trailer1 byte = 0x54
	Trailer2 byte = 0x43

	// Terminator is the byte value that ends a capture.
	Terminator = Trailer2

	// QueryPayload is the placeholder payload carried by every query.
	QueryPayload byte = 0x0F
)

// Byte offsets within a frame.
const (
	IndexSync1      = 0
	IndexSync2      = 1
	IndexControl    = 2
	IndexCommand    = 3
	IndexLengthHigh = 4
	IndexLengthLow  = 5
	IndexPayload    = 6
)

const (
	headerLen  = IndexPayload
	trailerLen = 2

	// Overhead is the number of non-payload bytes in a frame.
	Overhead = headerLen + 1 + trailerLen

	// MaxFrameSize bounds both capture and validation. Product information
	// strings are the longest frames the sensor emits.
	MaxFrameSize = 64

	// MaxPayload is the largest payload that fits in MaxFrameSize.
	MaxPayload = MaxFrameSize - Overhead
)

// FrameSize returns the total frame length for a payload of n bytes.
func FrameSize(n int) int {
	return Overhead + n
}

// Frame is one accepted protocol message.
type Frame struct {
	Control byte
	Command byte
	Payload []byte
}

// Key identifies a frame by its (control word, command word) pair. Command
// words are reused across control words, so dispatch always keys on both.
type Key struct {
	Control byte
	Command byte
}

func (k Key) String() string {
	return fmt.Sprintf("%02X/%02X", k.Control, k.Command)
}

// Key returns the frame's (control, command) pair.
func (f Frame) Key() Key {
	return Key{Control: f.Control, Command: f.Command}
}

// Byte returns payload byte i, or 0 when the payload is shorter.
func (f Frame) Byte(i int) byte {
	if i < 0 || i >= len(f.Payload) {
		return 0
	}
	return f.Payload[i]
}

// Bytes re-encodes the frame in wire form.
func (f Frame) Bytes() []byte {
	b, err := Build(f.Control, f.Command, f.Payload)
	if err != nil {
		return nil
	}
	return b
}

func (f Frame) String() string {
	return fmt.Sprintf("% X", f.Bytes())
}

// parseFrame extracts a Frame from a buffer that has already passed Validate.
func parseFrame(raw []byte) Frame {
	n := int(raw[IndexLengthLow])
	payload := make([]byte, n)
	copy(payload, raw[IndexPayload:IndexPayload+n])
	return Frame{
		Control: raw[IndexControl],
		Command: raw[IndexCommand],
		Payload: payload,
	}
}
