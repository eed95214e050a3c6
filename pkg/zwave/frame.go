package zwave

import (
	"errors"
	"fmt"
)

// Serial API control bytes
const (
	sof = 0x01
	ack = 0x06
	nak = 0x15
	can = 0x18
)

// Frame types
const (
	FrameRequest  byte = 0x00
	FrameResponse byte = 0x01
)

// Serial API function IDs
const (
	funcApplicationCommandHandler byte = 0x04
	funcSendData                  byte = 0x13
	funcGetVersion                byte = 0x15
	funcMemoryGetID               byte = 0x20
)

// minFrameLen covers type, function and checksum.
const minFrameLen = 3

var (
	// ErrBadChecksum indicates a received frame failed its checksum
	ErrBadChecksum = errors.New("bad frame checksum")

	// ErrShortFrame indicates a frame too short to carry type and function
	ErrShortFrame = errors.New("frame too short")
)

// Frame is a Serial API data frame.
type Frame struct {
	Type    byte
	Func    byte
	Payload []byte
}

// Marshal encodes f as SOF, length, type, function, payload and checksum.
func (f Frame) Marshal() []byte {
	out := make([]byte, 0, len(f.Payload)+5)
	out = append(out, sof, byte(len(f.Payload)+minFrameLen), f.Type, f.Func)
	out = append(out, f.Payload...)
	return append(out, checksum(out[1:]))
}

func (f Frame) String() string {
	kind := "REQ"
	if f.Type == FrameResponse {
		kind = "RES"
	}
	return fmt.Sprintf("%s 0x%02X % X", kind, f.Func, f.Payload)
}

// parseFrame decodes the bytes following SOF: length, type, function,
// payload and checksum.
func parseFrame(raw []byte) (Frame, error) {
	if len(raw) < minFrameLen+1 || int(raw[0]) != len(raw)-1 {
		return Frame{}, ErrShortFrame
	}
	body := raw[:len(raw)-1]
	if checksum(body) != raw[len(raw)-1] {
		return Frame{}, ErrBadChecksum
	}
	return Frame{
		Type:    raw[1],
		Func:    raw[2],
		Payload: append([]byte(nil), raw[3:len(raw)-1]...),
	}, nil
}

// checksum is 0xFF XOR every byte from length through payload.
func checksum(data []byte) byte {
	c := byte(0xFF)
	for _, b := range data {
		c ^= b
	}
	return c
}
