package zwave

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrame_Marshal(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  []byte
	}{
		{"get version", Frame{Type: FrameRequest, Func: funcGetVersion}, []byte{0x01, 0x03, 0x00, 0x15, 0xE9}},
		{"memory get id", Frame{Type: FrameRequest, Func: funcMemoryGetID}, []byte{0x01, 0x03, 0x00, 0x20, 0xDC}},
		{
			"send data",
			Frame{Type: FrameRequest, Func: funcSendData, Payload: []byte{0x05, 0x03, 0x44, 0x01, 0x02, 0x25, 0x01}},
			[]byte{0x01, 0x0A, 0x00, 0x13, 0x05, 0x03, 0x44, 0x01, 0x02, 0x25, 0x01, 0x83},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.frame.Marshal()
			if !bytes.Equal(got, tt.want) {
				t.Errorf("expected % X, got % X", tt.want, got)
			}
		})
	}
}

func TestParseFrame(t *testing.T) {
	f := Frame{Type: FrameResponse, Func: funcMemoryGetID, Payload: []byte{0x01, 0xA2, 0xB3, 0xC4, 0x01}}
	raw := f.Marshal()

	got, err := parseFrame(raw[1:])
	if err != nil {
		t.Fatalf("parseFrame failed: %v", err)
	}
	if got.Type != f.Type || got.Func != f.Func || !bytes.Equal(got.Payload, f.Payload) {
		t.Errorf("expected %s, got %s", f, got)
	}

	corrupt := append([]byte(nil), raw[1:]...)
	corrupt[len(corrupt)-1] ^= 0x01
	if _, err := parseFrame(corrupt); !errors.Is(err, ErrBadChecksum) {
		t.Errorf("expected ErrBadChecksum, got %v", err)
	}

	if _, err := parseFrame([]byte{0x02, 0x00, 0xFD}); !errors.Is(err, ErrShortFrame) {
		t.Errorf("expected ErrShortFrame, got %v", err)
	}
	if _, err := parseFrame([]byte{0x09, 0x00, 0x15, 0xE9}); !errors.Is(err, ErrShortFrame) {
		t.Errorf("expected ErrShortFrame for length mismatch, got %v", err)
	}
}
