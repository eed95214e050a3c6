package zwave

import (
	"errors"
	"fmt"
	"math"

	"github.com/urmzd/homai-zwave/pkg/value"
)

// Command class IDs
const (
	CommandClassBasic             uint8 = 0x20
	CommandClassSwitchMultilevel  uint8 = 0x26
	CommandClassThermostatMode    uint8 = 0x40
	CommandClassThermostatFanMode uint8 = 0x44
	CommandClassConfiguration     uint8 = 0x70
)

// Commands shared by the single-value command classes
const (
	cmdSet    uint8 = 0x01
	cmdGet    uint8 = 0x02
	cmdReport uint8 = 0x03
)

// Configuration command class commands
const (
	cmdConfigurationSet    uint8 = 0x04
	cmdConfigurationGet    uint8 = 0x05
	cmdConfigurationReport uint8 = 0x06
)

var (
	// ErrUnsupportedCommandClass indicates no codec exists for a command class
	ErrUnsupportedCommandClass = errors.New("unsupported command class")

	// ErrCodeRange indicates an item code does not fit the command's field
	ErrCodeRange = errors.New("code out of range")

	// ErrMalformedReport indicates a report too short or with an invalid size
	ErrMalformedReport = errors.New("malformed report")

	// ErrParameterSize indicates a configuration parameter size other than 1, 2 or 4
	ErrParameterSize = errors.New("invalid parameter size")
)

// Report is a decoded value report. Index and Size are the configuration
// parameter number and width for the Configuration class and 0 otherwise.
type Report struct {
	CommandClassID uint8
	Index          uint8
	Size           uint8
	Code           int32
}

// ValidParameterSize reports whether size is a configuration parameter width.
func ValidParameterSize(size uint8) bool {
	return size == 1 || size == 2 || size == 4
}

// modeMask returns the bits of the mode field for classes that pack
// reserved bits next to it.
func modeMask(cc uint8) (byte, bool) {
	switch cc {
	case CommandClassBasic, CommandClassSwitchMultilevel:
		return 0xFF, true
	case CommandClassThermostatMode:
		return 0x1F, true
	case CommandClassThermostatFanMode:
		return 0x0F, true
	default:
		return 0, false
	}
}

// EncodeSet builds the SET command that selects code on the value id. For
// configuration parameters size is the parameter width in bytes; 0 means
// unknown and picks the smallest width that holds code. Other classes ignore
// size.
func EncodeSet(id value.ID, code int32, size uint8) ([]byte, error) {
	if id.CommandClassID == CommandClassConfiguration {
		switch {
		case size == 0:
			size = configSize(code)
		case !ValidParameterSize(size):
			return nil, fmt.Errorf("%w: %d", ErrParameterSize, size)
		case configSize(code) > size:
			return nil, fmt.Errorf("%w: %d for %d-byte parameter %d", ErrCodeRange, code, size, id.Index)
		}
		cmd := []byte{CommandClassConfiguration, cmdConfigurationSet, id.Index, size}
		return appendSigned(cmd, code, size), nil
	}

	mask, ok := modeMask(id.CommandClassID)
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnsupportedCommandClass, id.CommandClassID)
	}
	if code < 0 || code > int32(mask) {
		return nil, fmt.Errorf("%w: %d for command class 0x%02X", ErrCodeRange, code, id.CommandClassID)
	}
	return []byte{id.CommandClassID, cmdSet, byte(code)}, nil
}

// EncodeGet builds the GET command that asks the device to report id.
func EncodeGet(id value.ID) ([]byte, error) {
	if id.CommandClassID == CommandClassConfiguration {
		return []byte{CommandClassConfiguration, cmdConfigurationGet, id.Index}, nil
	}
	if _, ok := modeMask(id.CommandClassID); !ok {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnsupportedCommandClass, id.CommandClassID)
	}
	return []byte{id.CommandClassID, cmdGet}, nil
}

// DecodeReport decodes a REPORT command. Commands other than reports return
// ErrUnsupportedCommandClass.
func DecodeReport(cmd []byte) (Report, error) {
	if len(cmd) < 2 {
		return Report{}, ErrMalformedReport
	}
	cc, command := cmd[0], cmd[1]

	if cc == CommandClassConfiguration {
		if command != cmdConfigurationReport {
			return Report{}, fmt.Errorf("%w: configuration command 0x%02X", ErrUnsupportedCommandClass, command)
		}
		if len(cmd) < 4 {
			return Report{}, ErrMalformedReport
		}
		size := cmd[3] & 0x07
		if (size != 1 && size != 2 && size != 4) || len(cmd) < 4+int(size) {
			return Report{}, fmt.Errorf("%w: parameter size %d", ErrMalformedReport, size)
		}
		return Report{
			CommandClassID: cc,
			Index:          cmd[2],
			Size:           size,
			Code:           readSigned(cmd[4 : 4+int(size)]),
		}, nil
	}

	mask, ok := modeMask(cc)
	if !ok || command != cmdReport {
		return Report{}, fmt.Errorf("%w: 0x%02X/0x%02X", ErrUnsupportedCommandClass, cc, command)
	}
	if len(cmd) < 3 {
		return Report{}, ErrMalformedReport
	}
	return Report{CommandClassID: cc, Code: int32(cmd[2] & mask)}, nil
}

// configSize returns the smallest parameter size that holds code.
func configSize(code int32) uint8 {
	switch {
	case code >= math.MinInt8 && code <= math.MaxInt8:
		return 1
	case code >= math.MinInt16 && code <= math.MaxInt16:
		return 2
	default:
		return 4
	}
}

func appendSigned(b []byte, code int32, size uint8) []byte {
	u := uint32(code)
	for i := int(size) - 1; i >= 0; i-- {
		b = append(b, byte(u>>(8*i)))
	}
	return b
}

func readSigned(b []byte) int32 {
	var u uint32
	for _, x := range b {
		u = u<<8 | uint32(x)
	}
	shift := 32 - 8*len(b)
	return int32(u<<shift) >> shift
}
