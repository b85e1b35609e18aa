package codec

import (
	"fmt"

	"github.com/tracering/tracering/model"
)

var (
	ErrInvalidEvent  = fmt.Errorf("codec err: invalid event tag")
	ErrBigPayload    = fmt.Errorf("codec err: payload exceeds max length")
	ErrShortPayload  = fmt.Errorf("codec err: payload too short")
	ErrShortFrame    = fmt.Errorf("codec err: buffer too short for a frame")
	ErrCorruptedData = fmt.Errorf("codec err: frame lengths disagree")
)

// AppendFrame appends one wire frame to dst and returns the extended slice.
// It performs no validation; use MarshalFrame when the inputs are untrusted.
func AppendFrame(dst []byte, event model.Event, payload []byte) []byte {
	dst = append(dst, byte(event), byte(len(payload)))
	dst = append(dst, payload...)
	return append(dst, byte(len(payload)))
}

// MarshalFrame validates event and payload and returns the frame bytes.
func MarshalFrame(event model.Event, payload []byte) ([]byte, error) {
	if !event.Valid() {
		return nil, ErrInvalidEvent
	}
	if len(payload) > model.MaxLength {
		return nil, ErrBigPayload
	}
	return AppendFrame(make([]byte, 0, len(payload)+model.Overhead), event, payload), nil
}

// UnmarshalFrame decodes the frame starting at buf[0] and returns its
// event, payload and total size on the wire.
func UnmarshalFrame(buf []byte) (model.Event, []byte, int, error) {
	if len(buf) < model.Overhead {
		return model.EventReserved, nil, 0, ErrShortFrame
	}
	length := int(buf[1])
	size := length + model.Overhead
	if len(buf) < size {
		return model.EventReserved, nil, 0, ErrShortFrame
	}
	if buf[size-1] != buf[1] {
		return model.EventReserved, nil, 0, ErrCorruptedData
	}
	return model.Event(buf[0]), buf[model.HeaderSize : model.HeaderSize+length], size, nil
}
