package codec

import (
	"encoding/binary"
	"math"

	"github.com/tracering/tracering/model"
)

/*
payload codecs

8-byte hashes and timestamps live at arbitrary byte offsets inside a
frame, so every field goes through encoding/binary byte-wise access,
never through a pointer cast.
*/

func PutTimespec(b []byte, ts model.Timespec) {
	binary.LittleEndian.PutUint64(b[0:8], uint64(ts.Sec))
	binary.LittleEndian.PutUint32(b[8:12], uint32(ts.Nsec))
}

func ParseTimespec(b []byte) (model.Timespec, error) {
	if len(b) < model.TimespecSize {
		return model.Timespec{}, ErrShortPayload
	}
	return model.Timespec{
		Sec:  int64(binary.LittleEndian.Uint64(b[0:8])),
		Nsec: int32(binary.LittleEndian.Uint32(b[8:12])),
	}, nil
}

func PutInt(b []byte, x int32) {
	binary.LittleEndian.PutUint32(b, uint32(x))
}

func ParseInt(b []byte) (int32, error) {
	if len(b) < model.IntSize {
		return 0, ErrShortPayload
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func PutFloat(b []byte, x float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(x))
}

func ParseFloat(b []byte) (float32, error) {
	if len(b) < model.FloatSize {
		return 0, ErrShortPayload
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

func PutHash(b []byte, h uint64) {
	binary.LittleEndian.PutUint64(b, h)
}

func ParseHash(b []byte) (uint64, error) {
	if len(b) < model.HashSize {
		return 0, ErrShortPayload
	}
	return binary.LittleEndian.Uint64(b), nil
}

func PutHistTs(b []byte, h model.HistTs) {
	PutHash(b[0:model.HashSize], h.Hash)
	PutTimespec(b[model.HashSize:model.HistTsSize], h.TS)
}

func ParseHistTs(b []byte) (model.HistTs, error) {
	if len(b) < model.HistTsSize {
		return model.HistTs{}, ErrShortPayload
	}
	hash, _ := ParseHash(b)
	ts, _ := ParseTimespec(b[model.HashSize:])
	return model.HistTs{Hash: hash, TS: ts}, nil
}

func PutHistTsWithAuthor(b []byte, h model.HistTsWithAuthor) {
	PutHistTs(b[0:model.HistTsSize], h.HistTs)
	PutInt(b[model.HistTsSize:model.HistTsWithAuthorSize], h.Author)
}

// ParseHistAny decodes a histogram payload with or without the author
// field; the author is -1 when absent.
func ParseHistAny(b []byte) (model.HistTsWithAuthor, error) {
	ht, err := ParseHistTs(b)
	if err != nil {
		return model.HistTsWithAuthor{}, err
	}
	author := int32(-1)
	if len(b) >= model.HistTsWithAuthorSize {
		author, _ = ParseInt(b[model.HistTsSize:])
	}
	return model.HistTsWithAuthor{HistTs: ht, Author: author}, nil
}

// PutPidTag encodes a pid and a process name, the name truncated to
// MaxProcessNameLen bytes.
func PutPidTag(pid int, name string) []byte {
	if len(name) > model.MaxProcessNameLen {
		name = name[:model.MaxProcessNameLen]
	}
	b := make([]byte, model.PidHeaderSize+len(name))
	PutInt(b, int32(pid))
	copy(b[model.PidHeaderSize:], name)
	return b
}

func ParsePidTag(b []byte) (int, string, error) {
	if len(b) < model.PidHeaderSize {
		return 0, "", ErrShortPayload
	}
	pid, _ := ParseInt(b)
	return int(pid), string(b[model.PidHeaderSize:]), nil
}
