// Copyright 2025 The osudb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package binio

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// Reader decodes primitives off an in-memory byte slice, advancing an
// explicit cursor. Reads are strictly sequential; the only backward
// movement is the 8-byte diagnostic rewind on an unknown numeric tag.
// A Reader must not be shared across goroutines.
type Reader struct {
	data []byte
	pos  int64
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the current cursor offset from the start of the data.
func (r *Reader) Pos() int64 {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int64 {
	return int64(len(r.data)) - r.pos
}

func (r *Reader) take(n int64) ([]byte, error) {
	if r.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, r.pos, r.Remaining())
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// window returns data[lo:hi] clamped to the valid range, or nil if the
// clamped range is empty.
func (r *Reader) window(lo, hi int64) []byte {
	if lo < 0 {
		lo = 0
	}
	if hi > int64(len(r.data)) {
		hi = int64(len(r.data))
	}
	if lo >= hi {
		return nil
	}
	return r.data[lo:hi]
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadNumeric decodes a tagged numeric value. On an unrecognized tag the
// cursor is rewound to 8 bytes before where ReadNumeric was called
// (clamped to the start of the data), and the returned UnknownTagError
// carries a hex dump of the 8 bytes either side of the rewound position.
// The dump exists so unknown format variants show up in bug reports with
// enough context to identify the new tag.
func (r *Reader) ReadNumeric() (Numeric, error) {
	start := r.pos
	tag, err := r.ReadUint8()
	if err != nil {
		return Numeric{}, err
	}
	switch tag {
	case tagUint32:
		v, err := r.ReadUint32()
		if err != nil {
			return Numeric{}, err
		}
		return Numeric{Kind: Uint32Kind, Uint32: v}, nil
	case tagFloat32:
		v, err := r.ReadFloat32()
		if err != nil {
			return Numeric{}, err
		}
		return Numeric{Kind: Float32Kind, Float32: v}, nil
	case tagFloat64:
		v, err := r.ReadFloat64()
		if err != nil {
			return Numeric{}, err
		}
		return Numeric{Kind: Float64Kind, Float64: v}, nil
	default:
		rewound := start - 8
		if rewound < 0 {
			rewound = 0
		}
		r.pos = rewound
		return Numeric{}, &UnknownTagError{
			Tag:    tag,
			Offset: start,
			Before: r.window(rewound-8, rewound),
			After:  r.window(rewound, rewound+8),
		}
	}
}

// ReadString decodes a length-prefixed UTF-8 string. A 0x00 tag is the
// empty string; a 0x0B tag is followed by a ULEB128 byte length and the
// string bytes.
func (r *Reader) ReadString() (string, error) {
	start := r.pos
	tag, err := r.ReadUint8()
	if err != nil {
		return "", err
	}
	switch tag {
	case tagEmptyString:
		return "", nil
	case tagString:
		n, err := r.readUvarint()
		if err != nil {
			return "", err
		}
		b, err := r.take(int64(n))
		if err != nil {
			return "", err
		}
		if !utf8.Valid(b) {
			return "", fmt.Errorf("%w: %d-byte string at offset %d", ErrInvalidUTF8, n, start)
		}
		return string(b), nil
	default:
		return "", &UnknownTagError{Tag: tag, Offset: start}
	}
}

// readUvarint decodes a ULEB128 value: 7 bits per byte, LSB group first,
// high bit set on every byte except the last.
func (r *Reader) readUvarint() (uint32, error) {
	var n uint32
	for i := 0; ; i++ {
		if i == maxVarintGroups {
			return 0, fmt.Errorf("%w: more than %d groups at offset %d", ErrVarintOverflow, maxVarintGroups, r.pos)
		}
		b, err := r.ReadUint8()
		if err != nil {
			return 0, err
		}
		n |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return n, nil
		}
	}
}

// ReadTimingPoint decodes the fixed 17-byte (bpm, offset, inherited) triple.
func (r *Reader) ReadTimingPoint() (TimingPoint, error) {
	bpm, err := r.ReadFloat64()
	if err != nil {
		return TimingPoint{}, err
	}
	offset, err := r.ReadFloat64()
	if err != nil {
		return TimingPoint{}, err
	}
	inherited, err := r.ReadBool()
	if err != nil {
		return TimingPoint{}, err
	}
	return TimingPoint{BPM: bpm, Offset: offset, Inherited: inherited}, nil
}
