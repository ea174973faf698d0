// Copyright 2025 The osudb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package binio implements the primitive type system of osu!'s legacy
// binary database files: little-endian fixed-width scalars, booleans,
// tag-prefixed numeric values, and length-prefixed UTF-8 strings whose
// lengths are encoded as ULEB128 varints.
//
// A tagged numeric value is a one-byte type marker followed by a
// type-specific payload:
//
//	+------+-------------------+
//	| 0x08 | u32 little-endian |
//	+------+-------------------+
//	| 0x0C | f32 little-endian |
//	+------+-------------------+
//	| 0x0D | f64 little-endian |
//	+------+-------------------+
//
// A string is either the single byte 0x00 (empty), or 0x0B followed by a
// ULEB128 byte length and that many bytes of UTF-8.
package binio

import (
	"errors"
	"fmt"
)

const (
	tagEmptyString = 0x00
	tagUint32      = 0x08
	tagString      = 0x0B
	tagFloat32     = 0x0C
	tagFloat64     = 0x0D
)

// maxVarintGroups bounds the ULEB128 length prefix: 5 7-bit groups are
// enough for any 32-bit length, and anything longer is malformed.
const maxVarintGroups = 5

var (
	// ErrTruncated is returned when fewer bytes remain than a read requires.
	ErrTruncated = errors.New("unexpected end of data")
	// ErrInvalidUTF8 is returned when decoded string bytes aren't valid UTF-8.
	ErrInvalidUTF8 = errors.New("string data is not valid UTF-8")
	// ErrVarintOverflow is returned when a ULEB128 length prefix runs past
	// the group cap.
	ErrVarintOverflow = errors.New("varint length prefix too long")
)

// UnknownTagError reports an unrecognized type marker byte. For numeric
// values the reader rewinds 8 bytes and captures the bytes around the
// rewound position, to help identify unsupported format variants.
type UnknownTagError struct {
	Tag    byte
	Offset int64 // offset the tag byte was read at
	Before []byte
	After  []byte
}

func (e *UnknownTagError) Error() string {
	if e.Before == nil && e.After == nil {
		return fmt.Sprintf("unexpected tag byte 0x%02x at offset %d", e.Tag, e.Offset)
	}
	return fmt.Sprintf("unexpected tag byte 0x%02x at offset %d (rewound 8 bytes; last 8: % x  next 8: % x)",
		e.Tag, e.Offset, e.Before, e.After)
}

// NumericKind discriminates the payload of a tagged numeric value.
type NumericKind uint8

const (
	Uint32Kind NumericKind = iota
	Float32Kind
	Float64Kind
)

// Numeric is a decoded tagged numeric value. Exactly one of the payload
// fields is meaningful, selected by Kind.
type Numeric struct {
	Kind    NumericKind
	Uint32  uint32
	Float32 float32
	Float64 float64
}

// Float64Value returns the payload widened to a float64.
func (n Numeric) Float64Value() float64 {
	switch n.Kind {
	case Uint32Kind:
		return float64(n.Uint32)
	case Float32Kind:
		return float64(n.Float32)
	default:
		return n.Float64
	}
}

// TimingPoint is one entry of a beatmap's timing point array.
type TimingPoint struct {
	BPM       float64
	Offset    float64
	Inherited bool
}
