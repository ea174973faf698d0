// Copyright 2025 The osudb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package binio

import (
	"encoding/binary"
	"math"
)

// Writer encodes primitives into an append-only in-memory buffer. It
// mirrors Reader byte-for-byte for each primitive; there is deliberately
// no record- or file-level encoder.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated buffer. The slice is only valid until the
// next write.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

func (w *Writer) WriteFloat64(v float64) {
	w.WriteUint64(math.Float64bits(v))
}

// WriteString encodes s the way the database stores strings: a single
// 0x00 byte for the empty string, otherwise 0x0B, the minimal ULEB128
// encoding of the UTF-8 byte length, and the raw bytes.
func (w *Writer) WriteString(s string) {
	if len(s) == 0 {
		w.buf = append(w.buf, tagEmptyString)
		return
	}
	w.buf = append(w.buf, tagString)
	w.writeUvarint(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// writeUvarint emits the minimal ULEB128 encoding of n (no superfluous
// trailing zero groups).
func (w *Writer) writeUvarint(n uint32) {
	for {
		b := uint8(n & 0x7F)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		w.buf = append(w.buf, b)
		if n == 0 {
			return
		}
	}
}

// WriteNumeric encodes a tagged numeric value: the kind's tag byte
// followed by its payload.
func (w *Writer) WriteNumeric(v Numeric) {
	switch v.Kind {
	case Uint32Kind:
		w.buf = append(w.buf, tagUint32)
		w.WriteUint32(v.Uint32)
	case Float32Kind:
		w.buf = append(w.buf, tagFloat32)
		w.WriteFloat32(v.Float32)
	case Float64Kind:
		w.buf = append(w.buf, tagFloat64)
		w.WriteFloat64(v.Float64)
	}
}

func (w *Writer) WriteTimingPoint(tp TimingPoint) {
	w.WriteFloat64(tp.BPM)
	w.WriteFloat64(tp.Offset)
	w.WriteBool(tp.Inherited)
}
