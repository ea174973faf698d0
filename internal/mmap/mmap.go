// Copyright 2025 The osudb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmap provides read-only memory-mapped access to a file.
package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ReaderAt is a read-only memory mapping of a whole file. The mapped
// bytes are valid until Close is called.
type ReaderAt struct {
	f    *os.File
	data []byte
}

// Open maps the file at path. Empty files map to a nil (zero-length)
// data slice rather than an error.
func Open(path string) (*ReaderAt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	if st.Size() == 0 {
		return &ReaderAt{f: f}, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap(%s): %w", path, err)
	}
	return &ReaderAt{f: f, data: data}, nil
}

// Data returns the mapped bytes. Callers must not write to the slice.
func (r *ReaderAt) Data() []byte {
	return r.data
}

func (r *ReaderAt) Len() int {
	return len(r.data)
}

func (r *ReaderAt) Close() error {
	if r.data != nil {
		data := r.data
		r.data = nil
		if err := unix.Munmap(data); err != nil {
			_ = r.f.Close()
			return fmt.Errorf("munmap: %w", err)
		}
	}
	return r.f.Close()
}
