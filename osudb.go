// Copyright 2025 The osudb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package osudb decodes the legacy osu!.db file that the game client
// uses to index locally installed beatmaps. The walk is strictly
// sequential: every field of every record is decoded in the client's
// fixed order, and only the content hash and on-disk path of each
// beatmap are kept.
package osudb

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/osukit/osudb/internal/binio"
	"github.com/osukit/osudb/internal/mmap"
)

// versionStarRatings is the first database version whose beatmap records
// carry per-mode star rating blocks.
const versionStarRatings = 20140609

// Header is the fixed preamble of a database file. The account unlock
// timestamp that follows AccountUnlocked on disk is skipped.
type Header struct {
	Version         uint32
	FolderCount     uint32
	AccountUnlocked bool
	PlayerName      string
	BeatmapCount    uint32
}

// Entry is the projection kept for each beatmap record: the content hash
// identifying the map file, and its path relative to the songs directory.
type Entry struct {
	MD5  string
	Path string
}

// ReadHeader decodes only the file header of the database at path.
func ReadHeader(path string) (Header, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("mmap.Open(%s): %w", path, err)
	}
	defer func() { _ = m.Close() }()

	return readHeader(binio.NewReader(m.Data()))
}

// CountBeatmaps returns the beatmap count claimed by the header of the
// database at path, without decoding any record bytes.
func CountBeatmaps(path string) (uint32, error) {
	h, err := ReadHeader(path)
	if err != nil {
		return 0, err
	}
	return h.BeatmapCount, nil
}

// ExtractMD5Paths decodes the whole database at path and returns one
// Entry per beatmap record, in file order, neither deduplicated nor
// sorted. Any decode error aborts the walk; no partial result is
// returned.
func ExtractMD5Paths(path string) ([]Entry, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap.Open(%s): %w", path, err)
	}
	defer func() { _ = m.Close() }()

	if m.Len() > 0 {
		if err := unix.Madvise(m.Data(), unix.MADV_SEQUENTIAL); err != nil {
			return nil, fmt.Errorf("madvise: %w", err)
		}
	}

	r := binio.NewReader(m.Data())
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"version":  h.Version,
		"beatmaps": h.BeatmapCount,
	}).Debug("decoded osu!.db header")

	entries := make([]Entry, 0, h.BeatmapCount)
	for i := uint32(0); i < h.BeatmapCount; i++ {
		e, err := readBeatmap(r, h.Version)
		if err != nil {
			return nil, fmt.Errorf("beatmap %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// fieldReader decodes a run of sequential fields, remembering the first
// error and turning every later read into a no-op. This keeps the
// 40-odd reads per record from each needing their own error check.
type fieldReader struct {
	r   *binio.Reader
	err error
}

func (d *fieldReader) boolean() bool {
	if d.err != nil {
		return false
	}
	v, err := d.r.ReadBool()
	d.err = err
	return v
}

func (d *fieldReader) u8() uint8 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadUint8()
	d.err = err
	return v
}

func (d *fieldReader) u16() uint16 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadUint16()
	d.err = err
	return v
}

func (d *fieldReader) u32() uint32 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadUint32()
	d.err = err
	return v
}

func (d *fieldReader) u64() uint64 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadUint64()
	d.err = err
	return v
}

func (d *fieldReader) f32() float32 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadFloat32()
	d.err = err
	return v
}

func (d *fieldReader) f64() float64 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadFloat64()
	d.err = err
	return v
}

func (d *fieldReader) str() string {
	if d.err != nil {
		return ""
	}
	v, err := d.r.ReadString()
	d.err = err
	return v
}

func (d *fieldReader) numeric() binio.Numeric {
	if d.err != nil {
		return binio.Numeric{}
	}
	v, err := d.r.ReadNumeric()
	d.err = err
	return v
}

func (d *fieldReader) timingPoint() binio.TimingPoint {
	if d.err != nil {
		return binio.TimingPoint{}
	}
	v, err := d.r.ReadTimingPoint()
	d.err = err
	return v
}

func readHeader(r *binio.Reader) (Header, error) {
	d := &fieldReader{r: r}

	var h Header
	h.Version = d.u32()
	h.FolderCount = d.u32()
	h.AccountUnlocked = d.boolean()
	d.u32() // account unlock timestamp, low word
	d.u32() // account unlock timestamp, high word
	h.PlayerName = d.str()
	h.BeatmapCount = d.u32()

	if d.err != nil {
		return Header{}, fmt.Errorf("header: %w", d.err)
	}
	return h, nil
}

// readBeatmap decodes one full beatmap record and projects it down to an
// Entry. Variable-length strings and tagged numerics interleave with the
// fixed-width fields, so discarded fields still have to be decoded
// structurally to advance the cursor; there is no byte length to skip by.
func readBeatmap(r *binio.Reader, version uint32) (Entry, error) {
	d := &fieldReader{r: r}

	d.str() // artist
	d.str() // artist, unicode
	d.str() // title
	d.str() // title, unicode
	d.str() // mapper
	d.str() // difficulty name
	d.str() // audio filename
	md5 := d.str()
	mapFile := d.str()
	d.u8()  // ranked status
	d.u16() // hit circle count
	d.u16() // slider count
	d.u16() // spinner count
	d.u64() // last modified
	d.f32() // approach rate
	d.f32() // circle size
	d.f32() // hp drain
	d.f32() // overall difficulty
	d.f64() // slider velocity

	// One star rating block per game mode (standard, taiko, catch,
	// mania): a count, then that many (mod combination, rating) pairs.
	// Gated on the header version, not on anything in the record.
	if version >= versionStarRatings {
		for mode := 0; mode < 4; mode++ {
			n := d.u32()
			for j := uint32(0); j < n && d.err == nil; j++ {
				d.numeric() // mod combination
				d.numeric() // star rating
			}
		}
	}

	d.u32() // drain time
	d.u32() // total time
	d.u32() // preview time

	n := d.u32()
	for j := uint32(0); j < n && d.err == nil; j++ {
		d.timingPoint()
	}

	d.u32()     // beatmap id
	d.u32()     // beatmap set id
	d.u32()     // thread id
	d.u8()      // grade, standard
	d.u8()      // grade, taiko
	d.u8()      // grade, catch
	d.u8()      // grade, mania
	d.u16()     // local audio offset
	d.f32()     // stack leniency
	d.u8()      // game mode
	d.str()     // song source
	d.str()     // song tags
	d.u16()     // online audio offset
	d.str()     // title font
	d.boolean() // unplayed
	d.u64()     // last played
	d.boolean() // is osz2
	folder := d.str()
	d.u64()     // last checked online
	d.boolean() // ignore hitsounds
	d.boolean() // ignore skin
	d.boolean() // disable storyboard
	d.boolean() // disable video
	d.boolean() // visual override
	d.u32()     // last modification time
	d.u8()      // mania scroll speed

	if d.err != nil {
		return Entry{}, d.err
	}
	return Entry{
		MD5:  md5,
		Path: strings.TrimSpace(folder) + "/" + strings.TrimSpace(mapFile),
	}, nil
}
