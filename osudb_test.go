// Copyright 2025 The osudb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package osudb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osukit/osudb/internal/binio"
)

func writeTestHeader(w *binio.Writer, version uint32, name string, beatmapCount uint32) {
	w.WriteUint32(version)
	w.WriteUint32(0) // folder count
	w.WriteBool(false)
	w.WriteUint32(0) // account unlock timestamp, low word
	w.WriteUint32(0) // account unlock timestamp, high word
	w.WriteString(name)
	w.WriteUint32(beatmapCount)
}

// writeTestBeatmap emits a minimal, structurally complete record. Star
// rating blocks are emitted (with the given pair counts per mode) only
// when the version carries them.
func writeTestBeatmap(w *binio.Writer, version uint32, md5, folder, mapFile string, starPairs int) {
	w.WriteString("artist")
	w.WriteString("") // artist, unicode
	w.WriteString("title")
	w.WriteString("") // title, unicode
	w.WriteString("mapper")
	w.WriteString("Hard")
	w.WriteString("audio.mp3")
	w.WriteString(md5)
	w.WriteString(mapFile)
	w.WriteUint8(4)
	w.WriteUint16(100)
	w.WriteUint16(20)
	w.WriteUint16(3)
	w.WriteUint64(0)
	w.WriteFloat32(9)
	w.WriteFloat32(4)
	w.WriteFloat32(6)
	w.WriteFloat32(8)
	w.WriteFloat64(1.4)

	if version >= versionStarRatings {
		for mode := 0; mode < 4; mode++ {
			w.WriteUint32(uint32(starPairs))
			for j := 0; j < starPairs; j++ {
				w.WriteNumeric(binio.Numeric{Kind: binio.Uint32Kind, Uint32: 64})
				w.WriteNumeric(binio.Numeric{Kind: binio.Float64Kind, Float64: 5.5})
			}
		}
	}

	w.WriteUint32(95)    // drain time
	w.WriteUint32(120)   // total time
	w.WriteUint32(30000) // preview time

	w.WriteUint32(1)
	w.WriteTimingPoint(binio.TimingPoint{BPM: 60000.0 / 180.0, Offset: 0, Inherited: true})

	w.WriteUint32(1)
	w.WriteUint32(1)
	w.WriteUint32(0)
	w.WriteUint8(9)
	w.WriteUint8(9)
	w.WriteUint8(9)
	w.WriteUint8(9)
	w.WriteUint16(0)
	w.WriteFloat32(0.7)
	w.WriteUint8(0)
	w.WriteString("")
	w.WriteString("tags")
	w.WriteUint16(0)
	w.WriteString("")
	w.WriteBool(true)
	w.WriteUint64(0)
	w.WriteBool(false)
	w.WriteString(folder)
	w.WriteUint64(0)
	w.WriteBool(false)
	w.WriteBool(false)
	w.WriteBool(false)
	w.WriteBool(false)
	w.WriteBool(false)
	w.WriteUint32(0)
	w.WriteUint8(0)
}

func writeTempDB(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "osu!.db")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestCountBeatmaps_HeaderOnly(t *testing.T) {
	w := binio.NewWriter()
	writeTestHeader(w, 20150101, "", 7)
	// deliberately no record bytes: the count must come from the header
	// without any record-level decoding
	path := writeTempDB(t, w.Bytes())

	n, err := CountBeatmaps(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), n)
}

func TestReadHeader(t *testing.T) {
	w := binio.NewWriter()
	w.WriteUint32(20150101)
	w.WriteUint32(42)
	w.WriteBool(true)
	w.WriteUint32(0)
	w.WriteUint32(0)
	w.WriteString("player one")
	w.WriteUint32(3)
	path := writeTempDB(t, w.Bytes())

	h, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, Header{
		Version:         20150101,
		FolderCount:     42,
		AccountUnlocked: true,
		PlayerName:      "player one",
		BeatmapCount:    3,
	}, h)
}

func TestExtractMD5Paths_SingleRecord(t *testing.T) {
	w := binio.NewWriter()
	writeTestHeader(w, 20150101, "player", 1)
	writeTestBeatmap(w, 20150101, "d41d8cd98f00b204e9800998ecf8427e", "123 Artist - Title", "map.osu", 1)
	path := writeTempDB(t, w.Bytes())

	entries, err := ExtractMD5Paths(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", entries[0].MD5)
	assert.Equal(t, "123 Artist - Title/map.osu", entries[0].Path)
}

func TestExtractMD5Paths_VersionGate(t *testing.T) {
	// one version below the threshold: records carry no star rating
	// blocks, and the walk must not try to read them
	w := binio.NewWriter()
	writeTestHeader(w, 20140608, "", 1)
	writeTestBeatmap(w, 20140608, "aaaa", "folder", "map.osu", 0)
	path := writeTempDB(t, w.Bytes())

	entries, err := ExtractMD5Paths(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "folder/map.osu", entries[0].Path)

	// at the threshold: four count-prefixed blocks are present even when
	// every count is zero
	w.Reset()
	writeTestHeader(w, 20140609, "", 1)
	writeTestBeatmap(w, 20140609, "bbbb", "folder", "map.osu", 0)
	path = writeTempDB(t, w.Bytes())

	entries, err = ExtractMD5Paths(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bbbb", entries[0].MD5)
}

func TestExtractMD5Paths_TrimsPathSegments(t *testing.T) {
	w := binio.NewWriter()
	writeTestHeader(w, 20150101, "", 1)
	writeTestBeatmap(w, 20150101, "cccc", " Songs ", "map.osu ", 0)
	path := writeTempDB(t, w.Bytes())

	entries, err := ExtractMD5Paths(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Songs/map.osu", entries[0].Path)
}

func TestExtractMD5Paths_EmptySegments(t *testing.T) {
	// empty folder or map file still produces a "/"-joined string
	w := binio.NewWriter()
	writeTestHeader(w, 20150101, "", 1)
	writeTestBeatmap(w, 20150101, "dddd", "", "", 0)
	path := writeTempDB(t, w.Bytes())

	entries, err := ExtractMD5Paths(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/", entries[0].Path)
}

func TestExtractMD5Paths_FileOrderPreserved(t *testing.T) {
	w := binio.NewWriter()
	writeTestHeader(w, 20150101, "", 3)
	writeTestBeatmap(w, 20150101, "same-md5", "b", "2.osu", 0)
	writeTestBeatmap(w, 20150101, "same-md5", "a", "1.osu", 0)
	writeTestBeatmap(w, 20150101, "other", "c", "3.osu", 0)
	path := writeTempDB(t, w.Bytes())

	entries, err := ExtractMD5Paths(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// file order, no sorting, no deduplication
	assert.Equal(t, "b/2.osu", entries[0].Path)
	assert.Equal(t, "a/1.osu", entries[1].Path)
	assert.Equal(t, "c/3.osu", entries[2].Path)
	assert.Equal(t, entries[0].MD5, entries[1].MD5)
}

func TestExtractMD5Paths_TruncatedFile(t *testing.T) {
	// header claims one record but no record bytes follow
	w := binio.NewWriter()
	writeTestHeader(w, 20150101, "", 1)
	path := writeTempDB(t, w.Bytes())

	entries, err := ExtractMD5Paths(path)
	assert.ErrorIs(t, err, binio.ErrTruncated)
	assert.Nil(t, entries)
}

func TestExtractMD5Paths_TruncatedMidRecord(t *testing.T) {
	w := binio.NewWriter()
	writeTestHeader(w, 20150101, "", 1)
	writeTestBeatmap(w, 20150101, "eeee", "folder", "map.osu", 0)
	data := w.Bytes()
	// chop the tail off the only record
	path := writeTempDB(t, data[:len(data)-10])

	entries, err := ExtractMD5Paths(path)
	assert.ErrorIs(t, err, binio.ErrTruncated)
	assert.Nil(t, entries)
}

func TestExtractMD5Paths_MissingFile(t *testing.T) {
	_, err := ExtractMD5Paths(filepath.Join(t.TempDir(), "nope.db"))
	assert.Error(t, err)
}

func TestExtractMD5Paths_EmptyDatabase(t *testing.T) {
	w := binio.NewWriter()
	writeTestHeader(w, 20150101, "", 0)
	path := writeTempDB(t, w.Bytes())

	entries, err := ExtractMD5Paths(path)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadBeatmap_ConsumesExactly(t *testing.T) {
	w := binio.NewWriter()
	writeTestBeatmap(w, 20150101, "ffff", "folder", "map.osu", 2)
	r := binio.NewReader(w.Bytes())

	e, err := readBeatmap(r, 20150101)
	require.NoError(t, err)
	assert.Equal(t, "ffff", e.MD5)
	assert.Equal(t, int64(0), r.Remaining())
}
