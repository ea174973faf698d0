// gen-testdata writes a synthetic osu!.db with fabricated beatmap
// records, for exercising the decoder against something bigger than the
// hand-built fixtures in the tests.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/dgryski/go-farm"

	"github.com/osukit/osudb/internal/binio"
)

const dbVersion = 20150101

var (
	outPath = flag.String("o", "osu!.db", "output path")
	count   = flag.Int("n", 1000, "number of beatmap records")
	seed    = flag.Int64("seed", 1, "rng seed")
)

// fakeMD5 derives a stable, md5-shaped hex string from s.
func fakeMD5(s string) string {
	lo, hi := farm.Fingerprint128([]byte(s))
	return fmt.Sprintf("%016x%016x", hi, lo)
}

func writeBeatmap(w *binio.Writer, rng *rand.Rand, i int) {
	folder := fmt.Sprintf("%d Artist%d - Title%d", 100000+i, i, i)
	mapFile := fmt.Sprintf("Artist%d - Title%d (mapper) [Insane].osu", i, i)

	w.WriteString(fmt.Sprintf("Artist%d", i))
	w.WriteString("") // artist, unicode
	w.WriteString(fmt.Sprintf("Title%d", i))
	w.WriteString("") // title, unicode
	w.WriteString("mapper")
	w.WriteString("Insane")
	w.WriteString("audio.mp3")
	w.WriteString(fakeMD5(folder + "/" + mapFile))
	w.WriteString(mapFile)
	w.WriteUint8(4) // ranked
	w.WriteUint16(uint16(rng.Intn(800)))
	w.WriteUint16(uint16(rng.Intn(300)))
	w.WriteUint16(uint16(rng.Intn(20)))
	w.WriteUint64(0) // last modified
	w.WriteFloat32(9)
	w.WriteFloat32(4)
	w.WriteFloat32(5)
	w.WriteFloat32(8)
	w.WriteFloat64(1.4)

	// star rating blocks, one per mode
	for mode := 0; mode < 4; mode++ {
		w.WriteUint32(1)
		w.WriteNumeric(binio.Numeric{Kind: binio.Uint32Kind, Uint32: 0})
		w.WriteNumeric(binio.Numeric{Kind: binio.Float64Kind, Float64: 1 + 9*rng.Float64()})
	}

	w.WriteUint32(60)    // drain time
	w.WriteUint32(90)    // total time
	w.WriteUint32(30000) // preview time

	w.WriteUint32(2)
	w.WriteTimingPoint(binio.TimingPoint{BPM: 60000.0 / 180.0, Offset: 0, Inherited: true})
	w.WriteTimingPoint(binio.TimingPoint{BPM: -100, Offset: 1204, Inherited: false})

	w.WriteUint32(uint32(100000 + i)) // beatmap id
	w.WriteUint32(uint32(10000 + i))  // beatmap set id
	w.WriteUint32(0)                  // thread id
	w.WriteUint8(9)                   // grade, standard
	w.WriteUint8(9)                   // grade, taiko
	w.WriteUint8(9)                   // grade, catch
	w.WriteUint8(9)                   // grade, mania
	w.WriteUint16(0)                  // local audio offset
	w.WriteFloat32(0.7)               // stack leniency
	w.WriteUint8(0)                   // game mode
	w.WriteString("")                 // song source
	w.WriteString("generated")        // song tags
	w.WriteUint16(0)                  // online audio offset
	w.WriteString("")                 // title font
	w.WriteBool(true)                 // unplayed
	w.WriteUint64(0)                  // last played
	w.WriteBool(false)                // is osz2
	w.WriteString(folder)
	w.WriteUint64(0)   // last checked online
	w.WriteBool(false) // ignore hitsounds
	w.WriteBool(false) // ignore skin
	w.WriteBool(false) // disable storyboard
	w.WriteBool(false) // disable video
	w.WriteBool(false) // visual override
	w.WriteUint32(0)   // last modification time
	w.WriteUint8(0)    // mania scroll speed
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	w := binio.NewWriter()
	w.WriteUint32(dbVersion)
	w.WriteUint32(uint32(*count))
	w.WriteBool(true)
	w.WriteUint32(0) // account unlock timestamp, low word
	w.WriteUint32(0) // account unlock timestamp, high word
	w.WriteString("gen-testdata")
	w.WriteUint32(uint32(*count))

	for i := 0; i < *count; i++ {
		writeBeatmap(w, rng, i)
	}

	if err := os.WriteFile(*outPath, w.Bytes(), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d beatmaps to %s (%d bytes)\n", *count, *outPath, w.Len())
}
