package formats

import (
	"bytes"

	"github.com/james-see/shaketool/pkg/binio"
)

// songFixture describes a v2 file to be serialised by build.
type songFixture struct {
	author, name string
	tempo, speed uint8
	patterns     [][3]uint16 // length, highlight minor, highlight major as stored
	orders       []uint16
	instruments  []instrumentFixture
}

type instrumentFixture struct {
	name     string
	settings [11]uint8
	width    uint8
	patterns [][]byte // encoded frames per pattern, without the length word
}

func (f songFixture) build() []byte {
	var buf bytes.Buffer
	w := binio.NewWriter(&buf)

	w.Write([]byte("SHKT-SONG\x00"))
	w.Uint16LE(0)
	w.PascalString(f.author)
	w.PascalString(f.name)
	w.Byte(f.tempo)
	w.Byte(f.speed)

	w.Uint16LE(uint16(len(f.patterns)))
	for _, p := range f.patterns {
		w.Uint16LE(p[0])
		w.Uint16LE(p[1])
		w.Uint16LE(p[2])
	}

	w.Uint16LE(uint16(len(f.orders)))
	for _, o := range f.orders {
		w.Uint16LE(o)
	}

	w.Uint16LE(uint16(len(f.instruments)))
	for _, inst := range f.instruments {
		w.PascalString(inst.name)
		w.Write(inst.settings[:])
		w.Write(make([]byte, instrumentReservedA+instrumentReservedB))
		w.Byte(inst.width)
		for _, frames := range inst.patterns {
			w.Write(withLength(frames))
		}
	}
	return buf.Bytes()
}

// withLength prefixes encoded frames with their declared byte length.
func withLength(frames []byte) []byte {
	var buf bytes.Buffer
	w := binio.NewWriter(&buf)
	w.Uint32LE(uint32(len(frames)))
	w.Write(frames)
	return buf.Bytes()
}

// minimalSong is one pattern of two rows played once by a single one column
// instrument: a note+vol frame followed by a frame repeating it.
func minimalSong() songFixture {
	return songFixture{
		tempo:    150,
		speed:    4,
		patterns: [][3]uint16{{2, 0, 0}},
		orders:   []uint16{5},
		instruments: []instrumentFixture{{
			width: 1,
			patterns: [][]byte{{
				0xC0, 60, 40, // note=60 vol=40
				0x00, // previous row again
			}},
		}},
	}
}
