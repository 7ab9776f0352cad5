// Package formats provides the ShakeTracker file format handlers: the 0.2
// song decoder and the 0.4 module encoder.
package formats

import (
	"fmt"
	"io"
	"os"

	"github.com/james-see/shaketool/pkg/binio"
	"github.com/james-see/shaketool/pkg/converter"
)

// SHT2 format constants
const (
	SHT2Signature    = converter.SourceSignature
	SHT2SignatureLen = 10

	// Order list entries below this value hold no pattern.
	SHT2OrderBase = 5

	instrumentReservedA = 128
	instrumentReservedB = 130
)

// SHT2 decodes ShakeTracker 0.2 song files.
type SHT2 struct {
	// MaxCells bounds the number of rows a song may declare across all
	// instruments and patterns. Zero means no limit.
	MaxCells int
}

// NewSHT2 creates a new 0.2 song decoder without a size limit
func NewSHT2() *SHT2 {
	return &SHT2{}
}

// GridTooLargeError is returned when a song declares more pattern cells
// than the decoder accepts.
type GridTooLargeError struct {
	Cells int
	Limit int
}

func (e *GridTooLargeError) Error() string {
	return fmt.Sprintf("song declares at least %d pattern cells, limit is %d", e.Cells, e.Limit)
}

// Name returns the format name
func (d *SHT2) Name() string {
	return "ShakeTracker 0.2 song"
}

// DecodeFile decodes the song file at path.
func (d *SHT2) DecodeFile(path string) (*converter.Song, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return d.Decode(f)
}

// Decode reads a complete song from r. Any inconsistency aborts the whole
// decode since every later field depends on the previous ones.
func (d *SHT2) Decode(r io.Reader) (*converter.Song, error) {
	br := binio.NewReader(r)

	if err := br.ExpectFixedString(SHT2SignatureLen, SHT2Signature); err != nil {
		return nil, err
	}

	song := &converter.Song{}
	var err error

	if song.Version, err = br.Uint16LE(); err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	if song.Author, err = br.PascalString(); err != nil {
		return nil, fmt.Errorf("reading author: %w", err)
	}
	if song.Name, err = br.PascalString(); err != nil {
		return nil, fmt.Errorf("reading name: %w", err)
	}
	if song.Tempo, err = br.Byte(); err != nil {
		return nil, fmt.Errorf("reading tempo: %w", err)
	}
	if song.Speed, err = br.Byte(); err != nil {
		return nil, fmt.Errorf("reading speed: %w", err)
	}

	if song.Patterns, err = readPatternMetrics(br); err != nil {
		return nil, err
	}
	if song.OrderList, err = readOrderList(br); err != nil {
		return nil, err
	}

	count, err := br.Uint16LE()
	if err != nil {
		return nil, fmt.Errorf("reading instrument count: %w", err)
	}
	song.Instruments = make([]converter.Instrument, 0, count)
	song.Rows = make([][][][]converter.Row, 0, count)

	cells := 0
	for i := 0; i < int(count); i++ {
		inst, err := readInstrument(br)
		if err != nil {
			return nil, fmt.Errorf("instrument %d: %w", i, err)
		}
		song.Instruments = append(song.Instruments, inst)

		patterns := make([][][]converter.Row, 0, len(song.Patterns))
		for p, pm := range song.Patterns {
			cells += inst.TrackWidth * pm.Length
			if d.MaxCells > 0 && cells > d.MaxCells {
				return nil, fmt.Errorf("instrument %d pattern %d: %w", i, p, &GridTooLargeError{Cells: cells, Limit: d.MaxCells})
			}
			grid, err := DecodePattern(br, inst.TrackWidth, pm.Length)
			if err != nil {
				return nil, fmt.Errorf("instrument %d pattern %d: %w", i, p, err)
			}
			patterns = append(patterns, grid)
		}
		song.Rows = append(song.Rows, patterns)
	}

	return song, nil
}

// readPatternMetrics reads the pattern table. On disk the highlight words
// are stored minor first.
func readPatternMetrics(br *binio.Reader) ([]converter.PatternMetrics, error) {
	count, err := br.Uint16LE()
	if err != nil {
		return nil, fmt.Errorf("reading pattern count: %w", err)
	}

	metrics := make([]converter.PatternMetrics, 0, count)
	for p := 0; p < int(count); p++ {
		var words [3]uint16
		for k := range words {
			if words[k], err = br.Uint16LE(); err != nil {
				return nil, fmt.Errorf("pattern %d metrics: %w", p, err)
			}
		}
		metrics = append(metrics, converter.PatternMetrics{
			Length:         int(words[0]),
			HighlightMinor: int(words[1]),
			HighlightMajor: int(words[2]),
		})
	}
	return metrics, nil
}

func readOrderList(br *binio.Reader) ([]int, error) {
	count, err := br.Uint16LE()
	if err != nil {
		return nil, fmt.Errorf("reading order count: %w", err)
	}

	orders := make([]int, 0, count)
	for k := 0; k < int(count); k++ {
		v, err := br.Uint16LE()
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", k, err)
		}
		orders = append(orders, orderIndex(v))
	}
	return orders, nil
}

// orderIndex maps a stored order value to a pattern index: 4 is an empty
// slot, 5 is pattern 0, 6 is pattern 1 and so on.
func orderIndex(v uint16) int {
	idx := int(v) - SHT2OrderBase
	if idx < 0 {
		return converter.NoPattern
	}
	return idx
}

// readInstrument reads one instrument record up to and including its track
// width. Reserved bytes are skipped without interpretation.
func readInstrument(br *binio.Reader) (converter.Instrument, error) {
	var inst converter.Instrument
	var err error

	if inst.Name, err = br.PascalString(); err != nil {
		return inst, fmt.Errorf("reading name: %w", err)
	}

	var fields [11]uint8
	for k := range fields {
		if fields[k], err = br.Byte(); err != nil {
			return inst, fmt.Errorf("reading settings: %w", err)
		}
	}
	inst.Device = fields[0]
	inst.Bank = fields[1]
	inst.Patch = fields[2]
	inst.Channel = fields[3]
	inst.PitchBendSensitivity = fields[4]
	// fields[5] reserved
	inst.DefaultVolume = fields[6]
	inst.GlobalVolume = fields[7]
	// fields[8:11] reserved

	if err := br.Skip(instrumentReservedA); err != nil {
		return inst, fmt.Errorf("reading reserved block: %w", err)
	}
	if err := br.Skip(instrumentReservedB); err != nil {
		return inst, fmt.Errorf("reading reserved block: %w", err)
	}

	width, err := br.Byte()
	if err != nil {
		return inst, fmt.Errorf("reading track width: %w", err)
	}
	inst.TrackWidth = int(width)
	return inst, nil
}
