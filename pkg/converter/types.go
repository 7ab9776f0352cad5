// Package converter translates ShakeTracker 0.2 song files into the
// ShakeTracker 0.4 module format.
package converter

import (
	"fmt"
	"io"

	"github.com/james-see/shaketool/pkg/props"
)

// Value is a row field that holds either a plain number or a sentinel.
type Value int16

// Row field sentinels.
const (
	Clear Value = -1 // unset
	Off   Value = -2 // note release, only meaningful for notes
)

// IsClear reports whether v is the Clear sentinel.
func (v Value) IsClear() bool { return v == Clear }

func (v Value) String() string {
	switch v {
	case Clear:
		return "<CLEAR>"
	case Off:
		return "<OFF>"
	}
	return fmt.Sprint(int16(v))
}

// NoPattern marks an order list slot without a pattern.
const NoPattern = -1

// PatternMetrics describes the grid of one pattern
type PatternMetrics struct {
	Length         int
	HighlightMajor int
	HighlightMinor int
}

// Instrument is a single track definition. TrackWidth is the number of event
// columns the instrument owns in every pattern.
type Instrument struct {
	Name                 string
	TrackWidth           int
	Device               uint8
	Bank                 uint8
	Patch                uint8
	Channel              uint8
	PitchBendSensitivity uint8
	DefaultVolume        uint8
	GlobalVolume         uint8
}

// Row is one event cell. Note may be Clear or Off; Vol, Command and
// ControllerSet may be Clear.
type Row struct {
	Note            Value
	Vol             Value
	Command         Value
	Parameter       uint8
	ControllerSet   Value
	ControllerValue uint8
}

// IsEmpty reports whether the row carries no event at all.
func (r Row) IsEmpty() bool {
	return r.Note == Clear && r.Vol == Clear && r.Command == Clear &&
		r.Parameter == 0 && r.ControllerSet == Clear && r.ControllerValue == 0
}

// EmptyRow returns a row with every field unset.
func EmptyRow() Row {
	return Row{Note: Clear, Vol: Clear, Command: Clear, ControllerSet: Clear}
}

// Song is a fully decoded song.
type Song struct {
	Name        string
	Author      string
	Version     uint16 // as stored in the source file, not interpreted
	Tempo       uint8
	Speed       uint8
	Patterns    []PatternMetrics
	OrderList   []int // pattern indices, NoPattern for empty slots
	Instruments []Instrument

	// Rows is indexed [instrument][pattern][column][row].
	Rows [][][][]Row
}

// Validate checks that Rows matches the instrument widths and pattern lengths.
func (s *Song) Validate() error {
	if len(s.Rows) != len(s.Instruments) {
		return fmt.Errorf("song has %d instruments but row data for %d", len(s.Instruments), len(s.Rows))
	}
	for i, inst := range s.Instruments {
		if len(s.Rows[i]) != len(s.Patterns) {
			return fmt.Errorf("instrument %d has data for %d patterns, want %d", i, len(s.Rows[i]), len(s.Patterns))
		}
		for p, pm := range s.Patterns {
			cols := s.Rows[i][p]
			if len(cols) != inst.TrackWidth {
				return fmt.Errorf("instrument %d pattern %d has %d columns, want %d", i, p, len(cols), inst.TrackWidth)
			}
			for c, rows := range cols {
				if len(rows) != pm.Length {
					return fmt.Errorf("instrument %d pattern %d column %d has %d rows, want %d", i, p, c, len(rows), pm.Length)
				}
			}
		}
	}
	return nil
}

// Decoder parses a source song stream.
type Decoder interface {
	Name() string
	Decode(r io.Reader) (*Song, error)
}

// Encoder builds a target container from a song.
type Encoder interface {
	Name() string
	Header() string
	Encode(song *Song) (*props.Container, error)
}

// Converter pairs a source decoder with a target encoder.
type Converter struct {
	decoder Decoder
	encoder Encoder
	midi    *MIDIConverter
}

// New creates a Converter
func New(decoder Decoder, encoder Encoder) *Converter {
	return &Converter{decoder: decoder, encoder: encoder, midi: NewMIDIConverter()}
}

// WithMIDI replaces the renderer used by SongToMIDI and ExportMIDIFile.
func (c *Converter) WithMIDI(m *MIDIConverter) *Converter {
	c.midi = m
	return c
}

// GetDecoder returns the source format decoder
func (c *Converter) GetDecoder() Decoder {
	return c.decoder
}

// GetEncoder returns the target format encoder
func (c *Converter) GetEncoder() Encoder {
	return c.encoder
}
