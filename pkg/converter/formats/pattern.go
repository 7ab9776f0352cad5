package formats

import (
	"fmt"

	"github.com/james-see/shaketool/pkg/binio"
	"github.com/james-see/shaketool/pkg/converter"
)

// Frame header bits, high to low. Bit 0 is unused.
const (
	fieldNote            = 0x80
	fieldVol             = 0x40
	fieldCommand         = 0x20
	fieldParameter       = 0x10
	fieldControllerSet   = 0x08
	fieldControllerValue = 0x04
	fieldRepeat          = 0x02
)

// maxPrealloc caps the rows reserved before any frame is read.
const maxPrealloc = 4096

var fieldNames = []struct {
	bit  uint8
	name string
}{
	{fieldNote, "note"},
	{fieldVol, "vol"},
	{fieldCommand, "command"},
	{fieldParameter, "parameter"},
	{fieldControllerSet, "controller_set"},
	{fieldControllerValue, "controller_value"},
}

// LengthMismatchError reports pattern data whose consumed size differs from
// the size declared in front of it.
type LengthMismatchError struct {
	Declared uint32
	Consumed uint32
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("expected %d bytes of pattern data, actually read %d", e.Declared, e.Consumed)
}

// frame is one decoded frame: the fields it carries and how often the
// resulting row repeats.
type frame struct {
	header uint8
	fields converter.Row
	repeat int
	size   uint32 // encoded bytes, header included
}

// patternState is the accumulator folded over the frame sequence.
type patternState struct {
	last     converter.Row
	rows     []converter.Row
	emitted  int
	consumed uint32
	frames   int
}

// apply merges f into the carried row and emits it f.repeat times. Rows
// beyond want are counted but not stored.
func (s patternState) apply(f frame, want int) patternState {
	row := s.last
	if f.header&fieldNote != 0 {
		row.Note = f.fields.Note
	}
	if f.header&fieldVol != 0 {
		row.Vol = f.fields.Vol
	}
	if f.header&fieldCommand != 0 {
		row.Command = f.fields.Command
	}
	if f.header&fieldParameter != 0 {
		row.Parameter = f.fields.Parameter
	}
	if f.header&fieldControllerSet != 0 {
		row.ControllerSet = f.fields.ControllerSet
	}
	if f.header&fieldControllerValue != 0 {
		row.ControllerValue = f.fields.ControllerValue
	}

	n := f.repeat
	if room := want - len(s.rows); n > room {
		n = room
	}
	for i := 0; i < n; i++ {
		s.rows = append(s.rows, row)
	}

	s.last = row
	s.emitted += f.repeat
	s.consumed += f.size
	s.frames++
	return s
}

// readFrame reads one frame and applies the per-field sentinel rules.
func readFrame(r *binio.Reader) (frame, error) {
	header, err := r.Byte()
	if err != nil {
		return frame{}, err
	}
	f := frame{header: header, repeat: 1, size: 1}

	for _, fld := range fieldNames {
		if header&fld.bit == 0 {
			continue
		}
		b, err := r.Byte()
		if err != nil {
			return f, fmt.Errorf("reading %s: %w", fld.name, err)
		}
		f.size++

		switch fld.bit {
		case fieldNote:
			f.fields.Note = decodeNote(b)
		case fieldVol:
			f.fields.Vol = decodeVol(b)
		case fieldCommand:
			f.fields.Command = decodeCommand(b)
		case fieldParameter:
			f.fields.Parameter = b
		case fieldControllerSet:
			f.fields.ControllerSet = decodeControllerSet(b)
		case fieldControllerValue:
			f.fields.ControllerValue = b
		}
	}

	if header&fieldRepeat != 0 {
		n, err := r.Uint16BE()
		if err != nil {
			return f, fmt.Errorf("reading repeat count: %w", err)
		}
		f.repeat = int(n) + 1
		f.size += 2
	}
	return f, nil
}

func decodeNote(b uint8) converter.Value {
	switch {
	case b > 128:
		return converter.Off
	case b == 0:
		return converter.Clear
	}
	return converter.Value(b - 1)
}

func decodeVol(b uint8) converter.Value {
	if b > 64 {
		return converter.Clear
	}
	return converter.Value(b)
}

func decodeCommand(b uint8) converter.Value {
	if b == 0 {
		return converter.Clear
	}
	return converter.Value(b)
}

func decodeControllerSet(b uint8) converter.Value {
	if b == 0 {
		return converter.Clear
	}
	return converter.Value(b - 1)
}

// DecodePattern reads the delta/run-length encoded event grid of one
// instrument in one pattern and returns it as columns of rows.
func DecodePattern(r *binio.Reader, columns, rows int) ([][]converter.Row, error) {
	declared, err := r.Uint32LE()
	if err != nil {
		return nil, err
	}

	want := columns * rows
	// Fields the first frame leaves out inherit from an empty row. The
	// buffer grows with the frames actually read.
	state := patternState{last: converter.EmptyRow(), rows: make([]converter.Row, 0, min(want, maxPrealloc))}
	for state.emitted < want {
		f, err := readFrame(r)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", state.frames, err)
		}
		state = state.apply(f, want)
	}

	if state.consumed != declared {
		return nil, &LengthMismatchError{Declared: declared, Consumed: state.consumed}
	}

	grid := make([][]converter.Row, columns)
	for c := range grid {
		grid[c] = state.rows[c*rows : (c+1)*rows : (c+1)*rows]
	}
	return grid, nil
}
