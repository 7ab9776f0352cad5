package formats

import (
	"fmt"

	"github.com/james-see/shaketool/pkg/converter"
	"github.com/james-see/shaketool/pkg/props"
)

// SHT4 format constants
const (
	SHT4Header  = converter.TargetHeader
	SHT4Version = "0.3.99"

	// MaxOrders caps the written order list. ShakeTracker 0.4.6 corrupts the
	// pattern row lengths after loading longer order lists, which crashes it
	// for songs whose first pattern is shorter than the pattern count. 200 is
	// also the largest order list that version can edit.
	MaxOrders = 200
)

// Bytes written for sentinel row fields.
const (
	noteOffByte       = 254
	noteClearByte     = 255
	volClearByte      = 65
	commandClearByte  = 255
	controllerSetNone = 255
)

// Property values every 0.4 track carries that have no 0.2 equivalent.
var trackDefaults = []props.Property{
	{Name: "PNVA_controller", Value: "11"},
	{Name: "PNVA_type", Value: "3"},
	{Name: "initial_values", Value: "5"},
	{Name: "initial_value_0_number", Value: "7"},
	{Name: "initial_value_0_type", Value: "0"},
	{Name: "initial_value_0_value", Value: "127"},
	{Name: "initial_value_1_number", Value: "10"},
	{Name: "initial_value_1_type", Value: "0"},
	{Name: "initial_value_1_value", Value: "64"},
	{Name: "initial_value_2_number", Value: "91"},
	{Name: "initial_value_2_type", Value: "0"},
	{Name: "initial_value_2_value", Value: "24"},
	{Name: "initial_value_3_number", Value: "94"},
	{Name: "initial_value_3_type", Value: "0"},
	{Name: "initial_value_3_value", Value: "10"},
	{Name: "initial_value_4_number", Value: "11"},
	{Name: "initial_value_4_type", Value: "0"},
	{Name: "initial_value_4_value", Value: "127"},
	{Name: "mute", Value: "0"},
}

// SHT4 encodes songs as ShakeTracker 0.4 modules.
type SHT4 struct {
	devices func() (*props.Container, error)
}

// NewSHT4 creates a new 0.4 module encoder using the built-in device table
func NewSHT4() *SHT4 {
	return &SHT4{devices: DefaultDevices}
}

// Name returns the format name
func (e *SHT4) Name() string {
	return "ShakeTracker 0.4 module"
}

// Header returns the tag that opens every 0.4 module.
func (e *SHT4) Header() string {
	return SHT4Header
}

// Encode builds the 0.4 property container for song.
func (e *SHT4) Encode(song *converter.Song) (*props.Container, error) {
	if song == nil {
		return nil, fmt.Errorf("nil song")
	}
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("invalid song: %w", err)
	}

	c := props.New(SHT4Header)

	c.AddSection("VERSION").Add("version", SHT4Version)

	s := c.AddSection("INFO")
	s.Add("name", song.Name)
	s.Add("author", song.Author)

	s = c.AddSection("SPEED")
	s.Add("rpq", song.Speed)
	s.Add("tempo", song.Tempo)

	c.AddSection("TRACKS").Add("amount", len(song.Instruments))
	for i, inst := range song.Instruments {
		encodeTrack(c.AddSection(fmt.Sprintf("TRACK %d INFO", i)), inst)
	}

	encodeOrders(c.AddSection("ORDER LIST"), song.OrderList)

	c.AddSection("PATTERNS").Add("amount", len(song.Patterns))
	for p, pm := range song.Patterns {
		encodePattern(c.AddSection(fmt.Sprintf("PATTERN %d DATA", p)), song, p, pm)
	}

	c.AddSection("DEVICES").Add("amount", 1)

	devices, err := e.devices()
	if err != nil {
		return nil, fmt.Errorf("loading device table: %w", err)
	}
	c.Merge(devices)

	return c, nil
}

func encodeTrack(s *props.Section, inst converter.Instrument) {
	s.Add("default_volume", inst.DefaultVolume)
	s.Add("global_volume", inst.GlobalVolume)
	s.Add("midi_bank", inst.Bank)
	s.Add("midi_channel", inst.Channel)
	s.Add("midi_device", inst.Device)
	s.Add("midi_patch", inst.Patch)
	s.Add("midi_pitch_bend_sensitivity", inst.PitchBendSensitivity)
	s.Add("name", inst.Name)
	s.Add("width", inst.TrackWidth)
	for _, p := range trackDefaults {
		s.Add(p.Name, p.Value)
	}
}

func encodeOrders(s *props.Section, orders []int) {
	if len(orders) > MaxOrders {
		orders = orders[:MaxOrders]
	}
	s.Add("max_order", len(orders))
	// NoPattern is written as is: -1.
	for k, o := range orders {
		s.Add(fmt.Sprintf("order_%d", k), o)
	}
}

// encodePattern writes every non-empty event of pattern p. Columns are
// numbered across all instruments in instrument order.
func encodePattern(s *props.Section, song *converter.Song, p int, pm converter.PatternMetrics) {
	s.Add("length", pm.Length)
	s.Add("hl_major", pm.HighlightMajor)
	s.Add("hl_minor", pm.HighlightMinor)

	column := 0
	count := 0
	for i := range song.Instruments {
		for _, rows := range song.Rows[i][p] {
			for r, row := range rows {
				if row.IsEmpty() {
					continue
				}
				s.Add(fmt.Sprintf("note_%d", count), EncodeEvent(row, column, r))
				count++
			}
			column++
		}
	}
	s.Add("note_count", count)
}

// EncodeEvent renders one event as the sixteen letter byte-text string the
// 0.4 pattern data uses: note, vol, command, parameter, controller set,
// controller value, column and row. Column and row wrap at 256.
func EncodeEvent(row converter.Row, column, rowIndex int) string {
	buf := make([]byte, 0, 16)
	buf = appendByteText(buf,
		noteByte(row.Note),
		sentinelByte(row.Vol, volClearByte),
		sentinelByte(row.Command, commandClearByte),
		row.Parameter,
		sentinelByte(row.ControllerSet, controllerSetNone),
		row.ControllerValue,
		uint8(column),
		uint8(rowIndex),
	)
	return string(buf)
}

func noteByte(v converter.Value) uint8 {
	switch v {
	case converter.Off:
		return noteOffByte
	case converter.Clear:
		return noteClearByte
	}
	return uint8(v)
}

func sentinelByte(v converter.Value, clearByte uint8) uint8 {
	if v == converter.Clear {
		return clearByte
	}
	return uint8(v)
}
