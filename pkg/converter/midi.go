package converter

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ErrSongTooLong is returned when a song does not fit the MIDI output.
var ErrSongTooLong = errors.New("song too long for MIDI export")

// MIDIConverter renders decoded songs as Standard MIDI Files
type MIDIConverter struct {
	ticksPerQuarter uint16

	// MaxCells bounds the rows rendered along the order list, summed over
	// every instrument column. Zero means no limit.
	MaxCells int
}

// NewMIDIConverter creates a new MIDI converter
func NewMIDIConverter() *MIDIConverter {
	return &MIDIConverter{
		ticksPerQuarter: 480,
	}
}

// timedEvent is a message at an absolute tick
type timedEvent struct {
	tick uint32
	msg  []byte
}

// GenerateMIDI creates a format 1 MIDI file from a Song: a conductor track
// followed by one track per instrument. The song is laid out along its order
// list, Speed giving the number of rows per quarter note.
func (m *MIDIConverter) GenerateMIDI(song *Song) ([]byte, error) {
	if song == nil {
		return nil, errors.New("nil song")
	}
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("invalid song: %w", err)
	}

	rowsPerQuarter := uint32(song.Speed)
	if rowsPerQuarter == 0 {
		rowsPerQuarter = 4
	}
	ticksPerRow := uint32(m.ticksPerQuarter) / rowsPerQuarter
	if ticksPerRow == 0 {
		ticksPerRow = 1
	}

	ticks, cells := songExtent(song, ticksPerRow)
	if ticks > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d ticks", ErrSongTooLong, ticks)
	}
	if m.MaxCells > 0 && cells > uint64(m.MaxCells) {
		return nil, fmt.Errorf("%w: %d rendered cells, limit is %d", ErrSongTooLong, cells, m.MaxCells)
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(m.ticksPerQuarter)

	if err := s.Add(m.conductorTrack(song)); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}
	for i := range song.Instruments {
		track := buildTrack(song.Instruments[i].Name, m.instrumentEvents(song, i, ticksPerRow))
		if err := s.Add(track); err != nil {
			return nil, fmt.Errorf("failed to add track %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

func (m *MIDIConverter) conductorTrack(song *Song) smf.Track {
	bpm := float64(song.Tempo)
	if bpm <= 0 {
		bpm = 120.0
	}

	var track smf.Track
	if msg := trackName(song.Name); msg != nil {
		track.Add(0, msg)
	}

	// Tempo meta event (FF 51 03 tt tt tt)
	microsecondsPerBeat := uint32(60000000.0 / bpm)
	track.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	}))

	// Time signature (4/4)
	track.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))

	track.Close(0)
	return track
}

// songExtent returns the length of song in ticks and the number of cells
// rendered when playing its order list.
func songExtent(song *Song, ticksPerRow uint32) (ticks, cells uint64) {
	width := 0
	for _, inst := range song.Instruments {
		width += inst.TrackWidth
	}
	for _, p := range song.OrderList {
		if p == NoPattern || p >= len(song.Patterns) {
			continue
		}
		rows := uint64(song.Patterns[p].Length)
		ticks += rows * uint64(ticksPerRow)
		cells += rows * uint64(width)
	}
	return ticks, cells
}

// instrumentEvents walks the order list row by row and collects the events
// of one instrument in tick order. Each column holds at most one sounding
// note. Columns sounding the same pitch share it: the note off is sent when
// the last of them lets go. GenerateMIDI has checked that every tick fits
// in 32 bits.
func (m *MIDIConverter) instrumentEvents(song *Song, i int, ticksPerRow uint32) []timedEvent {
	inst := song.Instruments[i]
	channel := inst.Channel & 0x0F

	events := []timedEvent{
		{0, midi.ControlChange(channel, 0, inst.Bank&0x7F)},
		{0, midi.ProgramChange(channel, inst.Patch&0x7F)},
	}

	sounding := make([]int, inst.TrackWidth)
	for c := range sounding {
		sounding[c] = -1
	}
	var holders [128]int
	release := func(tick uint32, c int) {
		note := sounding[c]
		if note < 0 {
			return
		}
		sounding[c] = -1
		if holders[note]--; holders[note] == 0 {
			events = append(events, timedEvent{tick, midi.NoteOff(channel, uint8(note))})
		}
	}

	var base uint32
	for _, p := range song.OrderList {
		if p == NoPattern || p >= len(song.Patterns) {
			continue
		}
		cols := song.Rows[i][p]
		for r := 0; r < song.Patterns[p].Length; r++ {
			tick := base + uint32(r)*ticksPerRow
			for c, rows := range cols {
				row := rows[r]

				if row.ControllerSet != Clear {
					events = append(events, timedEvent{tick,
						midi.ControlChange(channel, uint8(row.ControllerSet)&0x7F, row.ControllerValue&0x7F)})
				}

				switch {
				case row.Note == Off:
					release(tick, c)
				case row.Note >= 0 && row.Note <= 127:
					release(tick, c)
					events = append(events, timedEvent{tick,
						midi.NoteOn(channel, uint8(row.Note), velocity(row.Vol, inst.DefaultVolume))})
					sounding[c] = int(row.Note)
					holders[row.Note]++
				}
			}
		}
		base += uint32(song.Patterns[p].Length) * ticksPerRow
	}

	for c := range sounding {
		release(base, c)
	}
	return events
}

// velocity scales a 0-64 tracker volume to a MIDI velocity.
func velocity(vol Value, defaultVolume uint8) uint8 {
	v := int(defaultVolume)
	if vol != Clear {
		v = int(vol)
	}
	v = v * 127 / 64
	switch {
	case v < 1:
		v = 1
	case v > 127:
		v = 127
	}
	return uint8(v)
}

func buildTrack(name string, events []timedEvent) smf.Track {
	var track smf.Track
	if msg := trackName(name); msg != nil {
		track.Add(0, msg)
	}
	var last uint32
	for _, ev := range events {
		track.Add(ev.tick-last, ev.msg)
		last = ev.tick
	}
	track.Close(0)
	return track
}

// trackName builds a sequence/track name meta event (FF 03 len text).
func trackName(name string) smf.Message {
	if name == "" {
		return nil
	}
	if len(name) > 127 {
		name = name[:127]
	}
	return smf.Message(append([]byte{0xFF, 0x03, byte(len(name))}, name...))
}
