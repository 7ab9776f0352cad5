package formats

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/james-see/shaketool/pkg/binio"
	"github.com/james-see/shaketool/pkg/converter"
)

func TestSHT2Name(t *testing.T) {
	if got := NewSHT2().Name(); got != "ShakeTracker 0.2 song" {
		t.Errorf("Name() = %q", got)
	}
}

func TestSHT2DecodeMinimal(t *testing.T) {
	song, err := NewSHT2().Decode(bytes.NewReader(minimalSong().build()))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if song.Tempo != 150 || song.Speed != 4 {
		t.Errorf("tempo/speed = %d/%d, want 150/4", song.Tempo, song.Speed)
	}
	if song.Name != "" || song.Author != "" {
		t.Errorf("name/author = %q/%q, want empty", song.Name, song.Author)
	}
	if len(song.OrderList) != 1 || song.OrderList[0] != 0 {
		t.Errorf("OrderList = %v, want [0]", song.OrderList)
	}
	if len(song.Rows) != 1 || len(song.Rows[0]) != 1 || len(song.Rows[0][0]) != 1 {
		t.Fatalf("unexpected row shape")
	}

	col := song.Rows[0][0][0]
	if len(col) != 2 {
		t.Fatalf("got %d rows, want 2", len(col))
	}
	for i, row := range col {
		if row.Note != 59 || row.Vol != 40 {
			t.Errorf("row %d = %+v, want note 59 vol 40", i, row)
		}
	}
	if err := song.Validate(); err != nil {
		t.Errorf("decoded song does not validate: %v", err)
	}
}

func TestSHT2DecodeHeaderFields(t *testing.T) {
	f := songFixture{
		author:   "someone",
		name:     "a tune",
		tempo:    125,
		speed:    6,
		patterns: [][3]uint16{{0, 4, 16}, {0, 3, 12}},
		orders:   []uint16{4, 5, 6, 0},
		instruments: []instrumentFixture{{
			name:     "Lead",
			settings: [11]uint8{2, 1, 81, 9, 12, 0xEE, 50, 60, 0xEE, 0xEE, 0xEE},
			width:    0,
			patterns: [][]byte{nil, nil},
		}},
	}

	song, err := NewSHT2().Decode(bytes.NewReader(f.build()))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if song.Author != "someone" || song.Name != "a tune" {
		t.Errorf("author/name = %q/%q", song.Author, song.Name)
	}

	// the stored order is length, minor, major
	want := []converter.PatternMetrics{
		{Length: 0, HighlightMajor: 16, HighlightMinor: 4},
		{Length: 0, HighlightMajor: 12, HighlightMinor: 3},
	}
	for i, pm := range want {
		if song.Patterns[i] != pm {
			t.Errorf("pattern %d = %+v, want %+v", i, song.Patterns[i], pm)
		}
	}

	wantOrders := []int{converter.NoPattern, 0, 1, converter.NoPattern}
	for i, o := range wantOrders {
		if song.OrderList[i] != o {
			t.Errorf("order %d = %d, want %d", i, song.OrderList[i], o)
		}
	}

	inst := song.Instruments[0]
	wantInst := converter.Instrument{
		Name: "Lead", Device: 2, Bank: 1, Patch: 81, Channel: 9,
		PitchBendSensitivity: 12, DefaultVolume: 50, GlobalVolume: 60,
	}
	if inst != wantInst {
		t.Errorf("instrument = %+v, want %+v", inst, wantInst)
	}
}

func TestOrderIndex(t *testing.T) {
	tests := []struct {
		in   uint16
		want int
	}{
		{0, converter.NoPattern},
		{4, converter.NoPattern},
		{5, 0},
		{6, 1},
		{105, 100},
	}
	for _, tt := range tests {
		if got := orderIndex(tt.in); got != tt.want {
			t.Errorf("orderIndex(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSHT2DecodeErrors(t *testing.T) {
	valid := minimalSong().build()

	badLength := minimalSong()
	badLength.instruments[0].patterns[0] = nil
	badLengthData := badLength.build()

	tests := []struct {
		name  string
		data  []byte
		check func(error) bool
	}{
		{
			name: "bad signature",
			data: append([]byte("SHKT-SANG\x00"), valid[10:]...),
			check: func(err error) bool {
				var se *binio.SignatureError
				return errors.As(err, &se) && se.Want == SHT2Signature
			},
		},
		{
			name: "unterminated signature",
			data: append([]byte("SHKT-SONGX"), valid[10:]...),
			check: func(err error) bool {
				var se *binio.SignatureError
				return errors.As(err, &se)
			},
		},
		{
			name: "truncated header",
			data: valid[:14],
			check: func(err error) bool {
				var te *binio.TruncatedReadError
				return errors.As(err, &te)
			},
		},
		{
			name: "truncated reserved block",
			data: valid[:len(valid)-100],
			check: func(err error) bool {
				var te *binio.TruncatedReadError
				return errors.As(err, &te)
			},
		},
		{
			name: "missing pattern data",
			data: badLengthData,
			check: func(err error) bool {
				var te *binio.TruncatedReadError
				return errors.As(err, &te)
			},
		},
		{
			name: "declared length disagrees",
			data: withWrongLength(valid),
			check: func(err error) bool {
				var lm *LengthMismatchError
				return errors.As(err, &lm) && lm.Declared == 5 && lm.Consumed == 4
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSHT2().Decode(bytes.NewReader(tt.data))
			if err == nil {
				t.Fatal("Decode() should fail")
			}
			if !tt.check(err) {
				t.Errorf("Decode() error = %v (%T)", err, err)
			}
		})
	}
}

// withWrongLength bumps the declared length word of the last pattern block
// in a minimal song by one.
func withWrongLength(data []byte) []byte {
	out := append([]byte(nil), data...)
	// last block: 4 byte length + 4 frame bytes, little endian
	out[len(out)-8]++
	return out
}

func TestSHT2DecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.sng")
	if err := os.WriteFile(path, minimalSong().build(), 0644); err != nil {
		t.Fatal(err)
	}
	song, err := NewSHT2().DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile() error = %v", err)
	}
	if len(song.Instruments) != 1 {
		t.Errorf("got %d instruments, want 1", len(song.Instruments))
	}

	if _, err := NewSHT2().DecodeFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("DecodeFile() should fail for a missing file")
	}
}

// hugeGrid declares patterns of 255 columns by 65535 rows and fills each with
// a handful of maximal repeat frames.
func hugeGrid(patterns int) songFixture {
	frames := bytes.Repeat([]byte{fieldRepeat, 0xFF, 0xFF}, 255)
	f := songFixture{tempo: 120, speed: 4, orders: []uint16{5}}
	inst := instrumentFixture{name: "wide", width: 255}
	for p := 0; p < patterns; p++ {
		f.patterns = append(f.patterns, [3]uint16{65535, 4, 16})
		inst.patterns = append(inst.patterns, frames)
	}
	f.instruments = []instrumentFixture{inst}
	return f
}

func TestSHT2DecodeCellLimit(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		limit int
		cells int // 0 when decoding succeeds
	}{
		{"minimal song at the limit", minimalSong().build(), 2, 0},
		{"minimal song over the limit", minimalSong().build(), 1, 2},
		{"unlimited", minimalSong().build(), 0, 0},
		{"huge grid", hugeGrid(3).build(), 1 << 20, 255 * 65535},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&SHT2{MaxCells: tt.limit}).Decode(bytes.NewReader(tt.data))
			if tt.cells == 0 {
				if err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				return
			}
			var gte *GridTooLargeError
			if !errors.As(err, &gte) {
				t.Fatalf("Decode() error = %v, want GridTooLargeError", err)
			}
			if gte.Cells != tt.cells || gte.Limit != tt.limit {
				t.Errorf("GridTooLargeError = %+v, want cells %d limit %d", gte, tt.cells, tt.limit)
			}
		})
	}
}

func TestSignaturesAreSniffed(t *testing.T) {
	if got := converter.DetectFormat([]byte(SHT2Signature + "\x00")); got != converter.FormatV2 {
		t.Errorf("DetectFormat(SHT2Signature) = %s, want v2", got)
	}
	if got := converter.DetectFormat(minimalSong().build()); got != converter.FormatV2 {
		t.Errorf("DetectFormat(built song) = %s, want v2", got)
	}

	var buf bytes.Buffer
	w := binio.NewWriter(&buf)
	w.PascalString(SHT4Header)
	w.Uint32LE(0)
	if got := converter.DetectFormat(buf.Bytes()); got != converter.FormatV4 {
		t.Errorf("DetectFormat(SHT4Header) = %s, want v4", got)
	}
}
