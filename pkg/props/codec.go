package props

import (
	"fmt"
	"io"

	"github.com/james-see/shaketool/pkg/binio"
)

// Chunk discriminators.
const (
	ChunkSection  = 0
	ChunkVariable = 1
)

// StructuralError reports a chunk sequence that does not form a valid
// container.
type StructuralError struct {
	Offset int64
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("malformed container at offset %d: %s", e.Offset, e.Reason)
}

// Decode reads a container from r. When header is non-empty the stream must
// start with that length-prefixed tag. Reading stops cleanly when no further
// chunk discriminator is available; chunk bytes other than SECTION and
// VARIABLE are skipped.
func Decode(r io.Reader, header string) (*Container, error) {
	br := binio.NewReader(r)
	c := New(header)

	if header != "" {
		if err := br.ExpectPascalString(header); err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
	}

	var current *Section
	for {
		start := br.Offset()
		chunk, ok, err := br.TryByte()
		if err != nil {
			return nil, err
		}
		if !ok {
			return c, nil
		}

		switch chunk {
		case ChunkSection:
			name, err := br.PascalString()
			if err != nil {
				return nil, fmt.Errorf("section chunk at offset %d: %w", start, err)
			}
			current = c.AddSection(name)

		case ChunkVariable:
			if current == nil {
				return nil, &StructuralError{Offset: start, Reason: "variable chunk before any section"}
			}
			name, err := br.PascalString()
			if err != nil {
				return nil, fmt.Errorf("variable chunk at offset %d: %w", start, err)
			}
			value, err := br.PascalString()
			if err != nil {
				return nil, fmt.Errorf("variable %q at offset %d: %w", name, start, err)
			}
			current.Add(name, value)
		}
	}
}

// WriteTo serialises the container: the header tag if set, then each section
// chunk followed by its variable chunks, all in insertion order.
func (c *Container) WriteTo(w io.Writer) (int64, error) {
	bw := binio.NewWriter(w)

	if c.Header != "" {
		bw.PascalString(c.Header)
	}
	for _, s := range c.sections {
		bw.Byte(ChunkSection)
		bw.PascalString(s.name)
		for _, p := range s.props {
			bw.Byte(ChunkVariable)
			bw.PascalString(p.Name)
			bw.PascalString(p.Value)
		}
	}
	return bw.Count(), bw.Err()
}
