package converter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/james-see/shaketool/pkg/props"
)

// Format represents a file format
type Format string

const (
	FormatV2      Format = "v2"
	FormatV4      Format = "v4"
	FormatMIDI    Format = "midi"
	FormatUnknown Format = "unknown"
)

// Signatures used for content sniffing. The format handlers define their
// own constants from these.
const (
	SourceSignature = "SHKT-SONG"
	TargetHeader    = "ShakeTracker Module"
)

// ErrOutputExists is returned by ConvertFile when the destination exists and
// overwriting was not requested. Nothing is written in that case.
var ErrOutputExists = errors.New("output file already exists")

// DetectFormat detects the format of file content
func DetectFormat(data []byte) Format {
	switch {
	case len(data) >= len(SourceSignature)+1 && string(data[:len(SourceSignature)]) == SourceSignature:
		return FormatV2
	case len(data) >= len(TargetHeader)+1 && int(data[0]) == len(TargetHeader) && string(data[1:1+len(TargetHeader)]) == TargetHeader:
		return FormatV4
	case len(data) >= 4 && string(data[:4]) == "MThd":
		return FormatMIDI
	}
	return FormatUnknown
}

// Decode parses a source song.
func (c *Converter) Decode(r io.Reader) (*Song, error) {
	song, err := c.decoder.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", c.decoder.Name(), err)
	}
	return song, nil
}

// Convert reads a complete source song from r and writes the target module
// to w. Nothing is written unless decoding and encoding both succeed.
func (c *Converter) Convert(r io.Reader, w io.Writer) error {
	song, err := c.Decode(r)
	if err != nil {
		return err
	}
	container, err := c.encoder.Encode(song)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", c.encoder.Name(), err)
	}
	if _, err := container.WriteTo(w); err != nil {
		return fmt.Errorf("writing %s: %w", c.encoder.Name(), err)
	}
	return nil
}

// ConvertBytes converts an in-memory source song.
func (c *Converter) ConvertBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Convert(bytes.NewReader(data), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ConvertFile converts inputPath to outputPath. If outputPath exists and
// overwrite is false it returns ErrOutputExists without touching it. The
// output is written to a temporary file next to outputPath and renamed into
// place once complete.
func (c *Converter) ConvertFile(inputPath, outputPath string, overwrite bool) error {
	return c.renderFile(inputPath, outputPath, overwrite, func(r io.Reader) ([]byte, error) {
		var buf bytes.Buffer
		if err := c.Convert(r, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}

// ExportMIDIFile renders the source song at inputPath as a Standard MIDI File
// at outputPath, with the same overwrite rules as ConvertFile.
func (c *Converter) ExportMIDIFile(inputPath, outputPath string, overwrite bool) error {
	return c.renderFile(inputPath, outputPath, overwrite, c.SongToMIDI)
}

func (c *Converter) renderFile(inputPath, outputPath string, overwrite bool, render func(io.Reader) ([]byte, error)) error {
	if !overwrite {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("%s: %w", outputPath, ErrOutputExists)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check output file: %w", err)
		}
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	defer func() { _ = in.Close() }()

	data, err := render(in)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if err := writeFileAtomic(outputPath, data); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to a temporary file in the directory of path
// and renames it over path.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Chmod(0644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Inspect reads a target module and returns its sections and properties
// sorted by name.
func (c *Converter) Inspect(r io.Reader) (*props.Container, error) {
	container, err := props.Decode(r, c.encoder.Header())
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", c.encoder.Name(), err)
	}
	return container.Sorted(), nil
}

// InspectFile is Inspect on the file at path.
func (c *Converter) InspectFile(path string) (*props.Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return c.Inspect(f)
}

// SongToMIDI decodes a source song and renders it as a Standard MIDI File.
func (c *Converter) SongToMIDI(r io.Reader) ([]byte, error) {
	song, err := c.Decode(r)
	if err != nil {
		return nil, err
	}
	return c.midi.GenerateMIDI(song)
}

// GetSupportedConversions returns a list of supported conversion paths
func GetSupportedConversions() []string {
	return []string{
		"v2 -> v4",
		"v2 -> midi",
		"v4 -> inspect",
	}
}
