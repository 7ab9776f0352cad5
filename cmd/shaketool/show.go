package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/shaketool/pkg/converter/formats"
	"github.com/james-see/shaketool/pkg/props"
	"gopkg.in/yaml.v3"
)

var (
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFB000"))
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
)

// moduleDump is the serialised form of an inspected module.
type moduleDump struct {
	Header   string              `json:"header" yaml:"header"`
	Sections []props.SectionDump `json:"sections" yaml:"sections"`
}

func render(w io.Writer, c *props.Container, format string) error {
	dump := moduleDump{Header: c.Header, Sections: c.Dump()}

	switch format {
	case "text", "":
		return renderText(w, dump)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(dump); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dump)
	}
	return fmt.Errorf("unknown format %q (want text, yaml or json)", format)
}

func renderText(w io.Writer, dump moduleDump) error {
	if _, err := fmt.Fprintln(w, sectionStyle.Render(dump.Header)); err != nil {
		return err
	}
	for _, s := range dump.Sections {
		if _, err := fmt.Fprintf(w, "\n%s\n", sectionStyle.Render("["+s.Name+"]")); err != nil {
			return err
		}
		for _, p := range s.Properties {
			if _, err := fmt.Fprintf(w, "  %s = %s\n", keyStyle.Render(p.Name), p.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// printCodes lists the byte-text codes of the values that have a special
// meaning in 0.4 pattern data.
func printCodes(w io.Writer) {
	codes := []struct {
		label string
		b     uint8
	}{
		{"0", 0},
		{"64", 64},
		{"65", 65},
		{"CUT(253)", 253},
		{"OFF(254)", 254},
		{"CLEAR(255)", 255},
	}
	for _, c := range codes {
		code := formats.EncodeByte(c.b)
		fmt.Fprintf(w, "%s = %s\n", c.label, code[:])
	}
}
