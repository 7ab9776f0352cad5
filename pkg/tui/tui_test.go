package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/james-see/shaketool/pkg/converter"
	"github.com/james-see/shaketool/pkg/converter/formats"
	"github.com/james-see/shaketool/pkg/props"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMenuNavigation(t *testing.T) {
	m := New()
	next, _ := m.Update(key("j"))
	m = next.(Model)
	if m.menuIndex != 1 {
		t.Fatalf("menuIndex = %d, want 1", m.menuIndex)
	}
	next, _ = m.Update(key("k"))
	next, _ = next.(Model).Update(key("k"))
	if got := next.(Model).menuIndex; got != 0 {
		t.Errorf("menuIndex = %d, want 0", got)
	}

	next, cmd := m.Update(key("enter"))
	m = next.(Model)
	if m.state != StateFilePicker {
		t.Errorf("state = %v, want file picker", m.state)
	}
	if m.item.Action != ActionMIDI {
		t.Errorf("item = %q", m.item.Title)
	}
	if cmd == nil {
		t.Error("entering the file picker should start it")
	}

	next, _ = m.Update(key("esc"))
	if next.(Model).state != StateMenu {
		t.Error("esc should return to the menu")
	}
}

func TestResultAndReset(t *testing.T) {
	m := New()
	m.state = StateWorking
	next, _ := m.Update(doneMsg{err: errors.New("boom")})
	m = next.(Model)
	if m.state != StateResult || m.err == nil {
		t.Fatalf("state = %v err = %v", m.state, m.err)
	}
	if !strings.Contains(m.View(), "boom") {
		t.Error("view should show the error")
	}

	next, _ = m.Update(key("enter"))
	m = next.(Model)
	if m.state != StateMenu || m.err != nil {
		t.Errorf("result not reset: state = %v err = %v", m.state, m.err)
	}
}

func writeModule(t *testing.T, path string) {
	t.Helper()
	c, err := formats.NewSHT4().Encode(&converter.Song{Name: "x"})
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := c.WriteTo(f); err != nil {
		t.Fatal(err)
	}
}

func TestRunInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mod.sng")
	writeModule(t, path)

	msg := run(ActionInspect, path)().(doneMsg)
	if msg.err != nil {
		t.Fatalf("inspect error = %v", msg.err)
	}
	if len(msg.summary) == 0 || !strings.HasPrefix(msg.summary[0], "DEVICE 0 INFO") {
		t.Errorf("summary = %q", msg.summary)
	}
}

func TestRunRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "song.sng")
	if err := os.WriteFile(in, []byte("SHKT-SONG\x00"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "song_v4.sng"), []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}

	msg := run(ActionConvert, in)().(doneMsg)
	if !errors.Is(msg.err, converter.ErrOutputExists) {
		t.Errorf("convert error = %v, want ErrOutputExists", msg.err)
	}

	msg = run(ActionMIDI, in)().(doneMsg)
	if msg.err == nil || errors.Is(msg.err, converter.ErrOutputExists) {
		t.Errorf("midi export of a truncated song error = %v", msg.err)
	}
	if _, err := os.Stat(filepath.Join(dir, "song.mid")); !os.IsNotExist(err) {
		t.Error("failed export left an output file")
	}
}

func TestSummarize(t *testing.T) {
	lines := summarize([]props.SectionDump{
		{Name: "A", Properties: []props.Property{{Name: "x", Value: "1"}}},
		{Name: "B", Properties: []props.Property{{Name: "y", Value: "2"}, {Name: "z", Value: "3"}}},
	})
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if !strings.Contains(lines[2], "2 sections, 3 properties") {
		t.Errorf("total line = %q", lines[2])
	}
}
