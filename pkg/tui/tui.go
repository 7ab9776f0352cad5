// Package tui provides a terminal user interface for shaketool
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/shaketool/pkg/converter"
	"github.com/james-see/shaketool/pkg/converter/formats"
	"github.com/james-see/shaketool/pkg/props"
)

// Tracker palette: amber on black, like an old pattern editor
var (
	amber     = lipgloss.Color("#FFB000")
	paleAmber = lipgloss.Color("#FFE08A")
	dimGray   = lipgloss.Color("#8A8A8A")
	panelGray = lipgloss.Color("#262626")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(amber).
			Background(panelGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(dimGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(amber).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(paleAmber).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF3B30")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(amber).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(amber).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateWorking
	StateResult
)

// Action identifies what a menu entry does with the chosen file.
type Action int

const (
	ActionConvert Action = iota
	ActionMIDI
	ActionInspect
	ActionExit
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	Action      Action
	Extensions  []string
}

var menuItems = []MenuItem{
	{Title: "0.2 → 0.4", Description: "Convert a ShakeTracker 0.2 song to a 0.4 module", Action: ActionConvert, Extensions: []string{".sng", ".shk"}},
	{Title: "0.2 → MIDI", Description: "Render a ShakeTracker 0.2 song as a MIDI file", Action: ActionMIDI, Extensions: []string{".sng", ".shk"}},
	{Title: "Inspect 0.4", Description: "Summarise the sections of a 0.4 module", Action: ActionInspect, Extensions: []string{".sng", ".shk", ".stm"}},
	{Title: "Exit", Description: "Exit the application", Action: ActionExit},
}

// Model represents the TUI model
type Model struct {
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	selectedFile string
	outputFile   string
	summary      []string
	item         MenuItem
	err          error
	width        int
	height       int
}

// doneMsg signals that the selected action finished
type doneMsg struct {
	outputFile string
	summary    []string
	err        error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model
func New() Model {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(amber)

	return Model{
		state:      StateMenu,
		menuIndex:  0,
		filePicker: fp,
		spinner:    s,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The file picker needs every message while it is open.
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateWorking
			return m, tea.Batch(m.spinner.Tick, run(m.item.Action, path))
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case doneMsg:
		m.state = StateResult
		m.outputFile = msg.outputFile
		m.summary = msg.summary
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		m.item = menuItems[m.menuIndex]
		if m.item.Action == ActionExit {
			return m, tea.Quit
		}
		m.state = StateFilePicker
		m.filePicker.AllowedTypes = m.item.Extensions
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.selectedFile = ""
		m.outputFile = ""
		m.summary = nil
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// run performs action on path. Existing outputs are never overwritten from
// the TUI.
func run(action Action, path string) tea.Cmd {
	return func() tea.Msg {
		conv := converter.New(formats.NewSHT2(), formats.NewSHT4())
		base := strings.TrimSuffix(path, filepath.Ext(path))

		switch action {
		case ActionConvert:
			out := base + "_v4" + filepath.Ext(path)
			return doneMsg{outputFile: out, err: conv.ConvertFile(path, out, false)}
		case ActionMIDI:
			out := base + ".mid"
			return doneMsg{outputFile: out, err: conv.ExportMIDIFile(path, out, false)}
		case ActionInspect:
			c, err := conv.InspectFile(path)
			if err != nil {
				return doneMsg{err: err}
			}
			return doneMsg{summary: summarize(c.Dump())}
		}
		return doneMsg{err: fmt.Errorf("unknown action %d", action)}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateWorking:
		s.WriteString(m.viewWorking())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT ACTION "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(paleAmber).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" %s: SELECT FILE ", strings.ToUpper(m.item.Title))))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewWorking() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" WORKING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Reading %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render("  " + m.item.Title))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	switch {
	case m.err != nil:
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s failed: %s", m.item.Title, m.err.Error())))
	case m.summary != nil:
		s.WriteString(titleStyle.Render(" MODULE "))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("File: %s\n\n", filepath.Base(m.selectedFile)))
		s.WriteString(strings.Join(m.summary, "\n"))
	default:
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ Done!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:  %s\n", filepath.Base(m.selectedFile)))
		s.WriteString(fmt.Sprintf("Output: %s", filepath.Base(m.outputFile)))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

// summarize lists each section with its property count.
func summarize(sections []props.SectionDump) []string {
	total := 0
	lines := make([]string, 0, len(sections)+1)
	for _, sec := range sections {
		lines = append(lines, fmt.Sprintf("%-20s %4d", sec.Name, len(sec.Properties)))
		total += len(sec.Properties)
	}
	return append(lines, statusStyle.Render(fmt.Sprintf("%d sections, %d properties", len(sections), total)))
}

func asciiLogo() string {
	logo := `
     _           _        _              _
  __| |_  __ _| |_____ | |_ ___  ___  | |
 (_-< ' \/ _' | / / -_)|  _/ _ \/ _ \ | |
 /__/_||_\__,_|_\_\___| \__\___/\___/ |_|
`
	return lipgloss.NewStyle().Foreground(amber).Render(logo)
}

// Run starts the TUI application
func Run() error {
	p := tea.NewProgram(New(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
