// Command tui is a terminal UI for the GQL parser: type a query, parse it and
// browse the highlighted source together with its tree or error.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	docopt "github.com/docopt/docopt-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"graphene/gql"
	"graphene/highlight"
)

const usage = `tui is a terminal UI for parsing GQL queries.

Usage:
  tui [--log=FILE --log-level=LEVEL]

Options:
  --log=FILE           Append logs to FILE instead of discarding them.
  --log-level=LEVEL    Logging level: trace, debug, info, warn, error [default: info]
`

type options struct {
	LogFile  string `docopt:"--log"`
	LogLevel string `docopt:"--log-level"`
}

// parseMsg is a Bubble Tea message carrying the outcome of one parse.
type parseMsg struct {
	queryID string
	source  string
	output  string
	err     error
}

// parseCmd parses input off the Update loop and reports the result back.
func parseCmd(input string, theme highlight.Theme) tea.Cmd {
	return func() tea.Msg {
		return parseInput(input, theme)
	}
}

func parseInput(input string, theme highlight.Theme) parseMsg {
	msg := parseMsg{
		queryID: uuid.New().String(),
		source:  highlight.Render(input, theme),
	}
	log := logrus.WithFields(logrus.Fields{
		"component": "TUI",
		"query_id":  msg.queryID,
	})
	q, err := gql.Parse(input)
	if err != nil {
		log.WithError(err).Warn("Failed to parse query")
		msg.err = err
		msg.output = gql.Annotate(input, err)
		return msg
	}
	log.WithField("statements", len(q.Statements)).Info("Query parsed")
	msg.output = gql.Dump(q)
	if msg.output == "" {
		msg.output = "No statements"
	}
	return msg
}

// key mappings for the TUI.
type keyMap struct {
	Quit  key.Binding
	Parse key.Binding
	Clear key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Parse: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "parse"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear input"),
		),
	}
}

// ShortHelp returns keybindings to show in the minimized help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Parse, k.Clear, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Parse, k.Clear},
		{k.Quit},
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	subtle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).TabWidth(lipgloss.NoTabConversion)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("44")).Bold(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

type model struct {
	input    textarea.Model
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	theme    highlight.Theme
	status   string
	parsed   int
	loading  bool
	err      error
	width    int
	height   int
}

func newModel() model {
	ta := textarea.New()
	ta.Placeholder = "Type GQL here, e.g. match (a:%Person)-(knows)->(b:%Person)"
	ta.Focus()
	ta.Prompt = "GQL> "
	ta.CharLimit = 0
	ta.FocusedStyle.CursorLine = ta.FocusedStyle.CursorLine.Background(lipgloss.Color("236"))
	ta.ShowLineNumbers = false

	vp := viewport.New(80, 20)
	vp.SetContent(subtle.Render("Parse results will appear here."))

	h := help.New()
	h.ShowAll = true

	return model{
		input:    ta,
		viewport: vp,
		help:     h,
		keys:     newKeyMap(),
		theme:    highlight.DefaultTheme(lipgloss.DefaultRenderer()),
		status:   "Ready",
	}
}

// Init satisfies the tea.Model interface.
func (m model) Init() tea.Cmd {
	return textarea.Blink
}

// Update satisfies the tea.Model interface.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Parse):
			m.loading = true
			m.status = "Parsing..."
			m.err = nil
			return m, parseCmd(m.input.Value(), m.theme)
		case key.Matches(msg, m.keys.Clear):
			m.input.Reset()
			return m, nil
		}
	case parseMsg:
		m.loading = false
		m.parsed++
		m.err = msg.err
		content := msg.source + "\n\n"
		if msg.err != nil {
			m.status = fmt.Sprintf("Query %d failed", m.parsed)
			content += renderLines(errorStyle, msg.output)
		} else {
			m.status = fmt.Sprintf("Query %d parsed", m.parsed)
			content += msg.output
		}
		m.viewport.SetContent(content)
		m.viewport.GotoTop()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// resize splits the terminal between the input box and the results, after
// reserving the lines used by titles, labels, status and help.
func (m *model) resize() {
	const chromeLines = 10
	const minInputHeight = 3
	const minResultsHeight = 3

	available := max(m.height-chromeLines, 1)
	var inputHeight, resultsHeight int
	if available <= minInputHeight+minResultsHeight {
		inputHeight = max(available/2, 1)
		resultsHeight = max(available-inputHeight, 1)
	} else {
		inputHeight = max(available/3, minInputHeight)
		resultsHeight = max(available-inputHeight, minResultsHeight)
	}

	m.input.SetWidth(m.width - 6)
	m.input.SetHeight(inputHeight)
	m.viewport.Width = m.width - 6
	m.viewport.Height = resultsHeight
}

// renderLines styles text one line at a time so the lines keep their own
// widths.
func renderLines(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = style.Render(line)
	}
	return strings.Join(lines, "\n")
}

// View draws the entire interface.
func (m model) View() string {
	title := titleStyle.Render("graphene") + " " + subtle.Render("GQL parser")

	status := m.status
	if m.loading {
		status += " (working...)"
	}
	statusLine := statusStyle.Render(status)
	if m.err != nil {
		statusLine += "  " + errorStyle.Render(m.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		"Query:",
		boxStyle.Render(m.input.View()),
		"",
		"Result:",
		boxStyle.Render(m.viewport.View()),
		"",
		statusLine,
		m.help.View(m.keys),
	)
}

func setupLogging(opts *options) (io.Closer, error) {
	level, err := logrus.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	logrus.SetLevel(level)
	if opts.LogFile == "" {
		logrus.SetOutput(io.Discard)
		return io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logrus.SetOutput(f)
	return f, nil
}

func main() {
	args, err := docopt.ParseDoc(usage)
	if err != nil {
		logrus.Fatalf("Error parsing command-line arguments: %v", err)
	}
	var opts options
	if err := args.Bind(&opts); err != nil {
		logrus.Fatalf("Error binding command-line arguments: %v", err)
	}
	closer, err := setupLogging(&opts)
	if err != nil {
		logrus.Fatal(err)
	}
	defer closer.Close()

	p := tea.NewProgram(newModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Println("Error running TUI:", err)
		os.Exit(1)
	}
}
