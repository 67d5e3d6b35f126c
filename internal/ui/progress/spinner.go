package progress

import (
	"io"
	"sync"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/bsw/internal/ui/styles"
)

// status replaces the text next to the spinner.
type status string

// Spinner animates while an operation without a time limit (fsck, gc)
// runs, next to the latest line of its output.
type Spinner struct {
	live live

	mu   sync.Mutex
	last string
}

type spinnerModel struct {
	spin spinner.Model
	text string
	next tea.Cmd
}

func (m spinnerModel) Init() tea.Cmd { return tea.Batch(m.spin.Tick, m.next) }

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if s, ok := msg.(status); ok {
		m.text = string(s)
		return m, m.next
	}
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	return m, cmd
}

func (m spinnerModel) View() tea.View { return tea.NewView(m.line()) }

// line is the spinner frame followed by the text; empty without text.
func (m spinnerModel) line() string {
	if m.text == "" {
		return ""
	}
	return m.spin.View() + " " + m.text
}

// NewSpinnerTo creates a spinner drawing to out. It only draws when out is
// a terminal.
func NewSpinnerTo(out io.Writer, message string) *Spinner {
	return &Spinner{live: newLive(out), last: message}
}

// Start begins the animation.
func (s *Spinner) Start() {
	text := s.Message()

	s.live.start(func(next tea.Cmd) tea.Model {
		sp := spinner.New()
		sp.Spinner = spinner.Dot
		sp.Style = styles.PrimaryStyle
		return spinnerModel{spin: sp, text: text, next: next}
	})
}

// UpdateMessage replaces the text. Safe for concurrent use.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.last = message
	s.mu.Unlock()

	s.live.send(status(message))
}

// Message returns the most recent text.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Stop ends the animation and clears the line.
func (s *Spinner) Stop() { s.live.stop() }
