package progress

import (
	"fmt"
	"io"
	"sync"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/bsw/internal/ui/styles"
)

// barWidth is the width of the bar itself, excluding the counter.
const barWidth = 30

// tick reports one more finished repository.
type tick struct {
	done int
	name string
}

// ProgressBar counts finished repositories of a batch:
//
//	████████░░░░░░░░ 3/8 game-client
type ProgressBar struct {
	live live

	mu    sync.Mutex
	total int
	done  int
	last  string
}

type barModel struct {
	bar   progress.Model
	total int
	tick  tick
	next  tea.Cmd
}

func (m barModel) Init() tea.Cmd { return m.next }

func (m barModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if t, ok := msg.(tick); ok {
		m.tick = t
		return m, m.next
	}
	var cmd tea.Cmd
	m.bar, cmd = m.bar.Update(msg)
	return m, cmd
}

func (m barModel) View() tea.View { return tea.NewView(m.render()) }

func (m barModel) render() string {
	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.tick.done) / float64(m.total)
	}
	return fmt.Sprintf("%s %d/%d %s", m.bar.ViewAs(ratio), m.tick.done, m.total, m.tick.name)
}

// NewProgressBarTo creates a progress bar for total items drawing to out.
// It only draws when out is a terminal.
func NewProgressBarTo(out io.Writer, total int, message string) *ProgressBar {
	return &ProgressBar{live: newLive(out), total: total, last: message}
}

// Start shows the bar.
func (p *ProgressBar) Start() {
	p.mu.Lock()
	initial := tick{done: p.done, name: p.last}
	p.mu.Unlock()

	p.live.start(func(next tea.Cmd) tea.Model {
		return barModel{
			bar: progress.New(
				progress.WithWidth(barWidth),
				progress.WithoutPercentage(),
				progress.WithColors(styles.Primary, styles.Accent),
			),
			total: p.total,
			tick:  initial,
			next:  next,
		}
	})
}

// Increment counts one finished item named name and returns the number
// finished so far. Safe for concurrent use.
func (p *ProgressBar) Increment(name string) int {
	p.mu.Lock()
	p.done++
	t := tick{done: p.done, name: name}
	p.last = name
	p.mu.Unlock()

	p.live.send(t)
	return t.done
}

// Stop removes the bar.
func (p *ProgressBar) Stop() { p.live.stop() }

// Total returns the number of items in the batch.
func (p *ProgressBar) Total() int { return p.total }
