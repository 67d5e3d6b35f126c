package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
)

// stopGrace bounds how long stop waits for the program to exit.
const stopGrace = 500 * time.Millisecond

// live runs one bubbletea program on a terminal and feeds it messages from
// the caller's goroutines. On anything but a terminal it stays inert, so
// callers never branch on the output kind.
type live struct {
	out     io.Writer
	enabled bool

	mu      sync.Mutex
	running bool
	program *tea.Program
	msgs    chan tea.Msg
	done    chan struct{}
}

func newLive(out io.Writer) live {
	return live{out: out, enabled: IsTerminal(out)}
}

// start launches model. A no-op when disabled or already running.
func (l *live) start(model func(next tea.Cmd) tea.Model) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running || !l.enabled {
		return
	}

	l.msgs = make(chan tea.Msg, 16)
	l.done = make(chan struct{})
	l.program = tea.NewProgram(model(l.next()), programOptions(l.out)...)
	l.running = true

	go func(p *tea.Program, done chan struct{}) {
		_, _ = p.Run()
		close(done)
	}(l.program, l.done)
}

// next returns a command delivering the following message, or quitting
// once the channel is closed. Models re-issue it after each delivery.
func (l *live) next() tea.Cmd {
	msgs := l.msgs
	return func() tea.Msg {
		msg, ok := <-msgs
		if !ok {
			return tea.Quit()
		}
		return msg
	}
}

// send delivers msg when running. A full buffer drops msg; the worker
// calling send must never wait on rendering.
func (l *live) send(msg tea.Msg) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return
	}
	select {
	case l.msgs <- msg:
	default:
	}
}

// stop ends the program and clears its line.
func (l *live) stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	close(l.msgs)
	p, done := l.program, l.done
	l.mu.Unlock()

	p.Quit()
	select {
	case <-done:
	case <-time.After(stopGrace):
	}
	fmt.Fprint(l.out, "\r\033[K")
}
