package widget

import (
	"bytes"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultMaxLogLines = 1000

var logLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // dim gray

// LogPanel displays log output in a scrollable viewport.
type LogPanel struct {
	viewport viewport.Model
	lines    []string
	maxLines int
}

// NewLogPanel creates a log panel.
func NewLogPanel() *LogPanel {
	vp := viewport.New(0, 0)
	vp.SetContent("")
	return &LogPanel{
		viewport: vp,
		maxLines: defaultMaxLogLines,
	}
}

func (p *LogPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case LogLineMsg:
		line := strings.TrimRight(msg.Line, "\n")
		p.lines = append(p.lines, logLineStyle.Render(line))
		if len(p.lines) > p.maxLines {
			p.lines = p.lines[len(p.lines)-p.maxLines:]
		}
		p.viewport.SetContent(strings.Join(p.lines, "\n"))
		p.viewport.GotoBottom()
		return p, nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

// Len returns the number of buffered lines.
func (p *LogPanel) Len() int { return len(p.lines) }

func (p *LogPanel) View() string {
	return p.viewport.View()
}

func (p *LogPanel) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height
}

// sender is the part of *tea.Program the log writer needs.
type sender interface {
	Send(tea.Msg)
}

const logBufferSize = 256

// logWriter implements io.Writer and sends each written line as a LogLineMsg
// to the TUI. Lines are queued so that logging from inside the update loop
// never blocks on the program; when the queue is full lines are dropped.
type logWriter struct {
	mu     sync.Mutex
	lines  chan string
	closed bool
}

func newLogWriter(program sender) *logWriter {
	w := &logWriter{lines: make(chan string, logBufferSize)}
	go func() {
		for line := range w.lines {
			program.Send(LogLineMsg{Line: line})
		}
	}()
	return w
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return len(p), nil
	}
	// Split on newlines in case a single write contains multiple lines.
	for _, line := range bytes.Split(p, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		select {
		case w.lines <- string(line):
		default:
		}
	}
	return len(p), nil
}

// Close stops forwarding. Later writes are discarded.
func (w *logWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	return nil
}
