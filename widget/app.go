package widget

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linanwx/policychat/controls"
	"github.com/linanwx/policychat/logger"
	"github.com/linanwx/policychat/pipeline"
)

const (
	defaultLogRatio = 0.3
	defaultTitle    = "MPC Policy Assistant"
	inputPrompt     = "you> "
)

var (
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("63")).Padding(0, 1)
	launcherStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("63")).Padding(0, 2)
	chipStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Border(lipgloss.RoundedBorder(), false, true).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	chipKeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type focusTarget int

const (
	focusInput focusTarget = iota
	focusControl
)

// Options configures the widget chrome.
type Options struct {
	Title       string
	Suggestions []string
	Open        bool // start with the chat visible instead of the launcher
	ShowLogs    bool
}

// App is the root bubbletea model. It toggles between the launcher line and
// the chat view and routes input between the message line and the mounted
// control.
type App struct {
	pipe *pipeline.Pipeline
	opts Options
	keys keyMap
	help help.Model

	logPanel   *LogPanel
	chatPanel  *ChatPanel
	inputPanel *InputPanel

	open     bool
	showLogs bool
	focus    focusTarget
	mounted  controls.ID // last control that received focus

	width, height int
	logRatio      float64
}

// New creates the widget around pipe.
func New(pipe *pipeline.Pipeline, opts Options) *App {
	if opts.Title == "" {
		opts.Title = defaultTitle
	}
	return &App{
		pipe:       pipe,
		opts:       opts,
		keys:       newKeyMap(opts.Suggestions),
		help:       help.New(),
		logPanel:   NewLogPanel(),
		chatPanel:  NewChatPanel(),
		inputPanel: NewInputPanel(inputPrompt),
		open:       opts.Open,
		showLogs:   opts.ShowLogs,
		logRatio:   defaultLogRatio,
	}
}

// Pipeline returns the conversation the widget renders.
func (m *App) Pipeline() *pipeline.Pipeline { return m.pipe }

// IsOpen reports whether the chat view is shown instead of the launcher.
func (m *App) IsOpen() bool { return m.open }

// Open shows the chat view and hides the launcher.
func (m *App) Open() {
	if !m.open {
		logger.Debug("widget opened")
	}
	m.open = true
}

// Close hides the chat view and shows the launcher.
func (m *App) Close() {
	if m.open {
		logger.Debug("widget closed")
	}
	m.open = false
}

// ControlFocused reports whether keys go to the mounted control.
func (m *App) ControlFocused() bool {
	return m.focus == focusControl && m.pipe.Control() != nil
}

// Input returns the text in the message line.
func (m *App) Input() string { return m.inputPanel.Value() }

// Hint returns the placeholder of the message line.
func (m *App) Hint() string { return m.inputPanel.Hint() }

// Reset clears the conversation and reveals the welcome message again.
func (m *App) Reset() tea.Cmd {
	m.inputPanel.SetValue("")
	cmd := m.pipe.Reset()
	return tea.Batch(cmd, m.sync())
}

// Suggest puts suggestion i into the message line and submits it.
func (m *App) Suggest(i int) tea.Cmd {
	if i < 0 || i >= len(m.opts.Suggestions) {
		return nil
	}
	m.inputPanel.SetValue(m.opts.Suggestions[i])
	text := m.inputPanel.Value()
	m.inputPanel.SetValue("")
	return m.Submit(text)
}

// Submit sends text as the user's next message.
func (m *App) Submit(text string) tea.Cmd {
	cmd := m.pipe.Submit(text)
	return tea.Batch(cmd, m.sync())
}

func (m *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.pipe.Greet())
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case tea.MouseMsg:
		p, cmd := m.chatPanel.Update(msg)
		m.chatPanel = p.(*ChatPanel)
		cmds = append(cmds, cmd)

	case InputSubmitMsg:
		if isExit(msg.Text) {
			return m, tea.Quit
		}
		cmds = append(cmds, m.Submit(msg.Text))

	case LogLineMsg:
		p, cmd := m.logPanel.Update(msg)
		m.logPanel = p.(*LogPanel)
		cmds = append(cmds, cmd)

	default:
		// Pipeline traffic: replies, reveal ticks, control results and
		// whatever the mounted control is waiting for. Cursor blinks reach
		// the input panel.
		cmds = append(cmds, m.pipe.Update(msg))
		p, cmd := m.inputPanel.Update(msg)
		m.inputPanel = p.(*InputPanel)
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, m.sync())
	return m, tea.Batch(cmds...)
}

func (m *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		if m.open {
			m.Close()
		} else {
			m.Open()
		}
		return nil
	}

	if !m.open {
		if msg.Type == tea.KeyEnter {
			m.Open()
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Reset):
		return m.Reset()
	case key.Matches(msg, m.keys.Logs):
		m.showLogs = !m.showLogs
		m.recalcLayout()
		return nil
	case key.Matches(msg, m.keys.Focus):
		if m.pipe.Control() == nil {
			return nil
		}
		if m.focus == focusControl {
			m.focus = focusInput
			return m.inputPanel.Focus()
		}
		m.focus = focusControl
		m.inputPanel.Blur()
		return nil
	case key.Matches(msg, m.keys.Scroll):
		p, cmd := m.chatPanel.Update(msg)
		m.chatPanel = p.(*ChatPanel)
		return cmd
	}
	for i, b := range m.keys.Suggest {
		if key.Matches(msg, b) {
			return m.Suggest(i)
		}
	}

	if m.ControlFocused() {
		return m.pipe.Update(msg)
	}
	p, cmd := m.inputPanel.Update(msg)
	m.inputPanel = p.(*InputPanel)
	return cmd
}

// sync mirrors pipeline state into the panels: the transcript, the
// free-text hint and the focus of a newly mounted control.
func (m *App) sync() tea.Cmd {
	var cmd tea.Cmd
	ctl := m.pipe.Control()
	switch {
	case ctl == nil:
		if m.focus == focusControl {
			m.focus = focusInput
			cmd = m.inputPanel.Focus()
		}
	case ctl.ID() != m.mounted:
		m.mounted = ctl.ID()
		m.focus = focusControl
		m.inputPanel.Blur()
	}
	m.inputPanel.SetHint(m.pipe.Prompt())
	m.chatPanel.SetMessages(m.pipe.Transcript().Messages())
	m.recalcLayout()
	return cmd
}

func (m *App) View() string {
	if !m.open {
		return launcherStyle.Render("💬 "+m.opts.Title) + "  " + chipKeyStyle.Render("enter or ctrl+o to open • ctrl+c quit")
	}
	if m.width == 0 || m.height == 0 {
		return "initializing..."
	}

	sep := separatorStyle.Render(strings.Repeat("─", m.width))
	parts := []string{m.header()}
	if m.showLogs {
		parts = append(parts, m.logPanel.View(), sep)
	}
	parts = append(parts, m.chatPanel.View())
	if ctl := m.pipe.Control(); ctl != nil {
		parts = append(parts, ctl.View())
	}
	parts = append(parts, sep)
	if s := m.suggestionsView(); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, m.inputPanel.View(), m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *App) header() string {
	return headerStyle.Render("🤖 " + m.opts.Title)
}

func (m *App) suggestionsView() string {
	if len(m.keys.Suggest) == 0 {
		return ""
	}
	chips := make([]string, 0, len(m.keys.Suggest))
	for _, b := range m.keys.Suggest {
		h := b.Help()
		chips = append(chips, chipKeyStyle.Render(h.Key)+" "+chipStyle.Render(h.Desc))
	}
	return strings.Join(chips, "  ")
}

func (m *App) recalcLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.help.Width = m.width
	m.pipe.SetWidth(m.width)

	fixed := lipgloss.Height(m.header()) + 1 + 1 + 1 // header, separator, input, help
	if s := m.suggestionsView(); s != "" {
		fixed += lipgloss.Height(s)
	}
	if ctl := m.pipe.Control(); ctl != nil {
		fixed += lipgloss.Height(ctl.View())
	}
	usable := max(m.height-fixed, 2)

	chatH := usable
	if m.showLogs {
		logH := max(int(float64(usable)*m.logRatio), 1)
		chatH = max(usable-logH-1, 1)
		m.logPanel.SetSize(m.width, logH)
	}
	m.chatPanel.SetSize(m.width, chatH)
	m.inputPanel.SetSize(m.width, 1)
}

func isExit(text string) bool {
	switch strings.TrimSpace(text) {
	case "exit", "quit", "/exit", "/quit":
		return true
	}
	return false
}
