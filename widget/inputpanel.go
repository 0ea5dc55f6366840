package widget

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const defaultPlaceholder = "Type your message..."

// InputPanel provides the single-line message input.
type InputPanel struct {
	input         textinput.Model
	width, height int
}

// NewInputPanel creates an input panel with the given prompt.
func NewInputPanel(prompt string) *InputPanel {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = defaultPlaceholder
	ti.Focus()
	return &InputPanel{input: ti}
}

func (p *InputPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			return p, p.submit()
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *InputPanel) submit() tea.Cmd {
	text := p.input.Value()
	if text == "" {
		return nil
	}
	p.input.Reset()
	return func() tea.Msg { return InputSubmitMsg{Text: text} }
}

// Value returns the current input text.
func (p *InputPanel) Value() string { return p.input.Value() }

// SetValue replaces the input text.
func (p *InputPanel) SetValue(s string) { p.input.SetValue(s) }

// SetHint shows hint as the placeholder, or the default when empty.
func (p *InputPanel) SetHint(hint string) {
	if hint == "" {
		hint = defaultPlaceholder
	}
	p.input.Placeholder = hint
}

// Hint returns the placeholder text.
func (p *InputPanel) Hint() string { return p.input.Placeholder }

// Focus gives the input keyboard focus.
func (p *InputPanel) Focus() tea.Cmd { return p.input.Focus() }

// Blur removes keyboard focus.
func (p *InputPanel) Blur() { p.input.Blur() }

// Focused reports whether the input has keyboard focus.
func (p *InputPanel) Focused() bool { return p.input.Focused() }

func (p *InputPanel) View() string {
	return p.input.View()
}

func (p *InputPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = width - len(p.input.Prompt) - 1
}
