package widget

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linanwx/policychat/transcript"
)

const (
	botMarker    = "🤖 "
	typingMarker = "…"
)

var (
	userMsgStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")) // cyan
	botMsgStyle  = lipgloss.NewStyle()
	typingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// ChatPanel displays the transcript in a scrollable viewport.
type ChatPanel struct {
	viewport viewport.Model
	messages []transcript.Message
	content  string
	width    int
}

// NewChatPanel creates a chat panel.
func NewChatPanel() *ChatPanel {
	vp := viewport.New(0, 0)
	vp.SetContent("")
	return &ChatPanel{viewport: vp}
}

// SetMessages replaces the rendered transcript. Any change, including each
// reveal frame of a reply, scrolls to the bottom; an unchanged transcript
// keeps the user's scroll position.
func (p *ChatPanel) SetMessages(msgs []transcript.Message) {
	p.messages = msgs
	content := p.render()
	if content == p.content {
		return
	}
	p.content = content
	p.viewport.SetContent(content)
	p.viewport.GotoBottom()
}

func (p *ChatPanel) render() string {
	lines := make([]string, 0, len(p.messages))
	wrap := lipgloss.NewStyle()
	if p.width > 4 {
		wrap = wrap.Width(p.width - 1)
	}
	for _, m := range p.messages {
		switch {
		case m.Role == transcript.RoleUser:
			lines = append(lines, wrap.Render(userMsgStyle.Render("> "+m.Text)))
		case m.State == transcript.StatePending && m.Text == "":
			lines = append(lines, botMarker+typingStyle.Render(typingMarker))
		default:
			lines = append(lines, wrap.Render(botMarker+botMsgStyle.Render(m.Text)))
		}
	}
	return strings.Join(lines, "\n\n")
}

func (p *ChatPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

func (p *ChatPanel) View() string {
	return p.viewport.View()
}

func (p *ChatPanel) SetSize(width, height int) {
	resized := width != p.width
	p.width = width
	p.viewport.Width = width
	p.viewport.Height = height
	if resized {
		p.content = p.render()
		p.viewport.SetContent(p.content)
	}
}
