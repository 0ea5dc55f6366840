// Package controls implements the transient structured inputs offered after
// an assistant message: a choice list, a date range picker and a file upload
// button. Each control collects one result and reports it as a message; the
// conversation pipeline owns mounting and unmounting.
package controls

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linanwx/policychat/cue"
)

// ID identifies one mounted control. IDs are never reused within a session.
type ID uint64

// SubmitMsg carries a result to be submitted as the user's next message.
type SubmitMsg struct {
	Control ID
	Text    string
}

// FreeTextMsg asks for the control to be removed and the input focused with
// Prompt as a hint. Nothing is submitted.
type FreeTextMsg struct {
	Control ID
	Prompt  string
}

// DismissMsg asks for the control to be removed without a result.
type DismissMsg struct {
	Control ID
}

// NoticeMsg asks for a bot-authored notice to be appended to the transcript.
// The control stays mounted.
type NoticeMsg struct {
	Control ID
	Text    string
}

// Control is a mounted structured input.
type Control interface {
	ID() ID
	Kind() cue.Kind
	Init() tea.Cmd
	Update(tea.Msg) (Control, tea.Cmd)
	View() string
	SetWidth(width int)
}

// Uploader stores a local file on the endpoint and returns its stored path.
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// Deps are the collaborators controls may need.
type Deps struct {
	Uploader      Uploader
	UploadTimeout time.Duration
	StartDir      string           // initial directory of the file picker
	Now           func() time.Time // used to complete dates typed without a year
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// New mounts the control requested by c.
func New(id ID, c cue.Cue, deps Deps) (Control, error) {
	switch c.Kind {
	case cue.KindChoiceList:
		if len(c.Options) == 0 {
			return nil, fmt.Errorf("controls: choice list without options")
		}
		return newChoiceList(id, c), nil
	case cue.KindDateRange:
		return newDateRange(id, c, deps), nil
	case cue.KindFileUpload:
		if deps.Uploader == nil {
			return nil, fmt.Errorf("controls: file upload needs an uploader")
		}
		return newFileUpload(id, c, deps), nil
	default:
		return nil, fmt.Errorf("controls: no control for cue kind %q", c.Kind)
	}
}

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func titleOr(c cue.Cue, fallback string) string {
	if c.Title != "" {
		return c.Title
	}
	return fallback
}
