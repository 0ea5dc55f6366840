package controls

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/linanwx/policychat/cue"
)

// ChoiceList offers the cue's options in order. Choosing an option submits
// its label verbatim; choosing a free-text escape option asks for typing
// instead.
type ChoiceList struct {
	id       ID
	cue      cue.Cue
	form     *huh.Form
	choice   string
	resolved bool
}

func newChoiceList(id ID, c cue.Cue) *ChoiceList {
	cl := &ChoiceList{id: id, cue: c}
	cl.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(titleOr(c, "Choose one")).
				Options(huh.NewOptions(c.Options...)...).
				Value(&cl.choice),
		),
	).WithShowHelp(false)
	return cl
}

func (c *ChoiceList) ID() ID         { return c.id }
func (c *ChoiceList) Kind() cue.Kind { return cue.KindChoiceList }

// Options returns the offered labels in display order.
func (c *ChoiceList) Options() []string { return append([]string(nil), c.cue.Options...) }

func (c *ChoiceList) Init() tea.Cmd { return c.form.Init() }

func (c *ChoiceList) Update(msg tea.Msg) (Control, tea.Cmd) {
	if c.resolved {
		return c, nil
	}
	m, cmd := c.form.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		c.form = f
	}
	if c.form.State == huh.StateCompleted {
		return c, tea.Batch(cmd, c.Choose(c.choice))
	}
	return c, cmd
}

// Choose resolves the list with label. Labels that are not options are ignored.
func (c *ChoiceList) Choose(label string) tea.Cmd {
	if c.resolved {
		return nil
	}
	label = strings.TrimSpace(label)
	known := false
	for _, opt := range c.cue.Options {
		if opt == label {
			known = true
			break
		}
	}
	if !known {
		return nil
	}
	c.resolved = true
	if c.cue.IsEscape(label) {
		return emit(FreeTextMsg{Control: c.id, Prompt: c.cue.Prompt})
	}
	return emit(SubmitMsg{Control: c.id, Text: label})
}

func (c *ChoiceList) View() string {
	return frameStyle.Render(c.form.View() + "\n" + hintStyle.Render("↑/↓ choose • enter confirm • tab type instead"))
}

func (c *ChoiceList) SetWidth(width int) {
	if width > 4 {
		c.form = c.form.WithWidth(width - 4)
	}
}
