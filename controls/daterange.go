package controls

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/linanwx/policychat/cue"
)

// dateLayout renders dates as long month name and day, e.g. "March 3".
const dateLayout = "January 2"

// FormatRange renders a single date ("March 3") or a range
// ("March 3 to March 5"). A zero end, or an end equal to start, renders a
// single date; reversed ranges are put in order.
func FormatRange(start, end time.Time) string {
	if end.IsZero() || sameDay(start, end) {
		return start.Format(dateLayout)
	}
	if end.Before(start) {
		start, end = end, start
	}
	return start.Format(dateLayout) + " to " + end.Format(dateLayout)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate reads a user-typed date. Dates typed without a year use the
// year of now.
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("date is empty")
	}
	t, err := dateparse.ParseIn(s, now.Location())
	if err != nil || t.Year() == 0 {
		t, err = dateparse.ParseIn(s+" "+strconv.Itoa(now.Year()), now.Location())
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised date %q", s)
	}
	return t, nil
}

// DateRange asks for a start date and an optional end date.
type DateRange struct {
	id       ID
	cue      cue.Cue
	deps     Deps
	form     *huh.Form
	start    string
	end      string
	resolved bool
}

func newDateRange(id ID, c cue.Cue, deps Deps) *DateRange {
	d := &DateRange{id: id, cue: c, deps: deps}
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(titleOr(c, "Pick a date or a range")).
				Description("Start date").
				Placeholder("March 3").
				Validate(func(s string) error {
					_, err := ParseDate(s, d.deps.now())
					return err
				}).
				Value(&d.start),
			huh.NewInput().
				Description("End date (optional)").
				Placeholder("leave empty for a single day").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := ParseDate(s, d.deps.now())
					return err
				}).
				Value(&d.end),
		),
	).WithShowHelp(false)
	return d
}

func (d *DateRange) ID() ID         { return d.id }
func (d *DateRange) Kind() cue.Kind { return cue.KindDateRange }

func (d *DateRange) Init() tea.Cmd { return d.form.Init() }

func (d *DateRange) Update(msg tea.Msg) (Control, tea.Cmd) {
	if d.resolved {
		return d, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
		return d, d.Close()
	}
	m, cmd := d.form.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		d.form = f
	}
	if d.form.State == huh.StateCompleted {
		now := d.deps.now()
		start, err := ParseDate(d.start, now)
		if err != nil {
			return d, tea.Batch(cmd, d.Close())
		}
		dates := []time.Time{start}
		if strings.TrimSpace(d.end) != "" {
			if end, err := ParseDate(d.end, now); err == nil {
				dates = append(dates, end)
			}
		}
		return d, tea.Batch(cmd, d.Confirm(dates...))
	}
	return d, cmd
}

// Confirm resolves the picker with one or two dates. Without dates it
// behaves like Close.
func (d *DateRange) Confirm(dates ...time.Time) tea.Cmd {
	if d.resolved {
		return nil
	}
	switch len(dates) {
	case 0:
		return d.Close()
	case 1:
		d.resolved = true
		return emit(SubmitMsg{Control: d.id, Text: FormatRange(dates[0], time.Time{})})
	default:
		d.resolved = true
		return emit(SubmitMsg{Control: d.id, Text: FormatRange(dates[0], dates[1])})
	}
}

// Close dismisses the picker without a selection.
func (d *DateRange) Close() tea.Cmd {
	if d.resolved {
		return nil
	}
	d.resolved = true
	return emit(DismissMsg{Control: d.id})
}

func (d *DateRange) View() string {
	return frameStyle.Render(d.form.View() + "\n" + hintStyle.Render("enter next/confirm • esc close"))
}

func (d *DateRange) SetWidth(width int) {
	if width > 4 {
		d.form = d.form.WithWidth(width - 4)
	}
}
