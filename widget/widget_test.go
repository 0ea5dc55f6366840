package widget

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linanwx/policychat/controls"
	"github.com/linanwx/policychat/pipeline"
	"github.com/linanwx/policychat/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	modulePath = "github.com/linanwx/policychat/"
	welcome    = "Welcome Employee,\n How can I help you with MPC policies today?"
)

var suggestions = []string{"Leave Policy", "Dress Code", "Office Timings"}

// run executes cmd and returns the messages it produces that belong to this
// module. Commands that do not return promptly, like cursor blinks, are
// abandoned.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(200 * time.Millisecond):
		return nil
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil || !strings.HasPrefix(reflect.TypeOf(msg).PkgPath(), modulePath) {
		return nil
	}
	return []tea.Msg{msg}
}

func drive(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	queue := run(cmd)
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 10000, "widget did not settle")
		msg := queue[0]
		_, next := app.Update(msg)
		queue = append(queue[1:], run(next)...)
	}
}

func send(t *testing.T, app *App, msg tea.Msg) {
	t.Helper()
	_, cmd := app.Update(msg)
	drive(t, app, cmd)
}

type fakeBackend struct {
	mu     sync.Mutex
	chats  []string
	resets int
	reply  map[string]string
}

func (f *fakeBackend) Chat(_ context.Context, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, message)
	if r, ok := f.reply[message]; ok {
		return r, nil
	}
	return "Noted.", nil
}

func (f *fakeBackend) Reset(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return errors.New("endpoint unreachable")
}

func (f *fakeBackend) Upload(_ context.Context, path string) (string, error) {
	return "uploads/" + filepath.Base(path), nil
}

func (f *fakeBackend) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.chats...)
}

func newApp(t *testing.T, b *fakeBackend, open bool) *App {
	t.Helper()
	p := pipeline.New(b, pipeline.Options{
		Welcome:        welcome,
		RevealInterval: time.Microsecond,
		Timeout:        5 * time.Second,
	})
	app := New(p, Options{Suggestions: suggestions, Open: open})
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return app
}

func texts(app *App) []string {
	var out []string
	for _, m := range app.Pipeline().Transcript().Messages() {
		out = append(out, m.Text)
	}
	return out
}

func press(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func TestLauncherAndChatAreExclusive(t *testing.T) {
	app := newApp(t, &fakeBackend{}, false)

	assert.False(t, app.IsOpen())
	view := app.View()
	assert.Contains(t, view, "to open")
	assert.NotContains(t, view, inputPrompt)

	send(t, app, press(tea.KeyCtrlO))
	assert.True(t, app.IsOpen())
	view = app.View()
	assert.Contains(t, view, inputPrompt)
	assert.NotContains(t, view, "to open")

	app.Close()
	assert.False(t, app.IsOpen())
	send(t, app, press(tea.KeyEnter))
	assert.True(t, app.IsOpen())
}

func TestClosedWidgetIgnoresTyping(t *testing.T) {
	b := &fakeBackend{}
	app := newApp(t, b, false)

	send(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello")})
	assert.Empty(t, app.Input())
	assert.Empty(t, b.sent())
}

func TestInitRevealsWelcome(t *testing.T) {
	app := newApp(t, &fakeBackend{}, true)

	drive(t, app, app.Init())
	msgs := app.Pipeline().Transcript().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, welcome, msgs[0].Text)
	assert.Equal(t, transcript.StateComplete, msgs[0].State)
	assert.Contains(t, app.View(), "How can I help you")
}

func TestTypedMessageIsSubmitted(t *testing.T) {
	b := &fakeBackend{}
	app := newApp(t, b, true)

	send(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("What are the office timings?")})
	assert.Equal(t, "What are the office timings?", app.Input())

	send(t, app, press(tea.KeyEnter))
	assert.Empty(t, app.Input())
	assert.Equal(t, []string{"What are the office timings?"}, b.sent())
	assert.Equal(t, []string{"What are the office timings?", "Noted."}, texts(app))
}

func TestRevealFollowsScrolledTranscript(t *testing.T) {
	p := NewChatPanel()
	p.SetSize(40, 4)
	long := strings.Repeat("Earned leave can be carried forward. ", 20)
	msgs := []transcript.Message{
		{Role: transcript.RoleUser, Text: "Leave Policy"},
		{Role: transcript.RoleAssistant, Text: long[:200], State: transcript.StateRevealing},
	}
	p.SetMessages(msgs)
	require.True(t, p.viewport.AtBottom())

	p.viewport.GotoTop()
	p.SetMessages(msgs)
	assert.True(t, p.viewport.AtTop(), "unchanged transcript keeps the scroll position")

	frame := append([]transcript.Message(nil), msgs...)
	frame[1].Text = long[:400]
	p.SetMessages(frame)
	assert.True(t, p.viewport.AtBottom(), "reveal frame scrolls to the newest text")
}

func TestLongReplyEndsAtBottom(t *testing.T) {
	long := strings.Repeat("Sick leave needs a medical certificate after two days. ", 40)
	b := &fakeBackend{reply: map[string]string{"Leave Policy": long}}
	app := newApp(t, b, true)

	send(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Leave Policy")})
	send(t, app, press(tea.KeyEnter))
	require.Equal(t, strings.TrimSpace(long), strings.TrimSpace(texts(app)[1]))
	assert.False(t, app.chatPanel.viewport.AtTop(), "reply overflows the viewport")
	assert.True(t, app.chatPanel.viewport.AtBottom())
}

func TestSuggestionPopulatesAndSubmits(t *testing.T) {
	b := &fakeBackend{reply: map[string]string{"Dress Code": "Business casual on weekdays."}}
	app := newApp(t, b, true)

	drive(t, app, app.Suggest(1))
	assert.Equal(t, []string{"Dress Code"}, b.sent())
	assert.Equal(t, []string{"Dress Code", "Business casual on weekdays."}, texts(app))
	assert.Empty(t, app.Input())

	send(t, app, press(tea.KeyF1))
	assert.Equal(t, []string{"Dress Code", "Leave Policy"}, b.sent())

	assert.Nil(t, app.Suggest(3))
	assert.Nil(t, app.Suggest(-1))
}

func TestResetClearsAndReseedsWelcome(t *testing.T) {
	b := &fakeBackend{}
	app := newApp(t, b, true)
	drive(t, app, app.Init())
	drive(t, app, app.Submit("hello"))
	require.Len(t, texts(app), 3)

	send(t, app, press(tea.KeyCtrlR))
	assert.Equal(t, []string{welcome}, texts(app))
	assert.Equal(t, 1, b.resets, "remote reset attempted")
}

func TestMountedControlTakesFocus(t *testing.T) {
	b := &fakeBackend{reply: map[string]string{
		"I want to apply for leave": "Sure. What type of leave would you like to apply for?",
	}}
	app := newApp(t, b, true)

	drive(t, app, app.Submit("I want to apply for leave"))
	_, ok := app.Pipeline().Control().(*controls.ChoiceList)
	require.True(t, ok)
	assert.True(t, app.ControlFocused())
	assert.Contains(t, app.View(), "Casual Leave")

	send(t, app, press(tea.KeyTab))
	assert.False(t, app.ControlFocused())
	send(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, "x", app.Input())

	send(t, app, press(tea.KeyTab))
	assert.True(t, app.ControlFocused())
}

func TestControlResultIsSubmitted(t *testing.T) {
	b := &fakeBackend{reply: map[string]string{
		"leave": "What type of leave would you like to apply for?",
	}}
	app := newApp(t, b, true)

	drive(t, app, app.Submit("leave"))
	cl, ok := app.Pipeline().Control().(*controls.ChoiceList)
	require.True(t, ok)

	drive(t, app, cl.Choose("Sick Leave"))
	assert.Equal(t, []string{"leave", "Sick Leave"}, b.sent())
	assert.Nil(t, app.Pipeline().Control())
	assert.False(t, app.ControlFocused())
}

func TestEscapeOptionShowsHint(t *testing.T) {
	b := &fakeBackend{reply: map[string]string{
		"claim": "What category does this expense fall under?",
	}}
	app := newApp(t, b, true)

	drive(t, app, app.Submit("claim"))
	cl, ok := app.Pipeline().Control().(*controls.ChoiceList)
	require.True(t, ok)

	drive(t, app, cl.Choose("Other"))
	assert.Equal(t, "Please type the expense category...", app.Hint())
	assert.False(t, app.ControlFocused())
	assert.Equal(t, []string{"claim"}, b.sent())

	drive(t, app, app.Submit("Conference fees"))
	assert.Equal(t, defaultPlaceholder, app.Hint())
}

func TestExitWordsQuit(t *testing.T) {
	app := newApp(t, &fakeBackend{}, true)

	_, cmd := app.Update(InputSubmitMsg{Text: "quit"})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestLogPanelToggle(t *testing.T) {
	app := newApp(t, &fakeBackend{}, true)

	send(t, app, LogLineMsg{Line: "level=INFO msg=\"upload started\""})
	assert.Equal(t, 1, app.logPanel.Len())
	assert.NotContains(t, app.View(), "upload started")

	send(t, app, press(tea.KeyCtrlL))
	assert.Contains(t, app.View(), "upload started")
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingSender) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.msgs {
		out = append(out, m.(LogLineMsg).Line)
	}
	return out
}

func TestLogWriterForwardsLines(t *testing.T) {
	rec := &recordingSender{}
	w := newLogWriter(rec)

	n, err := w.Write([]byte("first\nsecond\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 14, n)

	assert.Eventually(t, func() bool { return len(rec.lines()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"first", "second"}, rec.lines())

	require.NoError(t, w.Close())
	_, err = w.Write([]byte("late\n"))
	assert.NoError(t, err)
	require.NoError(t, w.Close())
}
