package reveal

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain runs the reveal to completion, collecting every observable frame.
func drain(t *testing.T, e *Engine, first Frame, cmd tea.Cmd) []Frame {
	t.Helper()
	frames := []Frame{first}
	for cmd != nil {
		msg, ok := cmd().(TickMsg)
		require.True(t, ok, "reveal command must produce a TickMsg")
		var frame Frame
		var handled bool
		frame, cmd, handled = e.Update(msg)
		require.True(t, handled)
		frames = append(frames, frame)
		if len(frames) > 10_000 {
			t.Fatal("reveal did not terminate")
		}
	}
	return frames
}

func TestRevealProducesNPlusOneStates(t *testing.T) {
	e := New(time.Millisecond)
	text := "Hi ✓!"

	first, stopped, cmd := e.Start("m1", text)
	assert.Nil(t, stopped)
	assert.Equal(t, "", first.Text)

	frames := drain(t, e, first, cmd)
	n := len([]rune(text))
	require.Len(t, frames, n+1)

	done := 0
	for i, f := range frames {
		assert.Equal(t, "m1", f.MessageID)
		assert.Equal(t, string([]rune(text)[:i]), f.Text)
		if f.Done {
			done++
			assert.Equal(t, n, i, "completion only after the last character is shown")
			assert.Equal(t, text, f.Text)
		}
	}
	assert.Equal(t, 1, done)
	assert.Nil(t, e.Active())
}

func TestRevealEmptyTextCompletesOnce(t *testing.T) {
	e := New(time.Millisecond)
	first, _, cmd := e.Start("m1", "")
	require.NotNil(t, cmd)

	msg := cmd().(TickMsg)
	frame, next, ok := e.Update(msg)
	require.True(t, ok)
	assert.True(t, frame.Done)
	assert.Equal(t, "", frame.Text)
	assert.Nil(t, next)
	assert.Equal(t, "", first.Text)
}

func TestStartCancelsPreviousReveal(t *testing.T) {
	e := New(time.Millisecond)
	_, _, cmd := e.Start("old", "abcdef")

	oldTick := cmd().(TickMsg)
	frame, cmd, ok := e.Update(oldTick)
	require.True(t, ok)
	assert.Equal(t, "a", frame.Text)
	staleTick := cmd().(TickMsg)

	_, stopped, newCmd := e.Start("new", "xy")
	require.NotNil(t, stopped)
	assert.Equal(t, "old", stopped.MessageID)
	assert.Equal(t, "a", stopped.Visible(), "partial output is frozen")

	_, _, handled := e.Update(staleTick)
	assert.False(t, handled, "ticks of a stopped reveal are ignored")

	frames := drain(t, e, Frame{MessageID: "new"}, newCmd)
	last := frames[len(frames)-1]
	assert.True(t, last.Done)
	assert.Equal(t, "new", last.MessageID)
	assert.Equal(t, "xy", last.Text)
}

func TestDefaultInterval(t *testing.T) {
	assert.Equal(t, 20*time.Millisecond, New(0).Interval())
}
