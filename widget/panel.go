// Package widget is the terminal chat widget: a launcher line that opens
// into the conversation view, the log panel, the input line and the
// suggestion shortcuts, composed around a conversation pipeline.
package widget

import tea "github.com/charmbracelet/bubbletea"

// Panel is a composable TUI region with its own state, update logic, and view.
// The root App model orchestrates panels without knowing their internals.
type Panel interface {
	Update(tea.Msg) (Panel, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// LogLineMsg carries a single log line from the logger writer.
type LogLineMsg struct{ Line string }

// InputSubmitMsg is emitted when the user presses Enter in the input panel.
type InputSubmitMsg struct{ Text string }
