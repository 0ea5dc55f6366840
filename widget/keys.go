package widget

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
)

const maxSuggestionKeys = 9

type keyMap struct {
	Toggle  key.Binding
	Reset   key.Binding
	Focus   key.Binding
	Logs    key.Binding
	Scroll  key.Binding
	Quit    key.Binding
	Suggest []key.Binding
}

func newKeyMap(suggestions []string) keyMap {
	km := keyMap{
		Toggle: key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "open/close")),
		Reset:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset")),
		Focus:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "input/control")),
		Logs:   key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "logs")),
		Scroll: key.NewBinding(key.WithKeys("pgup", "pgdown"), key.WithHelp("pgup/pgdn", "scroll")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
	for i := range suggestions {
		if i == maxSuggestionKeys {
			break
		}
		k := fmt.Sprintf("f%d", i+1)
		km.Suggest = append(km.Suggest, key.NewBinding(key.WithKeys(k), key.WithHelp(k, suggestions[i])))
	}
	return km
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Focus, k.Reset, k.Toggle, k.Logs, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), append([]key.Binding{k.Scroll}, k.Suggest...)}
}
