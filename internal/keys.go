package sensortop

import "github.com/charmbracelet/bubbles/key"

// keyMap implements help.KeyMap for the footer
type keyMap struct {
	Quit       key.Binding
	Refresh    key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	NextPane   key.Binding
	PrevPane   key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Help       key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevTab, k.NextTab, k.NextPane, k.Refresh, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevTab, k.NextTab, k.NextPane, k.PrevPane},
		{k.ScrollUp, k.ScrollDown, k.PageUp, k.PageDown},
		{k.Refresh, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	NextTab:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next tab")),
	PrevTab:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev tab")),
	NextPane:   key.NewBinding(key.WithKeys("l", "right", "tab"), key.WithHelp("tab/l", "next pane")),
	PrevPane:   key.NewBinding(key.WithKeys("h", "left", "shift+tab"), key.WithHelp("shift+tab/h", "prev pane")),
	ScrollUp:   key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/up", "scroll log up")),
	ScrollDown: key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/dn", "scroll log down")),
	PageUp:     key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page log up")),
	PageDown:   key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page log down")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}
