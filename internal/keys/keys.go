package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings of the setup wizard outside its forms.
type KeyMap struct {
	Save  key.Binding
	Retry key.Binding
	Edit  key.Binding
	Back  key.Binding
	Quit  key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Save: key.NewBinding(
			key.WithKeys("enter", "s"),
			key.WithHelp("enter/s", "save"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.Retry, k.Edit, k.Quit}
}

// FullHelp returns all bindings grouped for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Save, k.Retry, k.Edit},
		{k.Back, k.Quit},
	}
}
