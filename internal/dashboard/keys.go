package dashboard

import "github.com/charmbracelet/bubbles/key"

// listKeys holds key bindings for the list screen.
type listKeys struct {
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Search   key.Binding
	Clear    key.Binding
	Reload   key.Binding
	Copy     key.Binding
	Quit     key.Binding
}

// ShortHelp returns the list bindings for the help bar.
func (k listKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.PrevPage, k.NextPage, k.Search, k.Quit}
}

// FullHelp returns the list bindings grouped for expanded help.
func (k listKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open},
		{k.PrevPage, k.NextPage},
		{k.Search, k.Clear, k.Reload, k.Copy, k.Quit},
	}
}

// searchKeys holds key bindings while the search box has focus.
type searchKeys struct {
	Done  key.Binding
	Clear key.Binding
}

// ShortHelp returns the search bindings for the help bar.
func (k searchKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Done, k.Clear}
}

// FullHelp returns the search bindings grouped for expanded help.
func (k searchKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Done, k.Clear}}
}

// detailKeys holds key bindings for the detail screen.
type detailKeys struct {
	Back   key.Binding
	Prev   key.Binding
	Next   key.Binding
	Scroll key.Binding
	Reload key.Binding
	Copy   key.Binding
	Quit   key.Binding
}

// ShortHelp returns the detail bindings for the help bar.
func (k detailKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Back, k.Prev, k.Next, k.Scroll, k.Reload, k.Quit}
}

// FullHelp returns the detail bindings grouped for expanded help.
func (k detailKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Back, k.Prev, k.Next},
		{k.Scroll, k.Reload, k.Copy, k.Quit},
	}
}

// failureKeys holds key bindings for the failure view.
type failureKeys struct {
	Reload key.Binding
	Quit   key.Binding
}

// ShortHelp returns the failure bindings for the help bar.
func (k failureKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Reload, k.Quit}
}

// FullHelp returns the failure bindings grouped for expanded help.
func (k failureKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Reload, k.Quit}}
}

func quitBinding() key.Binding {
	return key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	)
}

func reloadBinding() key.Binding {
	return key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	)
}

func copyBinding() key.Binding {
	return key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy location"),
	)
}

// ListKeyMap returns the key bindings for the list screen.
func ListKeyMap() listKeys {
	return listKeys{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h", "["),
			key.WithHelp("←/h", "prev page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "l", "]"),
			key.WithHelp("→/l", "next page"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Clear: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear search"),
		),
		Reload: reloadBinding(),
		Copy:   copyBinding(),
		Quit:   quitBinding(),
	}
}

// SearchKeyMap returns the key bindings while typing a search.
func SearchKeyMap() searchKeys {
	return searchKeys{
		Done: key.NewBinding(
			key.WithKeys("enter", "esc"),
			key.WithHelp("enter", "done"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "clear"),
		),
	}
}

// DetailKeyMap returns the key bindings for the detail screen.
func DetailKeyMap() detailKeys {
	return detailKeys{
		Back: key.NewBinding(
			key.WithKeys("esc", "b", "backspace"),
			key.WithHelp("esc/b", "back"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "h", "p"),
			key.WithHelp("←/h", "previous"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l", "n"),
			key.WithHelp("→/l", "next"),
		),
		Scroll: key.NewBinding(
			key.WithKeys("up", "down", "k", "j", "pgup", "pgdown"),
			key.WithHelp("↑/↓", "scroll"),
		),
		Reload: reloadBinding(),
		Copy:   copyBinding(),
		Quit:   quitBinding(),
	}
}

// FailureKeyMap returns the key bindings for the failure view.
func FailureKeyMap() failureKeys {
	return failureKeys{
		Reload: reloadBinding(),
		Quit:   quitBinding(),
	}
}
