package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/pders01/pixa/internal/config"
)

type keyMap struct {
	Quit     key.Binding
	Search   key.Binding
	Filters  key.Binding
	Refresh  key.Binding
	Library  key.Binding
	Download key.Binding
	Share    key.Binding
	Open     key.Binding
	Delete   key.Binding
	Back     key.Binding
	Top      key.Binding
	Focus    key.Binding
	Select   key.Binding
	Remove   key.Binding
}

func newKeyMap(cfg *config.Config) keyMap {
	b := cfg.Keys.Bindings
	mod := cfg.Keys.Modifier + "+"
	bind := func(keys, desc string) key.Binding {
		return key.NewBinding(key.WithKeys(keys), key.WithHelp(keys, desc))
	}
	return keyMap{
		Quit:     bind(b.Quit, "quit"),
		Search:   bind(b.Search, "search"),
		Filters:  bind(mod+b.Filters, "filters"),
		Refresh:  bind(mod+b.Refresh, "refresh"),
		Library:  bind(mod+b.Library, "downloads"),
		Download: bind(mod+b.Download, "download"),
		Share:    bind(mod+b.Share, "copy link"),
		Open:     bind(mod+b.Open, "open"),
		Delete:   bind(mod+b.Delete, "delete"),
		Back:     bind(b.Back, "back"),
		Top:      bind(b.Top, "top"),
		Focus: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "focus"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x", "backspace", "delete"),
			key.WithHelp("x", "remove"),
		),
	}
}
