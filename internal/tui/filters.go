package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/pixa/internal/browse"
	"github.com/pders01/pixa/internal/catalog"
)

// filterDraft holds the form's values until it is submitted.
type filterDraft struct {
	values map[browse.FilterKey]*string
	apply  bool
}

func newFilterDraft(current browse.Filters) *filterDraft {
	d := &filterDraft{values: map[browse.FilterKey]*string{}, apply: true}
	for _, k := range browse.FilterKeys {
		v, _ := current.Get(k)
		d.values[k] = &v
	}
	return d
}

func (d *filterDraft) filters() browse.Filters {
	var f browse.Filters
	for _, k := range browse.FilterKeys {
		if v := d.values[k]; v != nil {
			f = f.With(k, *v)
		}
	}
	return f.Normalize()
}

func (a *App) newFilterForm() (*huh.Form, *filterDraft) {
	draft := newFilterDraft(a.session.Query().Filters)
	lang := a.config.UI.Language

	var fields []huh.Field
	for _, k := range browse.FilterKeys {
		values := a.catalog.FilterValues(string(k))
		options := make([]huh.Option[string], 0, len(values)+1)
		options = append(options, huh.NewOption(a.catalog.Label(lang, "any"), ""))
		for _, v := range values {
			options = append(options, huh.NewOption(filterOptionLabel(a.catalog, lang, k, v), v))
		}
		fields = append(fields, huh.NewSelect[string]().
			Title(a.catalog.Label(lang, string(k))).
			Options(options...).
			Value(draft.values[k]))
	}
	fields = append(fields, huh.NewConfirm().
		Title(a.catalog.Label(lang, "filters")).
		Affirmative(a.catalog.Label(lang, "apply")).
		Negative(a.catalog.Label(lang, "reset")).
		Value(&draft.apply))

	form := huh.NewForm(huh.NewGroup(fields...)).
		WithTheme(huh.ThemeCharm()).
		WithWidth(a.formWidth()).
		WithShowHelp(true)
	return form, draft
}

func filterOptionLabel(c *catalog.Catalog, lang string, key browse.FilterKey, value string) string {
	label := c.Label(lang, value)
	if key != browse.FilterColors {
		return label
	}
	if hex := c.Swatch(value); hex != "" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("●") + " " + label
	}
	return label
}

func (a *App) formWidth() int {
	w := a.width - 4
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	return w
}

// submitFilters applies or resets the filter set once the form completes.
func (a *App) submitFilters() tea.Cmd {
	draft := a.filterDraft
	a.filterForm, a.filterDraft = nil, nil
	a.view = ViewBrowse
	if draft == nil {
		return nil
	}
	if !draft.apply {
		a.session.ResetFilters()
		return tea.Batch(a.setStatus(MsgFiltersReset, StatusInfo), a.spin())
	}
	if !a.session.ApplyFilters(draft.filters()) {
		return a.setStatus("invalid filters", StatusError)
	}
	return a.spin()
}
