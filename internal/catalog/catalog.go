// Package catalog holds the fixed vocabulary of the image search API:
// categories, filter keys with their allowed values, and display labels.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed catalog.toml
var catalogTOML []byte

// Filter keys in display order.
const (
	KeyOrder       = "order"
	KeyOrientation = "orientation"
	KeyType        = "type"
	KeyColors      = "colors"
)

type FilterVocab struct {
	Order       []string `toml:"order"`
	Orientation []string `toml:"orientation"`
	Type        []string `toml:"type"`
	Colors      []string `toml:"colors"`
}

type Catalog struct {
	Categories []string                     `toml:"categories"`
	Filters    FilterVocab                  `toml:"filters"`
	Swatches   map[string]string            `toml:"swatches"`
	Labels     map[string]map[string]string `toml:"labels"`
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Parse decodes a catalog from TOML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if len(c.Categories) == 0 {
		return nil, fmt.Errorf("decoding catalog: no categories")
	}
	return &c, nil
}

// Default returns the embedded catalog. It panics if the embedded file is
// malformed, which is a build defect.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(catalogTOML)
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultCat
}

// FilterKeys returns the filter keys in display order.
func (c *Catalog) FilterKeys() []string {
	return []string{KeyOrder, KeyOrientation, KeyType, KeyColors}
}

// FilterValues returns the allowed values for key, or nil for an unknown key.
func (c *Catalog) FilterValues(key string) []string {
	switch key {
	case KeyOrder:
		return c.Filters.Order
	case KeyOrientation:
		return c.Filters.Orientation
	case KeyType:
		return c.Filters.Type
	case KeyColors:
		return c.Filters.Colors
	}
	return nil
}

func (c *Catalog) IsCategory(name string) bool {
	return slices.Contains(c.Categories, name)
}

func (c *Catalog) IsFilterValue(key, value string) bool {
	return slices.Contains(c.FilterValues(key), value)
}

// Swatch returns the hex colour for a colour filter value, or "".
func (c *Catalog) Swatch(value string) string {
	return c.Swatches[value]
}

// Label returns the display label of a category, filter key or filter value
// in lang. Terms without a translation are title-cased.
func (c *Catalog) Label(lang, term string) string {
	if l, ok := c.Labels[lang][term]; ok {
		return l
	}
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return cases.Title(tag).String(term)
}
