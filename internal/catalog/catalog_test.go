package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Len(t, c.Categories, 20)
	assert.Equal(t, "backgrounds", c.Categories[0])
	assert.Equal(t, []string{"order", "orientation", "type", "colors"}, c.FilterKeys())
	assert.Equal(t, []string{"popular", "latest"}, c.FilterValues(KeyOrder))
	assert.Len(t, c.FilterValues(KeyColors), 11)
	assert.Nil(t, c.FilterValues("size"))
}

func TestMembership(t *testing.T) {
	c := Default()

	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"known category", c.IsCategory("nature"), true},
		{"unknown category", c.IsCategory("cars"), false},
		{"valid order", c.IsFilterValue(KeyOrder, "latest"), true},
		{"value under wrong key", c.IsFilterValue(KeyOrder, "red"), false},
		{"unknown key", c.IsFilterValue("size", "large"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestLabel(t *testing.T) {
	c := Default()

	assert.Equal(t, "Arrière-plans", c.Label("fr", "backgrounds"))
	assert.Equal(t, "Couleurs", c.Label("fr", "colors"))
	assert.Equal(t, "Backgrounds", c.Label("en", "backgrounds"))
	assert.Equal(t, "Transportation", c.Label("de", "transportation"))
	assert.Equal(t, "Popular", c.Label("not a language tag", "popular"))
}

func TestSwatchesCoverColors(t *testing.T) {
	c := Default()
	for _, color := range c.FilterValues(KeyColors) {
		assert.NotEmpty(t, c.Swatch(color), "missing swatch for %s", color)
	}
	assert.Empty(t, c.Swatch("plaid"))
}

func TestParse(t *testing.T) {
	_, err := Parse([]byte("categories = []"))
	require.Error(t, err)

	_, err = Parse([]byte("not = [toml"))
	require.Error(t, err)

	c, err := Parse([]byte(`categories = ["a"]`))
	require.NoError(t, err)
	assert.True(t, c.IsCategory("a"))
}
