package browse

import (
	"fmt"
	"strings"

	"github.com/pders01/pixa/internal/catalog"
)

// FilterKey names one independently removable search constraint.
type FilterKey string

const (
	FilterOrder       FilterKey = catalog.KeyOrder
	FilterOrientation FilterKey = catalog.KeyOrientation
	FilterType        FilterKey = catalog.KeyType
	FilterColors      FilterKey = catalog.KeyColors
)

// FilterKeys lists every filter key in display order.
var FilterKeys = []FilterKey{FilterOrder, FilterOrientation, FilterType, FilterColors}

// Filters maps filter keys to values. A nil map means no filters; the
// methods never return an empty non-nil map.
type Filters map[FilterKey]string

// With returns a copy of f with key set to value. An empty value removes the key.
func (f Filters) With(key FilterKey, value string) Filters {
	if value == "" {
		return f.Without(key)
	}
	out := make(Filters, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out[key] = value
	return out
}

// Without returns a copy of f with key removed.
func (f Filters) Without(key FilterKey) Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		if k != key {
			out[k] = v
		}
	}
	return out.Normalize()
}

// Normalize drops empty values and returns nil when nothing is left.
func (f Filters) Normalize() Filters {
	var out Filters
	for k, v := range f {
		if v == "" {
			continue
		}
		if out == nil {
			out = make(Filters, len(f))
		}
		out[k] = v
	}
	return out
}

// Get returns the value for key and whether it is set.
func (f Filters) Get(key FilterKey) (string, bool) {
	v, ok := f[key]
	return v, ok && v != ""
}

// Active returns the set keys in display order.
func (f Filters) Active() []FilterKey {
	var keys []FilterKey
	for _, k := range FilterKeys {
		if _, ok := f.Get(k); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// Equal reports whether f and other hold the same constraints.
func (f Filters) Equal(other Filters) bool {
	a, b := f.Normalize(), other.Normalize()
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// Validate rejects keys or values outside the catalog vocabulary.
func (f Filters) Validate(c *catalog.Catalog) error {
	for k, v := range f {
		if v == "" {
			continue
		}
		values := c.FilterValues(string(k))
		if values == nil {
			return fmt.Errorf("unknown filter %q", k)
		}
		if !c.IsFilterValue(string(k), v) {
			return fmt.Errorf("invalid %s %q (want one of %s)", k, v, strings.Join(values, ", "))
		}
	}
	return nil
}

func (f Filters) String() string {
	keys := f.Active()
	if len(keys) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, string(k)+"="+f[k])
	}
	return strings.Join(parts, " ")
}
