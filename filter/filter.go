package filter

import (
	"strings"

	"github.com/s0up4200/nfx/catalog"
)

// MatchAll keeps every title
var MatchAll catalog.Filter = catalog.FilterFunc(func(catalog.Title) bool { return true })

// ParseAndCreateFilter compiles an expression into a catalog filter. An
// empty expression matches everything.
func (c *Compiler) ParseAndCreateFilter(expression string) (catalog.Filter, error) {
	if strings.TrimSpace(expression) == "" {
		return MatchAll, nil
	}
	f, err := c.Compile(expression)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Select returns the expression to use for a run: an ad-hoc expression
// takes precedence over a preset, which takes precedence over the default.
func Select(adhoc, preset, fallback string) string {
	for _, candidate := range []string{adhoc, preset} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return fallback
}
