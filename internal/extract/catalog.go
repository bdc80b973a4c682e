package extract

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xsolare/trip-scheduler-scraper/internal/config"
)

// ErrUnknownCity is returned when a run names a city missing from the catalog.
var ErrUnknownCity = errors.New("unknown city")

// Catalog holds the cities the LLM stages know how to address.
type Catalog map[string]config.City

// Lookup finds a city by case-insensitive name.
func (c Catalog) Lookup(name string) (config.City, error) {
	city, ok := c[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		known := make([]string, 0, len(c))
		for _, v := range c {
			known = append(known, v.Name)
		}
		sort.Strings(known)
		return config.City{}, fmt.Errorf("%w %q (configured: %s)", ErrUnknownCity, name, strings.Join(known, ", "))
	}
	return city, nil
}

// PageURL returns the listing URL of zero-based page i.
func PageURL(c config.City, i int) string {
	return fmt.Sprintf("%s%d%s", c.ListBaseURL, i*c.PageStep, c.ListSuffix)
}
