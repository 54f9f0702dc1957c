package providers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brogergvhs/noveld/internal/providers/freewebnovel"
)

type factory func(baseURL string) (Site, error)

var sites = map[string]factory{
	freewebnovel.Name: func(baseURL string) (Site, error) {
		s, err := freewebnovel.New(baseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	},
}

// DefaultSite is used when no site is configured.
const DefaultSite = freewebnovel.Name

// Lookup returns the site registered under name. An empty baseURL keeps the
// site's own default.
func Lookup(name, baseURL string) (Site, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultSite
	}

	newSite, ok := sites[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownSite, name, strings.Join(Names(), ", "))
	}

	return newSite(baseURL)
}

func Names() []string {
	out := make([]string, 0, len(sites))
	for name := range sites {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
