// File: internal/scenario/catalogue.go
package scenario

import (
	"fmt"
	"sort"
)

var catalogue = map[string]Scenario{}

func register(s Scenario) {
	if _, dup := catalogue[s.ID]; dup {
		panic(fmt.Sprintf("scenario %q registered twice", s.ID))
	}
	catalogue[s.ID] = s
}

// Lookup resolves a scenario id.
func Lookup(id string) (Scenario, error) {
	s, ok := catalogue[id]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario %q", id)
	}
	return s, nil
}

// List returns every catalogue entry sorted by id.
func List() []Scenario {
	out := make([]Scenario, 0, len(catalogue))
	for _, s := range catalogue {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
