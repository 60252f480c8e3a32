// File: internal/browser/conditions.go
package browser

import (
	"strings"
)

// Observation is what a single probe of the DOM reports about a locator. The
// wait loop re-resolves the element on every tick, so an Observation is only
// ever valid for the tick that produced it.
type Observation struct {
	Found   bool              `json:"found"`
	Visible bool              `json:"visible"`
	Enabled bool              `json:"enabled"`
	Covered bool              `json:"covered"`
	Text    string            `json:"text"`
	Attrs   map[string]string `json:"attrs"`
}

// Condition is a predicate over a single Observation. Higher-level waits are
// all expressed by passing a Condition into the one polling primitive.
type Condition struct {
	Name  string
	Check func(Observation) bool
}

// Present is satisfied when the element exists in the DOM, rendered or not.
func Present() Condition {
	return Condition{Name: "present", Check: func(o Observation) bool {
		return o.Found
	}}
}

// Visible is satisfied when the element is present and rendered.
func Visible() Condition {
	return Condition{Name: "visible", Check: func(o Observation) bool {
		return o.Found && o.Visible
	}}
}

// Clickable is satisfied when the element is visible, reports itself enabled
// and is not covered by another element.
func Clickable() Condition {
	return Condition{Name: "clickable", Check: func(o Observation) bool {
		return o.Found && o.Visible && o.Enabled && !o.Covered
	}}
}

// TextEquals is satisfied when the element's trimmed rendered text equals s.
func TextEquals(s string) Condition {
	return Condition{Name: "text-equals", Check: func(o Observation) bool {
		return o.Found && o.Text == s
	}}
}

// TextContains is satisfied when the element's rendered text contains s.
func TextContains(s string) Condition {
	return Condition{Name: "text-contains", Check: func(o Observation) bool {
		return o.Found && strings.Contains(o.Text, s)
	}}
}

// AttributeEquals is satisfied when the named attribute has exactly value v.
func AttributeEquals(attr, v string) Condition {
	return Condition{Name: "attribute-equals", Check: func(o Observation) bool {
		return o.Found && o.Attrs[attr] == v
	}}
}

// AnyOf is satisfied when at least one of the conditions is.
func AnyOf(conds ...Condition) Condition {
	return Condition{Name: "any-of", Check: func(o Observation) bool {
		for _, c := range conds {
			if c.Check(o) {
				return true
			}
		}
		return false
	}}
}

// NoneOf is satisfied when none of the conditions are.
func NoneOf(conds ...Condition) Condition {
	return Condition{Name: "none-of", Check: func(o Observation) bool {
		for _, c := range conds {
			if c.Check(o) {
				return false
			}
		}
		return true
	}}
}
