package schemas

import "strings"

// Cookie is an opaque snapshot of a single browser cookie. The core only
// interprets Name (existence tests) and Expires (coerced to integer seconds
// before restore); everything else is carried verbatim.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
}

// CookieBag is an ordered snapshot of browser cookies, used to carry
// authentication state across a session recycle.
type CookieBag []Cookie

// HasNameContaining reports whether any cookie name contains the substring.
// Session-cookie existence checks match on name fragments ("session") because
// the AUT's exact cookie name is deployment-specific.
func (b CookieBag) HasNameContaining(fragment string) bool {
	for _, c := range b {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(fragment)) {
			return true
		}
	}
	return false
}

// Names returns the cookie names in snapshot order.
func (b CookieBag) Names() []string {
	names := make([]string, len(b))
	for i, c := range b {
		names[i] = c.Name
	}
	return names
}
