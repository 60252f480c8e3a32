// File: internal/browser/locator_test.go
package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veraqa/shoptest/api/schemas"
)

func TestQueryOptionsStrategies(t *testing.T) {
	sel, opt, err := queryOptions(schemas.ID("email"))
	require.NoError(t, err)
	assert.Equal(t, "email", sel)
	assert.NotNil(t, opt)

	sel, _, err = queryOptions(schemas.CSS(".alert-danger"))
	require.NoError(t, err)
	assert.Equal(t, ".alert-danger", sel)

	sel, _, err = queryOptions(schemas.XPath("//form[@id='login-form']"))
	require.NoError(t, err)
	assert.Equal(t, "//form[@id='login-form']", sel)

	sel, _, err = queryOptions(schemas.LinkText("Logout"))
	require.NoError(t, err)
	assert.Equal(t, `//a[normalize-space(text())='Logout']`, sel)

	_, _, err = queryOptions(schemas.Locator{Strategy: "partial-link", Value: "x"})
	require.Error(t, err)
}

func TestXPathLiteralQuoting(t *testing.T) {
	assert.Equal(t, "'Logout'", xpathLiteral("Logout"))
	assert.Equal(t, `"it's here"`, xpathLiteral("it's here"))
	assert.Equal(t, `'say "hi"'`, xpathLiteral(`say "hi"`))

	// Both quote kinds force concat().
	lit := xpathLiteral(`it's "both"`)
	assert.Contains(t, lit, "concat(")
	assert.Contains(t, lit, `"'"`)
}

func TestProbeScriptEmbedsLocator(t *testing.T) {
	script, err := probeScript(schemas.CSS("#cart .qty"))
	require.NoError(t, err)
	assert.Contains(t, script, `"strategy":"css"`)
	assert.Contains(t, script, `#cart .qty`)
	assert.Contains(t, script, "elementFromPoint")

	script, err = probeScript(schemas.LinkText("Logout"))
	require.NoError(t, err)
	assert.Contains(t, script, `"strategy":"link-text"`)
	assert.Contains(t, script, `normalize-space(text())='Logout'`)
}

func TestProbeScriptQuotesLinkTextWithXPathRules(t *testing.T) {
	// A double quote in the link text must be quoted by XPath rules inside
	// the expression; the JS string layer only sees the finished literal.
	script, err := probeScript(schemas.LinkText(`Say "Hello"`))
	require.NoError(t, err)
	assert.NotContains(t, script, "JSON.stringify")
	assert.Contains(t, script, `normalize-space(text())='Say \"Hello\"'`)

	script, err = probeScript(schemas.LinkText(`it's "both"`))
	require.NoError(t, err)
	assert.Contains(t, script, "concat(")
}
