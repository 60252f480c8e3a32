// File: internal/browser/locator.go
package browser

import (
	"fmt"

	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"

	"github.com/veraqa/shoptest/api/schemas"
)

// queryOptions translates a Locator into a chromedp element query. Link-text
// locators become an exact-text xpath; everything else maps directly onto a
// chromedp selector strategy.
func queryOptions(loc schemas.Locator) (string, chromedp.QueryOption, error) {
	switch loc.Strategy {
	case schemas.ByID:
		return loc.Value, chromedp.ByID, nil
	case schemas.ByCSS:
		return loc.Value, chromedp.ByQuery, nil
	case schemas.ByXPath:
		return loc.Value, chromedp.BySearch, nil
	case schemas.ByLinkText:
		return linkTextXPath(loc.Value), chromedp.BySearch, nil
	default:
		return "", nil, fmt.Errorf("unknown locator strategy %q", loc.Strategy)
	}
}

func linkTextXPath(text string) string {
	// normalize-space matches the trimmed rendered text, which is what a
	// link-text selector means in WebDriver terms.
	return fmt.Sprintf(`//a[normalize-space(text())=%s]`, xpathLiteral(text))
}

// xpathLiteral quotes a string for use inside an XPath expression. XPath 1.0
// has no escape syntax, so a value containing both quote kinds needs concat().
func xpathLiteral(s string) string {
	hasSingle, hasDouble := false, false
	for _, r := range s {
		switch r {
		case '\'':
			hasSingle = true
		case '"':
			hasDouble = true
		}
	}
	switch {
	case !hasSingle:
		return "'" + s + "'"
	case !hasDouble:
		return `"` + s + `"`
	default:
		out := "concat("
		for i, r := range s {
			if i > 0 {
				out += ","
			}
			if r == '\'' {
				out += `"'"`
			} else {
				out += "'" + string(r) + "'"
			}
		}
		return out + ")"
	}
}

// probeScript builds the JavaScript expression the wait loop evaluates on
// every tick. It resolves the locator fresh each time (no cached handles) and
// reports everything a condition can ask about in a single round trip.
func probeScript(loc schemas.Locator) (string, error) {
	locJSON, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(loc)
	if err != nil {
		return "", fmt.Errorf("failed to encode locator: %w", err)
	}

	// Link-text needs XPath-side quoting (xpathLiteral), so the expression is
	// built here rather than in the page; JSON string escapes are not valid
	// inside an XPath literal.
	xpathExpr := loc.Value
	if loc.Strategy == schemas.ByLinkText {
		xpathExpr = linkTextXPath(loc.Value)
	}
	exprJSON, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(xpathExpr)
	if err != nil {
		return "", fmt.Errorf("failed to encode xpath expression: %w", err)
	}

	return fmt.Sprintf(`(() => {
	const loc = %s;
	let el = null;
	switch (loc.strategy) {
	case "id":
		el = document.getElementById(loc.value);
		break;
	case "css":
		el = document.querySelector(loc.value);
		break;
	case "xpath":
	case "link-text": {
		const r = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
		el = r.singleNodeValue;
		break;
	}
	}
	if (!el) {
		return { found: false };
	}
	const style = window.getComputedStyle(el);
	const rect = el.getBoundingClientRect();
	const rendered = style.display !== "none" && style.visibility !== "hidden" &&
		rect.width > 0 && rect.height > 0;
	let covered = false;
	if (rendered) {
		const cx = rect.left + rect.width / 2;
		const cy = rect.top + rect.height / 2;
		const top = document.elementFromPoint(cx, cy);
		covered = top !== null && top !== el && !el.contains(top) && !top.contains(el);
	}
	const attrs = {};
	for (const a of el.attributes) {
		attrs[a.name] = a.value;
	}
	if ("value" in el) {
		attrs["value"] = el.value;
	}
	return {
		found: true,
		visible: rendered,
		enabled: !el.disabled,
		covered: covered,
		text: (el.innerText || el.textContent || "").trim(),
		attrs: attrs,
	};
})()`, locJSON, exprJSON), nil
}
