package provider

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// stripPolicy removes every tag but keeps element text, so hyperlinks are
// flattened to their visible anchor text rather than dropped.
var stripPolicy = bluemonday.StrictPolicy()

// CleanHTML strips markup from raw and collapses the result to a single
// plain-text line. Input without markup is just trimmed and collapsed. If
// sanitization panics on pathological input the raw trimmed string is
// returned instead, never an error.
func CleanHTML(raw string) (out string) {
	trimmed := collapseWhitespace(raw)
	if trimmed == "" {
		return ""
	}
	defer func() {
		if recover() != nil {
			out = trimmed
		}
	}()

	if !strings.Contains(trimmed, "<") {
		return html.UnescapeString(trimmed)
	}
	return collapseWhitespace(html.UnescapeString(stripPolicy.Sanitize(raw)))
}

func collapseWhitespace(in string) string {
	return strings.Join(strings.Fields(in), " ")
}
