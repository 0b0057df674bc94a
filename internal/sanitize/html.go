package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy removes all HTML tags and attributes.
	StrictPolicy = bluemonday.StrictPolicy()

	// UGCPolicy allows basic formatting (<p>, <b>, <a>, lists).
	UGCPolicy = bluemonday.UGCPolicy()
)

// Text strips all HTML tags. The result is still entity-escaped and safe to
// embed in markup.
func Text(input string) string {
	return StrictPolicy.Sanitize(input)
}

// PlainText strips all HTML tags and decodes entities, giving the text a
// user would have typed. Use for values stored and escaped again on output.
func PlainText(input string) string {
	return strings.TrimSpace(html.UnescapeString(StrictPolicy.Sanitize(input)))
}

// HTML sanitizes HTML content, allowing safe formatting tags.
func HTML(input string) string {
	return UGCPolicy.Sanitize(input)
}

// TextSlice applies PlainText to each entry and drops the ones left blank.
func TextSlice(inputs []string) []string {
	out := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if cleaned := PlainText(input); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
