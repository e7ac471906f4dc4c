package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy removes all HTML tags and attributes.
	strictPolicy = bluemonday.StrictPolicy()

	// ugcPolicy keeps basic formatting (<p>, <b>, <i>, <a>, lists) and drops
	// scripts, iframes, event handlers and style attributes.
	ugcPolicy = bluemonday.UGCPolicy()
)

// Text strips all markup and returns trimmed plain text.
// Use for: user names, event titles, locations.
//
// bluemonday escapes entities in its output; they are decoded again because
// these fields are served as JSON strings, never as HTML.
func Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(input)))
}

// HTML sanitizes rich text, allowing safe formatting tags.
// Use for: event descriptions.
func HTML(input string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(input))
}

// OptionalHTML sanitizes a nullable rich-text field. A value that is empty
// after sanitizing becomes nil.
func OptionalHTML(input *string) *string {
	if input == nil {
		return nil
	}
	clean := HTML(*input)
	if clean == "" {
		return nil
	}
	return &clean
}
