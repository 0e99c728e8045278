// Package sanitize strips HTML-like markup from user-supplied free text
// before it is persisted or mirrored into external systems.
package sanitize

import (
	"regexp"
	"strings"
)

var tagRe = regexp.MustCompile(`<[^>]*>`)

// Text removes anything that looks like an HTML tag and trims surrounding
// whitespace. The inner text of tags is preserved.
func Text(s string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(s, ""))
}
