package utils

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/width"
)

var (
	controlChars   = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	fileNameUnsafe = regexp.MustCompile(`[\\/:*?"<>|]`)
)

var (
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// SanitizeText cleans a free-text form field: control characters are removed
// and surrounding whitespace trimmed. Everything else, including "<", "&" and
// full-width characters, is kept as typed; the document renderer escapes it.
func SanitizeText(s string) string {
	return strings.TrimSpace(SanitizeString(s))
}

// NormalizeIdentifier sanitizes a numeric identifier such as a tax ID and folds
// full-width characters to their ASCII forms, e.g. "１２３４５６７８" -> "12345678".
func NormalizeIdentifier(s string) string {
	return strings.TrimSpace(width.Fold.String(SanitizeText(s)))
}

// StripMarkup removes HTML markup from text that is echoed back to a browser,
// such as an error message quoting user input. Entities are decoded again so
// "A & B" stays "A & B".
func StripMarkup(s string) string {
	markupPolicyOnce.Do(func() {
		markupPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(markupPolicy.Sanitize(s)))
}

// SanitizeFileName returns a filesystem-safe file name.
// Path separators, reserved characters, ".." and control characters are removed; CJK text is kept.
func SanitizeFileName(name string) string {
	name = SanitizeString(name)
	name = strings.ReplaceAll(name, "..", "")
	name = fileNameUnsafe.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}
