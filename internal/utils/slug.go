package utils

import (
	"regexp"
	"strings"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// DeriveSlug lower-cases title, collapses every run of characters outside
// [a-z0-9] into one "-" and trims a leading or trailing "-".
// It does not check uniqueness.
func DeriveSlug(title string) string {
	slug := nonSlugRun.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}
