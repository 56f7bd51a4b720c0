package utils

import (
	"regexp"
	"strings"
)

const wordsPerMinute = 200

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// ReadingTime estimates minutes to read HTML content at 200 words per
// minute. Non-empty content is never shorter than one minute.
func ReadingTime(content string) int {
	if content == "" {
		return 0
	}
	words := len(strings.Fields(htmlTag.ReplaceAllString(content, " ")))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
