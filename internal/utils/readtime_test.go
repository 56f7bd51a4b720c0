package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadingTime(t *testing.T) {
	assert.Equal(t, 0, ReadingTime(""))
	assert.Equal(t, 1, ReadingTime("<p></p>"))
	assert.Equal(t, 1, ReadingTime("<p>just a few words</p>"))
	assert.Equal(t, 1, ReadingTime(strings.Repeat("word ", 200)))
	assert.Equal(t, 2, ReadingTime(strings.Repeat("word ", 201)))
	// tags must not glue neighbouring words together
	assert.Equal(t, 2, ReadingTime(strings.Repeat("<b>word</b><i>word</i>", 150)))
}
