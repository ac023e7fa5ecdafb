package events

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncatePreviewShortTextUntouched(t *testing.T) {
	assert.Equal(t, "hello", truncatePreview("hello"))
	assert.Equal(t, "", truncatePreview(""))
}

func TestTruncatePreviewCutsLongText(t *testing.T) {
	long := strings.Repeat("a", 500)

	preview := truncatePreview(long)
	assert.Len(t, preview, previewRunes)
}

func TestTruncatePreviewKeepsRunesIntact(t *testing.T) {
	// Multi-byte runes around the cut point must not be split mid-sequence.
	long := strings.Repeat("é", 500)

	preview := truncatePreview(long)
	assert.True(t, utf8.ValidString(preview))
	assert.Equal(t, previewRunes, utf8.RuneCountInString(preview))
	assert.Equal(t, strings.Repeat("é", previewRunes), preview)
}
