package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateTextWithinLimit(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "short", tp.TruncateText("short", 100))
	assert.Equal(t, "no limit", tp.TruncateText("no limit", 0))
}

func TestTruncateTextAddsMarker(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	out := tp.TruncateText(strings.Repeat("a", 200), 50)
	assert.True(t, strings.HasPrefix(out, strings.Repeat("a", 50)))
	assert.Contains(t, out, "Content truncated")
}

func TestTruncateTextKeepsValidUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	// Cut in the middle of a multi-byte rune
	out := tp.TruncateText(strings.Repeat("ä", 100), 51)
	assert.True(t, utf8.ValidString(out))
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractJSONObject(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, ExtractJSONObject("Sure, here it is:\n```json\n{\"a\":1}\n```\nDone."))
	assert.Equal(t, `{"a":{"b":2}}`, ExtractJSONObject(`prefix {"a":{"b":2}} suffix`))
	assert.Equal(t, "no json here", ExtractJSONObject("no json here"))
}
