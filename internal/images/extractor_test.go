package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFromHTMLFindsHTTPSImages(t *testing.T) {
	e := NewExtractor(nil, 10, zap.NewNop())

	html := `<div><img src="https://cdn.example.com/a.png" alt="a"><img src='https://cdn.example.com/b.jpg'></div>`
	refs := e.FromHTML(html, "m1")

	require.Len(t, refs, 2)
	assert.Equal(t, "https://cdn.example.com/a.png", refs[0].ExternalURL)
	assert.Equal(t, 1, refs[0].ImageIndex)
	assert.Equal(t, "https://cdn.example.com/b.jpg", refs[1].ExternalURL)
	assert.Equal(t, 2, refs[1].ImageIndex)
	assert.Equal(t, "m1", refs[0].MessageID)
}

func TestFromHTMLSkipsNonHTTPS(t *testing.T) {
	e := NewExtractor(nil, 10, zap.NewNop())

	html := `<img src="http://example.com/a.png">` +
		`<img src="cid:inline-image-1">` +
		`<img src="data:image/png;base64,AAAA">`
	assert.Empty(t, e.FromHTML(html, "m1"))
}

func TestFromHTMLHonoursAllowlist(t *testing.T) {
	e := NewExtractor([]string{"example.com"}, 10, zap.NewNop())

	html := `<img src="https://cdn.example.com/ok.png"><img src="https://evil.test/bad.png">`
	refs := e.FromHTML(html, "m1")

	require.Len(t, refs, 1)
	assert.Equal(t, "https://cdn.example.com/ok.png", refs[0].ExternalURL)
}

func TestFromHTMLAllowlistExactAndSubdomainOnly(t *testing.T) {
	e := NewExtractor([]string{"example.com"}, 10, zap.NewNop())

	// notexample.com must not match by suffix
	html := `<img src="https://notexample.com/a.png"><img src="https://example.com/b.png">`
	refs := e.FromHTML(html, "m1")

	require.Len(t, refs, 1)
	assert.Equal(t, "https://example.com/b.png", refs[0].ExternalURL)
}

func TestFromHTMLCapsPerMessage(t *testing.T) {
	e := NewExtractor(nil, 2, zap.NewNop())

	html := `<img src="https://x.test/1.png"><img src="https://x.test/2.png"><img src="https://x.test/3.png">`
	assert.Len(t, e.FromHTML(html, "m1"), 2)
}

func TestFromHTMLEmptyContent(t *testing.T) {
	e := NewExtractor(nil, 10, zap.NewNop())
	assert.Empty(t, e.FromHTML("", "m1"))
	assert.Empty(t, e.FromHTML("<p>no images here</p>", "m1"))
}
