package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidate(t *testing.T) {
	html, err := Candidate(0, "Great shoes! 🎉")
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>Option 1</strong>")
	assert.Contains(t, html, "<p>Great shoes! 🎉</p>")
}

func TestMarkdownDropsRawHTML(t *testing.T) {
	html, err := Markdown("Buy now <script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestMarkdownLinkify(t *testing.T) {
	html, err := Markdown("Shop at https://example.com today")
	require.NoError(t, err)
	assert.Contains(t, html, `<a href="https://example.com">`)
}
