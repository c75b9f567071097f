package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// md renders CommonMark with linkify so product URLs in captions are
// clickable. Raw HTML from the model is dropped by goldmark's default
// renderer.
var md = goldmark.New(
	goldmark.WithExtensions(extension.Linkify),
)

// Markdown converts src to HTML.
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// Candidate renders a caption card body: a bold "Option N" label followed by
// the caption text. index is zero-based.
func Candidate(index int, text string) (string, error) {
	return Markdown(fmt.Sprintf("**Option %d**\n\n%s", index+1, text))
}
