package utils

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithXHTML(),
		),
	)
	policy = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

func init() {
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown turns user-written markdown into sanitized HTML.
func RenderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return html.EscapeString(source)
	}
	return string(policy.SanitizeBytes(buf.Bytes()))
}

// PlainText strips every tag, used for notification and e-mail snippets.
func PlainText(source string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(source)))
}

// Excerpt shortens s to at most n runes, appending an ellipsis when cut.
func Excerpt(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}
