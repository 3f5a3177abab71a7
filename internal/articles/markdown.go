package articles

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// commentMarkdown renders comment payloads. html.WithUnsafe is not set, so
// raw HTML and javascript: links in a comment are dropped from the output.
// Hard wraps keep the line breaks a reader typed.
var commentMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderMarkdown converts a comment payload to HTML. If conversion fails the
// escaped source is returned.
func RenderMarkdown(src []byte) template.HTML {
	var buf bytes.Buffer
	if err := commentMarkdown.Convert(src, &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(string(src)))
	}
	return template.HTML(buf.String())
}
