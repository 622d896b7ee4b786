// Package markdown renders translated chapters for the html output format
// and flattens markup back to text.
package markdown

import (
	"html"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// ToHTML renders md with the common extensions. Chapter prose has one
// paragraph per blank-line block, so each becomes a <p>.
func ToHTML(md []byte) string {
	opts := mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	}
	renderer := mdhtml.NewRenderer(opts)
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Attributes)
	return string(markdown.Render(p.Parse(md), renderer))
}

var (
	reBlockBreak = regexp.MustCompile(`(?i)<br\s*/?>|</p\s*>|</div\s*>`)
	reTag        = regexp.MustCompile(`</?[A-Za-z][^>]*>`)
)

// StripHTMLTags removes element tags and decodes entities. Line breaks and
// paragraph ends become newlines; a bare "<" in prose is kept.
func StripHTMLTags(htmlContent string) string {
	text := reBlockBreak.ReplaceAllString(htmlContent, "\n")
	text = reTag.ReplaceAllString(text, "")
	return strings.TrimSpace(html.UnescapeString(text))
}
