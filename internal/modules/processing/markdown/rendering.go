// Package markdown renders the narrative fields of projects (problem,
// solution, result, learnings) and free text blocks of the site content.
package markdown

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Raw HTML in the source is dropped by goldmark (no WithUnsafe), so the
// rewrites below run on the rendered, already escaped output.
var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
	),
)

var (
	spoilerPattern       = regexp.MustCompile(`\|\|([^|<]+?)\|\|`)
	mentionPattern       = regexp.MustCompile(`\b(GH|IN|IG)@([A-Za-z0-9_-]+)\b`)
	imageTagRegex        = regexp.MustCompile(`(?is)<img\s+[^>]*>`)
	imageAttrRegex       = regexp.MustCompile(`([a-zA-Z:_-]+)\s*=\s*"([^"]*)"`)
	figureParagraphRegex = regexp.MustCompile(`(?is)<p>\s*(<figure>[\s\S]*?</figure>)\s*</p>`)
)

var mentionBase = map[string]string{
	"GH": "https://github.com/",
	"IN": "https://www.linkedin.com/in/",
	"IG": "https://www.instagram.com/",
}

// Render converts markdown to HTML safe for direct inclusion in a page.
func Render(markdownText string) template.HTML {
	src := strings.TrimSpace(markdownText)
	if src == "" {
		return ""
	}

	var out bytes.Buffer
	if err := markdownEngine.Convert([]byte(src), &out); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(src) + "</p>")
	}

	html := out.String()
	html = replaceMention(html)
	html = replaceSpoiler(html)
	html = rewriteImages(html)
	return template.HTML(html)
}

// Excerpt returns the first max runes of the document's plain text, with an
// ellipsis when it was cut. Used by project cards.
func Excerpt(markdownText string, max int) string {
	src := []byte(strings.TrimSpace(markdownText))
	if len(src) == 0 {
		return ""
	}
	doc := markdownEngine.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Kind() == ast.KindParagraph || n.Kind() == ast.KindHeading || n.Kind() == ast.KindListItem {
				b.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.CodeSpan:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					b.Write(t.Segment.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.Image:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	plain := strings.Join(strings.Fields(b.String()), " ")
	if max <= 0 || utf8.RuneCountInString(plain) <= max {
		return plain
	}
	runes := []rune(plain)
	return strings.TrimSpace(string(runes[:max])) + "…"
}

func replaceSpoiler(html string) string {
	return spoilerPattern.ReplaceAllString(html, `<span class="spoiler">$1</span>`)
}

func replaceMention(html string) string {
	return mentionPattern.ReplaceAllStringFunc(html, func(raw string) string {
		match := mentionPattern.FindStringSubmatch(raw)
		if len(match) < 3 {
			return raw
		}
		base := mentionBase[match[1]]
		if base == "" {
			return raw
		}
		return fmt.Sprintf(`<a target="_blank" class="mention" rel="noreferrer nofollow" href="%s%s">%s</a>`, base, match[2], match[2])
	})
}

// rewriteImages lazy-loads every image and turns images whose alt text starts
// with "!" into a figure with the rest of the alt as caption.
func rewriteImages(html string) string {
	processed := imageTagRegex.ReplaceAllStringFunc(html, func(tag string) string {
		attrs := parseImageAttrs(tag)
		src := strings.TrimSpace(attrs["src"])
		if src == "" {
			return tag
		}

		alt := strings.TrimSpace(attrs["alt"])
		if strings.HasPrefix(alt, "!") {
			caption := strings.TrimSpace(strings.TrimPrefix(alt, "!"))
			if caption == "" {
				caption = strings.TrimSpace(attrs["title"])
			}
			return `<figure><img src="` + src + `" alt="` + caption + `" loading="lazy"><figcaption>` + caption + `</figcaption></figure>`
		}
		return `<img src="` + src + `" alt="` + alt + `" loading="lazy">`
	})
	return figureParagraphRegex.ReplaceAllString(processed, "$1")
}

// parseImageAttrs reads attributes off a rendered img tag. Values are already
// HTML escaped by the renderer.
func parseImageAttrs(tag string) map[string]string {
	attrs := make(map[string]string)
	for _, item := range imageAttrRegex.FindAllStringSubmatch(tag, -1) {
		key := strings.ToLower(strings.TrimSpace(item[1]))
		if key != "" {
			attrs[key] = item[2]
		}
	}
	return attrs
}
