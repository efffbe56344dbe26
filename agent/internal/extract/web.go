// CLAUDE:SUMMARY Web page extractor — title via DOM walk, body via markdown conversion with plain-text fallback.
package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const webMaxBodyLen = 1000

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// extractWeb builds an excerpt from an HTML page: the <title> text plus a
// bounded prefix of the body. Markdown conversion is preferred for
// structure; when it fails or produces nothing, visible plain text is used.
// A page missing its title or body still yields an excerpt.
func extractWeb(payload []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("html parse: %w", err)
	}

	title := findHTMLTitle(doc)

	body := htmlToMarkdown(string(payload))
	if body == "" {
		body = collectHTMLText(doc)
	}
	body = truncate(strings.TrimSpace(body), webMaxBodyLen)

	var sb strings.Builder
	sb.WriteString("Title: ")
	sb.WriteString(title)
	sb.WriteByte('\n')
	sb.WriteString(body)
	return sb.String(), nil
}

// htmlToMarkdown converts HTML to markdown, returning "" on failure.
func htmlToMarkdown(raw string) string {
	result, err := mdConverter.ConvertString(raw)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(result)
}

var hiddenStylePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
}

func hasHiddenStyle(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "style" {
			for _, pat := range hiddenStylePatterns {
				if pat.MatchString(a.Val) {
					return true
				}
			}
		}
	}
	return false
}

// findHTMLTitle extracts the <title> text.
func findHTMLTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findHTMLTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// collectHTMLText extracts all visible text from a node subtree,
// skipping script/style blocks and inline-hidden elements.
func collectHTMLText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
			if hasHiddenStyle(n) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
