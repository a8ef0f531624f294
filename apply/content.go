package apply

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"golang.org/x/net/html"
)

// Pre-compiled regexes to avoid ReDoS with runtime compilation
var (
	scriptRe         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	excessiveLinesRe = regexp.MustCompile(`\n{3,}`)
)

// PageText extracts the readable text of a rendered page for success
// detection. Scripts, styles, and hidden chrome are stripped before
// conversion.
type PageText struct {
	converter *md.Converter
}

// NewPageText creates a page text extractor.
func NewPageText() *PageText {
	return &PageText{converter: md.NewConverter("", true, nil)}
}

// Extract returns the page's readable text, lowercased for phrase
// matching.
func (p *PageText) Extract(htmlContent string) string {
	cleaned := stripNonContent(htmlContent)

	text, err := p.converter.ConvertString(cleaned)
	if err != nil {
		// Fall back to regex cleanup when conversion fails
		text = basicHTMLCleanup(htmlContent)
	}

	text = excessiveLinesRe.ReplaceAllString(text, "\n\n")
	return strings.ToLower(strings.TrimSpace(text))
}

// stripNonContent removes elements that never carry confirmation text.
func stripNonContent(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return basicHTMLCleanup(content)
	}

	removeElements(doc, []string{
		"script", "style", "noscript", "iframe", "object", "embed",
		"nav", "aside",
	})

	if body := findElement(doc, "body"); body != nil {
		return renderNode(body)
	}
	return content
}

// findElement finds the first element with the given tag name.
func findElement(n *html.Node, tag string) *html.Node {
	var result *html.Node
	var find func(*html.Node)
	find = func(node *html.Node) {
		if result != nil {
			return
		}
		if node.Type == html.ElementNode && node.Data == tag {
			result = node
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(n)
	return result
}

// removeElements removes all elements with the given tag names.
func removeElements(n *html.Node, tags []string) {
	tagSet := make(map[string]bool)
	for _, tag := range tags {
		tagSet[tag] = true
	}

	var toRemove []*html.Node
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode && tagSet[node.Data] {
			toRemove = append(toRemove, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	for _, node := range toRemove {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

// renderNode renders a node and its children back to an HTML string.
func renderNode(n *html.Node) string {
	var sb strings.Builder
	html.Render(&sb, n)
	return sb.String()
}

// basicHTMLCleanup strips script and style blocks when parsing fails.
func basicHTMLCleanup(content string) string {
	content = scriptRe.ReplaceAllString(content, "")
	content = styleRe.ReplaceAllString(content, "")
	return content
}
