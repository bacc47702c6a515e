package render

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var admonitionMarkerPattern = regexp.MustCompile(`^\[!(\w+)\]\s*`)

// admonitionKinds maps source callout kinds onto destination panel macros.
// The source product renders its "note" callout as an info panel on the
// destination, so the note kind maps to info on purpose. Unknown kinds fall
// back to info as well.
var admonitionKinds = map[string]string{
	"note":      "info",
	"warning":   "warning",
	"tip":       "tip",
	"important": "important",
	"caution":   "caution",
}

// ConvertAdmonitions rewrites blockquote paragraphs carrying a [!KIND] marker
// into destination panel macros. Paragraphs without a marker are re-emitted
// as plain paragraphs in their original order; admonitions left empty after
// marker stripping are dropped with a warning.
func ConvertAdmonitions(markup string) (string, []Warning, error) {
	root, err := parseIntoRoot(markup)
	if err != nil {
		return "", nil, err
	}

	var warnings []Warning

	for _, blockquote := range collectElements(root, "blockquote") {
		var replacements []*html.Node

		for _, paragraph := range collectElements(blockquote, "p") {
			marker := admonitionMarkerPattern.FindStringSubmatch(strings.TrimSpace(textContent(paragraph)))
			if marker == nil {
				replacements = append(replacements, paragraph)
				continue
			}

			macroName, ok := admonitionKinds[strings.ToLower(marker[1])]
			if !ok {
				macroName = "info"
			}

			stripMarkerPrefix(paragraph)
			if emptyContent(paragraph) {
				warnings = append(warnings, Warning{
					Stage:   "admonitions",
					Message: fmt.Sprintf("dropping empty %s admonition", macroName),
				})
				continue
			}

			replacements = append(replacements, buildAdmonitionMacro(macroName, paragraph))
		}

		parent := blockquote.Parent
		next := blockquote.NextSibling
		for _, node := range replacements {
			if node.Parent != nil {
				node.Parent.RemoveChild(node)
			}
			if next != nil {
				parent.InsertBefore(node, next)
			} else {
				parent.AppendChild(node)
			}
		}
		parent.RemoveChild(blockquote)
	}

	rendered, err := renderRootChildren(root)
	if err != nil {
		return "", warnings, err
	}
	return rendered, warnings, nil
}

func buildAdmonitionMacro(macroName string, paragraph *html.Node) *html.Node {
	macro := &html.Node{
		Type: html.ElementNode,
		Data: "ac:structured-macro",
		Attr: []html.Attribute{{Key: "ac:name", Val: macroName}},
	}
	body := &html.Node{Type: html.ElementNode, Data: "ac:rich-text-body"}
	content := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}

	for child := paragraph.FirstChild; child != nil; {
		next := child.NextSibling
		paragraph.RemoveChild(child)
		content.AppendChild(child)
		child = next
	}

	body.AppendChild(content)
	macro.AppendChild(body)
	return macro
}

// stripMarkerPrefix removes the [!KIND] marker from the paragraph's leading
// text. The marker is always plain text, so only the first non-empty text
// node needs rewriting.
func stripMarkerPrefix(paragraph *html.Node) {
	var strip func(node *html.Node) bool
	strip = func(node *html.Node) bool {
		if node.Type == html.TextNode {
			trimmed := strings.TrimLeft(node.Data, " \t\n")
			if trimmed == "" {
				return false
			}
			node.Data = admonitionMarkerPattern.ReplaceAllString(trimmed, "")
			return true
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if strip(child) {
				return true
			}
		}
		return false
	}
	strip(paragraph)
}

func emptyContent(node *html.Node) bool {
	if strings.TrimSpace(textContent(node)) != "" {
		return false
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode {
			return false
		}
	}
	return true
}

func textContent(node *html.Node) string {
	if node.Type == html.TextNode {
		return node.Data
	}
	var out strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		out.WriteString(textContent(child))
	}
	return out.String()
}

// collectElements gathers descendant elements with the given tag name in
// document order. The root itself is not considered.
func collectElements(root *html.Node, tag string) []*html.Node {
	var found []*html.Node
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode && child.Data == tag {
				found = append(found, child)
			}
			walk(child)
		}
	}
	walk(root)
	return found
}

// parseIntoRoot parses markup and reparents the fragment under a synthetic
// root so every node has a parent during tree surgery.
func parseIntoRoot(markup string) (*html.Node, error) {
	nodes, err := parseFragment(markup)
	if err != nil {
		return nil, err
	}

	root := &html.Node{Type: html.DocumentNode}
	for _, node := range nodes {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
		root.AppendChild(node)
	}
	return root, nil
}

func renderRootChildren(root *html.Node) (string, error) {
	var out strings.Builder
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&out, child); err != nil {
			return "", err
		}
	}
	return out.String(), nil
}
