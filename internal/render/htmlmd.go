package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// htmlSnippetToMarkdown converts a small HTML snippet into its inline
// markdown equivalent. The coverage is deliberately limited to the elements
// worth preserving semantics for; anything unrecognised is unwrapped so its
// text content survives.
func htmlSnippetToMarkdown(snippet string) (string, error) {
	nodes, err := parseFragment(snippet)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, node := range nodes {
		out.WriteString(nodeToMarkdown(node))
	}
	return out.String(), nil
}

func nodeToMarkdown(node *html.Node) string {
	switch node.Type {
	case html.TextNode:
		return node.Data
	case html.ElementNode:
		inner := childrenToMarkdown(node)
		switch node.Data {
		case "b", "strong":
			return wrapInline(inner, "**")
		case "i", "em":
			return wrapInline(inner, "*")
		case "del", "s", "strike":
			return wrapInline(inner, "~~")
		case "code", "kbd", "samp":
			return "`" + inner + "`"
		case "a":
			href := attrValue(node, "href")
			if href == "" {
				return inner
			}
			text := strings.TrimSpace(inner)
			if text == "" {
				text = href
			}
			return "[" + text + "](" + href + ")"
		case "img":
			src := attrValue(node, "src")
			if src == "" {
				return ""
			}
			return "![" + attrValue(node, "alt") + "](" + src + ")"
		case "br":
			return "\n"
		case "hr":
			return "\n---\n"
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(node.Data[1] - '0')
			return "\n" + strings.Repeat("#", level) + " " + strings.TrimSpace(inner) + "\n"
		case "p", "div":
			return inner + "\n"
		case "li":
			return "- " + strings.TrimSpace(inner) + "\n"
		case "blockquote":
			return "> " + strings.TrimSpace(inner) + "\n"
		case "script", "style", "head", "meta", "link", "title":
			return ""
		default:
			return inner
		}
	default:
		return childrenToMarkdown(node)
	}
}

func childrenToMarkdown(node *html.Node) string {
	var out strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		out.WriteString(nodeToMarkdown(child))
	}
	return out.String()
}

// wrapInline keeps emphasis markers tight against the wrapped text, moving
// surrounding whitespace outside the markers where renderers require it.
func wrapInline(inner, marker string) string {
	trimmed := strings.TrimSpace(inner)
	if trimmed == "" {
		return inner
	}
	leading := inner[:len(inner)-len(strings.TrimLeft(inner, " \t\n"))]
	trailing := inner[len(strings.TrimRight(inner, " \t\n")):]
	return leading + marker + trimmed + marker + trailing
}

func attrValue(node *html.Node, name string) string {
	for _, attr := range node.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

// parseFragment parses markup as body content, returning the top-level nodes.
func parseFragment(markup string) ([]*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	return html.ParseFragment(strings.NewReader(markup), context)
}
