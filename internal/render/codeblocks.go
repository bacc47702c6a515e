package render

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// paragraphWrappedMacro matches a structured macro that ended up nested in a
// paragraph element. The destination's storage grammar does not allow block
// macros inside paragraphs, so the wrapper is peeled off after conversion.
var paragraphWrappedMacro = regexp.MustCompile(`<p>\s*(<ac:structured-macro[\s\S]+?</ac:structured-macro>)\s*</p>`)

// ConvertCodeBlocks replaces every multi-line <pre><code> block with a
// destination code macro carrying the block's language hint and its body in a
// literal CDATA region. Single-line code spans stay as-is. Parse failures
// leave the document unchanged; the stage is best-effort like the rest of the
// pipeline.
func ConvertCodeBlocks(markup string) string {
	root, err := parseIntoRoot(markup)
	if err != nil {
		return markup
	}

	replacements := map[string]string{}

	for i, pre := range collectElements(root, "pre") {
		code := firstElementChild(pre, "code")
		if code == nil {
			continue
		}

		text := textContent(code)
		if !strings.Contains(text, "\n") {
			continue
		}

		placeholder := fmt.Sprintf("__CODEBLOCK_%d__", i)
		macro := buildCodeMacro(languageHint(code), placeholder)

		parent := pre.Parent
		parent.InsertBefore(macro, pre)
		parent.RemoveChild(pre)

		body := strings.Join(strings.Split(strings.Trim(text, "\n"), "\n"), "\n")
		replacements[placeholder] = "<![CDATA[" + body + "]]>"
	}

	rendered, err := renderRootChildren(root)
	if err != nil {
		return markup
	}

	for placeholder, cdata := range replacements {
		rendered = strings.Replace(rendered, placeholder, cdata, 1)
	}

	return paragraphWrappedMacro.ReplaceAllString(rendered, "$1")
}

func buildCodeMacro(language, placeholder string) *html.Node {
	macro := &html.Node{
		Type: html.ElementNode,
		Data: "ac:structured-macro",
		Attr: []html.Attribute{{Key: "ac:name", Val: "code"}},
	}

	if language != "" {
		param := &html.Node{
			Type: html.ElementNode,
			Data: "ac:parameter",
			Attr: []html.Attribute{{Key: "ac:name", Val: "language"}},
		}
		param.AppendChild(&html.Node{Type: html.TextNode, Data: language})
		macro.AppendChild(param)
	}

	body := &html.Node{Type: html.ElementNode, Data: "ac:plain-text-body"}
	body.AppendChild(&html.Node{Type: html.TextNode, Data: placeholder})
	macro.AppendChild(body)

	return macro
}

// languageHint extracts the language from a highlight class like
// "language-python".
func languageHint(code *html.Node) string {
	for _, attr := range code.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, class := range strings.Fields(attr.Val) {
			if lang, ok := strings.CutPrefix(class, "language-"); ok {
				return strings.TrimSpace(lang)
			}
		}
	}
	return ""
}

func firstElementChild(node *html.Node, tag string) *html.Node {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.Data == tag {
			return child
		}
	}
	return nil
}
