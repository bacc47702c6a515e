package render

import (
	"fmt"
	"regexp"
	"strings"
)

// validHTMLTags lists the standard element names the sanitiser is willing to
// convert to markdown. Anything else found in tag position is treated as
// accidental markup (pasted generics, pseudo-tags in prose) and escaped.
var validHTMLTags = map[string]struct{}{}

func init() {
	for _, tag := range []string{
		"a", "abbr", "address", "area", "article", "aside", "audio", "b", "base", "bdi", "bdo", "blockquote",
		"body", "br", "button", "canvas", "caption", "cite", "code", "col", "colgroup", "data", "datalist",
		"dd", "del", "details", "dfn", "dialog", "div", "dl", "dt", "em", "embed", "fieldset", "figcaption",
		"figure", "footer", "form", "h1", "h2", "h3", "h4", "h5", "h6", "head", "header", "hr", "html", "i",
		"iframe", "img", "input", "ins", "kbd", "label", "legend", "li", "link", "main", "map", "mark",
		"meta", "meter", "nav", "noscript", "object", "ol", "optgroup", "option", "output", "p", "param",
		"picture", "pre", "progress", "q", "rp", "rt", "ruby", "s", "samp", "script", "section", "select",
		"small", "source", "span", "strong", "style", "sub", "summary", "sup", "table", "tbody", "td",
		"template", "textarea", "tfoot", "th", "thead", "time", "title", "tr", "track", "u", "ul", "var",
		"video", "wbr",
	} {
		validHTMLTags[tag] = struct{}{}
	}
}

var (
	fencedCodePattern = regexp.MustCompile("```[\\s\\S]+?```")
	inlineCodePattern = regexp.MustCompile("`[^`]+`")
	openTagPattern    = regexp.MustCompile(`<\s*([a-zA-Z][a-zA-Z0-9]*)\b[^>]*/?>`)
)

// Sanitizer converts stray HTML embedded in markdown into markdown
// equivalents where the tag is recognisable, and escapes the angle brackets
// of anything tag-shaped that is not real HTML so it survives rendering as
// literal text. Code spans are excluded from the scan; autolink-looking
// snippets are left alone.
type Sanitizer struct{}

// NewSanitizer constructs a Sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Sanitize applies the tag scan to content. The pass is idempotent: escaped
// brackets no longer match the tag pattern and converted markdown contains no
// tags, so sanitising its own output changes nothing.
func (s *Sanitizer) Sanitize(content string) (string, []Warning) {
	var warnings []Warning

	scanned := removeCodeSpans(content)

	for _, snippet := range findTagSnippets(scanned) {
		if _, ok := validHTMLTags[snippet.tag]; !ok {
			if strings.Contains(snippet.text, "http") {
				// Leave autolinks like <https://example.com> alone.
				continue
			}
			escaped := strings.ReplaceAll(strings.ReplaceAll(snippet.text, "<", "&lt;"), ">", "&gt;")
			content = strings.ReplaceAll(content, snippet.text, escaped)
			warnings = append(warnings, Warning{
				Stage:   "sanitize",
				Message: fmt.Sprintf("escaped non-HTML tag snippet %q", snippet.text),
			})
			continue
		}

		converted, err := htmlSnippetToMarkdown(snippet.text)
		if err != nil {
			warnings = append(warnings, Warning{
				Stage:   "sanitize",
				Message: fmt.Sprintf("could not convert %q, leaving as-is: %v", snippet.text, err),
			})
			continue
		}
		content = strings.ReplaceAll(content, snippet.text, converted)
	}

	return content, warnings
}

type tagSnippet struct {
	tag  string
	text string
}

// findTagSnippets locates HTML-like regions: an opening tag together with its
// first matching close tag on the same line, or the lone tag otherwise. Close
// tags on later lines are not paired, so a stray open tag never swallows the
// rest of the document.
func findTagSnippets(text string) []tagSnippet {
	var snippets []tagSnippet
	seen := map[string]struct{}{}

	for _, loc := range openTagPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		tag := strings.ToLower(text[loc[2]:loc[3]])

		snippet := text[start:end]
		rest := text[end:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		closing := "</" + tag + ">"
		if idx := strings.Index(strings.ToLower(rest), closing); idx >= 0 {
			snippet = text[start : end+idx+len(closing)]
		}

		if _, dup := seen[snippet]; dup {
			continue
		}
		seen[snippet] = struct{}{}
		snippets = append(snippets, tagSnippet{tag: tag, text: snippet})
	}

	return snippets
}

// removeCodeSpans blanks fenced blocks and inline code so tags inside code
// never trigger sanitisation of the surrounding document.
func removeCodeSpans(text string) string {
	text = fencedCodePattern.ReplaceAllString(text, "")
	return inlineCodePattern.ReplaceAllString(text, "")
}
