package render

import (
	"regexp"
	"strings"
)

// duplicateLinkPattern matches the export artefact where an autolink line is
// immediately followed by a markdown link whose visible text is the same URL
// wrapped in escaped brackets.
var duplicateLinkPattern = regexp.MustCompile(`(<https.*>|https.*)\n*(\[\\\[(http.*)\\]]\(http.*\))`)

// CollapseDuplicateLinks folds the autolink-plus-markdown-link pair down to a
// single canonical markdown link when both URLs agree. Pairs with differing
// URLs are left untouched in their original order.
func CollapseDuplicateLinks(content string) string {
	return duplicateLinkPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := duplicateLinkPattern.FindStringSubmatch(match)
		rawLink := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(groups[1]), "<"), ">")
		markdownURL := strings.TrimSpace(groups[3])

		if rawLink == markdownURL {
			return "[" + rawLink + "](" + rawLink + ")"
		}
		return match
	})
}

// ConvertBangAdmonitions rewrites the export's "!!" callout lines into the
// blockquote admonition shape the macro conversion stage consumes. The
// export's bang syntax carries no kind, so everything lands as a NOTE.
func ConvertBangAdmonitions(content string) string {
	lines := strings.Split(content, "\n")
	converted := make([]string, 0, len(lines))

	for _, line := range lines {
		if strings.HasPrefix(line, "!!") {
			converted = append(converted, "> [!NOTE]")
			converted = append(converted, "> "+strings.TrimSpace(line[2:]))
			continue
		}
		converted = append(converted, line)
	}

	return strings.Join(converted, "\n")
}
