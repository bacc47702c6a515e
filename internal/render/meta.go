package render

import (
	"bytes"
	"strings"

	"github.com/adrg/frontmatter"
)

// metaBlockLines is the size of the metadata block the Slite export prepends
// to every document: a blank line, title, created at, updated at, a "---"
// separator, and a trailing blank line. The export gives no delimiter before
// the block, so the strip is positional. A document shorter than the block
// strips to empty; that fragility is a property of the export format itself.
const metaBlockLines = 6

// StripMetadata removes the export's leading metadata from a document.
// Documents carrying a regular delimited front-matter block are stripped via
// front-matter parsing instead, so re-exports that adopt the standard format
// keep working.
func StripMetadata(content string) string {
	if strings.HasPrefix(strings.TrimLeft(content, "\n"), "---\n") {
		var meta struct {
			Title string `yaml:"title"`
		}
		rest, err := frontmatter.Parse(bytes.NewReader([]byte(content)), &meta)
		if err == nil && len(rest) < len(content) {
			return strings.TrimLeft(string(rest), "\n")
		}
	}

	lines := strings.Split(content, "\n")
	if len(lines) <= metaBlockLines {
		return ""
	}
	return strings.TrimLeft(strings.Join(lines[metaBlockLines:], "\n"), " \t\n")
}
