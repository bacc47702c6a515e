package resolve

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/goliatone/go-wiki-migrate/internal/state"
	"github.com/goliatone/go-wiki-migrate/pkg/interfaces"
)

var markdownLinkPattern = regexp.MustCompile(`\[([^\]]+)]\(([^)]+)\)`)

// Resolver rewrites intra-corpus references in markdown documents. Link
// targets in the export are relative, URL-encoded paths; prefixing them with
// the migration's source root reconstructs the absolute path the URL map is
// keyed by.
type Resolver struct {
	baseDir string
	urls    interfaces.WikiURLs
}

// NewResolver builds a Resolver for a source root.
func NewResolver(baseDir string, urls interfaces.WikiURLs) *Resolver {
	return &Resolver{
		baseDir: strings.TrimRight(baseDir, "/"),
		urls:    urls,
	}
}

// ResolveLinks replaces every markdown link whose decoded target is present
// in the URL map with its destination URL. Unknown targets are left alone:
// they may be external links, or sources that a later pass will resolve once
// the map has grown.
func (r *Resolver) ResolveLinks(markdown string, urlMap state.URLMap) string {
	return markdownLinkPattern.ReplaceAllStringFunc(markdown, func(match string) string {
		groups := markdownLinkPattern.FindStringSubmatch(match)
		text, target := groups[1], groups[2]

		decoded, err := url.PathUnescape(target)
		if err != nil {
			decoded = target
		}

		if destination, ok := urlMap.Resolve(r.baseDir + decoded); ok {
			return "[" + text + "](" + destination + ")"
		}
		return match
	})
}

// RewriteMediaLinks points image references at the destination's attachment
// download URLs. Only filenames that uploaded successfully are rewritten, so
// a failed upload keeps its local reference for the next run.
func (r *Resolver) RewriteMediaLinks(markdown, pageID string, filenames []string) string {
	for _, filename := range filenames {
		encoded := url.PathEscape(filename)
		attachmentURL := r.urls.AttachmentURL(pageID, encoded)

		pattern := regexp.MustCompile(`!\[([^\]]*)\]\(([^)]*` + regexp.QuoteMeta(encoded) + `)\)`)
		markdown = pattern.ReplaceAllString(markdown, `![$1](`+attachmentURL+`)`)
	}
	return markdown
}
