package confluence

import (
	"fmt"
	"strings"

	urlkit "github.com/goliatone/go-urlkit"
)

const (
	groupAPIv1 = "api-v1"
	groupAPIv2 = "api-v2"
	groupWiki  = "wiki"
)

const (
	routeSpaces       = "spaces"
	routePrivateSpace = "private-space"
	routeSpace        = "space"
	routeAttachments  = "attachments"
	routePages        = "pages"
	routePage         = "page"
	routeSpaceHome    = "space-home"
	routePageView     = "page-view"
)

// Routes resolves every destination URL the migrator touches: REST endpoints
// for the v1 and v2 APIs plus the public wiki URLs recorded in the URL map.
// URL construction goes through a go-urlkit RouteManager so endpoint shapes
// live in one table instead of being scattered across call sites.
type Routes struct {
	manager *urlkit.RouteManager
	baseURL string
}

// NewRoutes builds the route table for an Atlassian cloud site, e.g.
// domain "acme" resolves against https://acme.atlassian.net/wiki.
func NewRoutes(domain string) *Routes {
	base := fmt.Sprintf("https://%s.atlassian.net/wiki", strings.TrimSpace(domain))

	manager := urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    groupAPIv1,
				BaseURL: base + "/rest/api",
				Paths: map[string]string{
					routeSpaces:       "/space",
					routePrivateSpace: "/space/_private",
					routeSpace:        "/space/:key",
					routeAttachments:  "/content/:id/child/attachment",
				},
			},
			{
				Name:    groupAPIv2,
				BaseURL: base + "/api/v2",
				Paths: map[string]string{
					routePages: "/pages",
					routePage:  "/pages/:id",
				},
			},
			{
				Name:    groupWiki,
				BaseURL: base,
				Paths: map[string]string{
					routeSpaceHome: "/spaces/:key",
					routePageView:  "/spaces/:key/pages/:id/:slug",
				},
			},
		},
	})

	return &Routes{manager: manager, baseURL: base}
}

// BaseURL returns the wiki root, e.g. https://acme.atlassian.net/wiki.
func (r *Routes) BaseURL() string {
	return r.baseURL
}

// SpaceURL returns the public URL of a space's home, used as the URL map
// entry for channel root documents.
func (r *Routes) SpaceURL(spaceKey string) string {
	return r.build(groupWiki, routeSpaceHome, map[string]any{"key": spaceKey})
}

// PageURL returns the public URL of a page. The slug segment is cosmetic on
// the destination side but keeps rewritten links readable.
func (r *Routes) PageURL(spaceKey, pageID, slug string) string {
	if strings.TrimSpace(slug) == "" {
		slug = "untitled"
	}
	return r.build(groupWiki, routePageView, map[string]any{
		"key":  spaceKey,
		"id":   pageID,
		"slug": slug,
	})
}

// AttachmentURL returns the download URL for an uploaded attachment. The
// filename is expected to be URL-encoded already, so the path is assembled
// verbatim rather than routed through the builder.
func (r *Routes) AttachmentURL(pageID, encodedFilename string) string {
	return fmt.Sprintf("%s/download/attachments/%s/%s", r.baseURL, pageID, encodedFilename)
}

func (r *Routes) createSpaceEndpoint(private bool) string {
	if private {
		return r.build(groupAPIv1, routePrivateSpace, nil)
	}
	return r.build(groupAPIv1, routeSpaces, nil)
}

func (r *Routes) spaceEndpoint(key string) string {
	return r.build(groupAPIv1, routeSpace, map[string]any{"key": key})
}

func (r *Routes) attachmentsEndpoint(pageID string) string {
	return r.build(groupAPIv1, routeAttachments, map[string]any{"id": pageID})
}

func (r *Routes) createPageEndpoint() string {
	return r.build(groupAPIv2, routePages, nil)
}

func (r *Routes) pageEndpoint(pageID string) string {
	return r.build(groupAPIv2, routePage, map[string]any{"id": pageID})
}

func (r *Routes) build(group, route string, params map[string]any) string {
	builder := r.manager.Group(group).Builder(route)
	for key, value := range params {
		builder.WithParam(key, value)
	}
	url, err := builder.Build()
	if err != nil {
		// Route tables are static; a build failure is a programming error.
		panic(fmt.Sprintf("confluence: build %s.%s: %v", group, route, err))
	}
	return url
}
