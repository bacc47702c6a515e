package state

import (
	"sort"
	"strings"
)

// Kind tags a migration unit. Channels map to destination spaces, pages to
// destination pages. Traversals switch exhaustively on Kind so a new unit
// kind is a compile-visible addition rather than a stringly-typed surprise.
type Kind string

const (
	KindChannel Kind = "channel"
	KindPage    Kind = "page"
)

// MediaStatus tracks one attachment file of a page. Uploaded transitions
// false to true exactly once; a failed upload records Error and is retried on
// the next run.
type MediaStatus struct {
	Uploaded bool   `json:"uploaded"`
	Error    string `json:"error,omitempty"`
}

// Unit is a node in the migration tree. A channel unit carries the
// space-level fields, a page unit the page-level ones; both share the
// completion flags that make every phase resumable.
type Unit struct {
	Kind Kind `json:"type"`

	// Channel fields.
	Private       bool   `json:"private,omitempty"`
	SpaceKey      string `json:"space_key,omitempty"`
	SpaceID       string `json:"space_id,omitempty"`
	SpaceCreated  bool   `json:"space_created,omitempty"`
	TitlesDeduped bool   `json:"titles_deduped,omitempty"`

	// Page fields. Parent holds the parent page title and stays empty when
	// the parent is the channel itself.
	Parent   string `json:"parent,omitempty"`
	ParentID string `json:"parent_id,omitempty"`

	// Shared fields.
	Path            string                  `json:"path"`
	PageID          string                  `json:"page_id,omitempty"`
	Uploaded        bool                    `json:"uploaded"`
	Media           map[string]*MediaStatus `json:"media_uploaded"`
	MediaLinksFixed bool                    `json:"media_links_fixed"`
	LinksFixed      bool                    `json:"links_fixed"`
	Children        map[string]*Unit        `json:"children"`
}

// Structure is the persisted migration tree, keyed by channel name.
type Structure map[string]*Unit

// ChannelNames returns channel names in deterministic tree order.
func (s Structure) ChannelNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ChildTitles returns the unit's child titles in deterministic tree order.
func (u *Unit) ChildTitles() []string {
	titles := make([]string, 0, len(u.Children))
	for title := range u.Children {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// PendingMedia reports whether any attachment of the unit still needs an
// upload attempt.
func (u *Unit) PendingMedia() bool {
	for _, status := range u.Media {
		if !status.Uploaded {
			return true
		}
	}
	return false
}

// MediaFilenames returns attachment filenames in deterministic order.
func (u *Unit) MediaFilenames() []string {
	names := make([]string, 0, len(u.Media))
	for name := range u.Media {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WalkFunc visits one page unit. Title is the unit's key in its parent's
// child map; returning a non-nil error stops the walk.
type WalkFunc func(title string, unit *Unit) error

// WalkPages traverses the unit's page subtree depth-first in tree order.
// The receiver itself is not visited.
func (u *Unit) WalkPages(fn WalkFunc) error {
	for _, title := range u.ChildTitles() {
		child := u.Children[title]
		if err := fn(title, child); err != nil {
			return err
		}
		if err := child.WalkPages(fn); err != nil {
			return err
		}
	}
	return nil
}

// URLMap records absolute source document paths against their destination
// URLs. Entries are only ever added: channel roots at discovery time, pages
// at successful creation time.
type URLMap map[string]string

// Register stores the destination URL for a source path.
func (m URLMap) Register(sourcePath, url string) {
	m[sourcePath] = url
}

// Resolve looks up the destination URL for a source path.
func (m URLMap) Resolve(sourcePath string) (string, bool) {
	url, ok := m[sourcePath]
	return url, ok
}

// TitleKey normalises a title for case-insensitive collision checks.
func TitleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
