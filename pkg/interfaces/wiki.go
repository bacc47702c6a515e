package interfaces

import (
	"context"
	"errors"
)

// ErrDuplicateTitle indicates the destination rejected a page create because a
// page with the same title already exists in the target space. Callers can
// detect the condition with errors.Is and decide whether to rename or skip.
var ErrDuplicateTitle = errors.New("wiki: a page with the same title already exists in the space")

// SpaceCreateInput carries everything required to create a destination space.
type SpaceCreateInput struct {
	Name        string
	Key         string
	Description string
	// Private spaces are created under the invoking user. Permissions and
	// user groups have to be sorted out manually post-migration.
	Private bool
}

// SpaceResult is returned by a successful space creation. Every destination
// space is born with a homepage whose ID is needed to publish the channel's
// root document.
type SpaceResult struct {
	SpaceID    string
	HomePageID string
}

// PageCreateInput describes a page to create under a space, optionally nested
// below a parent page.
type PageCreateInput struct {
	SpaceID  string
	Title    string
	ParentID string
	Content  string
}

// PageUpdateInput republishes a page body. The destination requires a
// monotonically increasing version number per update; callers fetch the
// current version with GetPage and increment it.
type PageUpdateInput struct {
	PageID         string
	Title          string
	Content        string
	Version        int
	VersionMessage string
}

// PageVersion mirrors the subset of the destination's page payload the
// migrator needs when incrementing version counters.
type PageVersion struct {
	Number int `json:"number"`
}

// Page is the destination page representation returned by GetPage.
type Page struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Version PageVersion `json:"version"`
}

// Attachment is returned by a successful attachment upload.
type Attachment struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// WikiClient is the destination API collaborator. Implementations are
// expected to retry transient failures (rate limits, server errors) with
// exponential backoff and to surface permanent failures immediately with the
// status and body attached, so the orchestrator can treat any returned error
// as definitive.
type WikiClient interface {
	CreateSpace(ctx context.Context, input SpaceCreateInput) (*SpaceResult, error)
	CreatePage(ctx context.Context, input PageCreateInput) (string, error)
	UpdatePage(ctx context.Context, input PageUpdateInput) (string, error)
	GetPage(ctx context.Context, pageID string) (*Page, error)
	UploadAttachment(ctx context.Context, pageID, filePath, comment string) (*Attachment, error)
	SetSpaceHomepage(ctx context.Context, spaceKey, pageID string) error
}

// WikiURLs builds the destination URLs the migrator records in its URL map
// and rewrites into migrated documents. Kept separate from WikiClient so the
// reference resolver can build URLs without holding API credentials.
type WikiURLs interface {
	BaseURL() string
	SpaceURL(spaceKey string) string
	PageURL(spaceKey, pageID, slug string) string
	AttachmentURL(pageID, encodedFilename string) string
}
