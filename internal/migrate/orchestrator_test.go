package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-wiki-migrate/pkg/interfaces"
)

// stubClient records destination calls so tests can assert at-most-once
// semantics and inspect published content.
type stubClient struct {
	mu sync.Mutex

	nextPageID int
	spaces     []interfaces.SpaceCreateInput
	pages      []interfaces.PageCreateInput
	updates    []interfaces.PageUpdateInput
	uploads    []string

	failPageTitles map[string]error
}

func newStubClient() *stubClient {
	return &stubClient{failPageTitles: map[string]error{}}
}

func (s *stubClient) CreateSpace(ctx context.Context, input interfaces.SpaceCreateInput) (*interfaces.SpaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spaces = append(s.spaces, input)
	n := len(s.spaces)
	return &interfaces.SpaceResult{
		SpaceID:    fmt.Sprintf("space-%d", n),
		HomePageID: fmt.Sprintf("home-%d", n),
	}, nil
}

func (s *stubClient) CreatePage(ctx context.Context, input interfaces.PageCreateInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failPageTitles[input.Title]; ok {
		return "", err
	}
	s.pages = append(s.pages, input)
	s.nextPageID++
	return fmt.Sprintf("page-%d", s.nextPageID), nil
}

func (s *stubClient) UpdatePage(ctx context.Context, input interfaces.PageUpdateInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, input)
	return input.PageID, nil
}

func (s *stubClient) GetPage(ctx context.Context, pageID string) (*interfaces.Page, error) {
	return &interfaces.Page{ID: pageID, Version: interfaces.PageVersion{Number: 1}}, nil
}

func (s *stubClient) UploadAttachment(ctx context.Context, pageID, filePath, comment string) (*interfaces.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, filepath.Base(filePath))
	return &interfaces.Attachment{ID: "att-1", Title: filepath.Base(filePath)}, nil
}

func (s *stubClient) SetSpaceHomepage(ctx context.Context, spaceKey, pageID string) error {
	return nil
}

func (s *stubClient) pageCreates(title string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, page := range s.pages {
		if page.Title == title {
			count++
		}
	}
	return count
}

func (s *stubClient) updatesWithMessage(message string) []interfaces.PageUpdateInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []interfaces.PageUpdateInput
	for _, update := range s.updates {
		if update.VersionMessage == message {
			out = append(out, update)
		}
	}
	return out
}

type fakeURLs struct{}

func (fakeURLs) BaseURL() string { return "https://wiki.test" }

func (fakeURLs) SpaceURL(spaceKey string) string {
	return "https://wiki.test/spaces/" + spaceKey
}

func (fakeURLs) PageURL(spaceKey, pageID, slug string) string {
	return "https://wiki.test/spaces/" + spaceKey + "/pages/" + pageID + "/" + slug
}

func (fakeURLs) AttachmentURL(pageID, encodedFilename string) string {
	return "https://wiki.test/download/attachments/" + pageID + "/" + encodedFilename
}

func document(title, body string) string {
	return strings.Join([]string{
		"",
		title,
		"Created at: 2023-01-02",
		"Updated at: 2023-03-04",
		"---",
		"",
		body,
	}, "\n")
}

// writeExport lays out one channel with a nested page and media:
//
//	Engineering/
//	  Engineering.md
//	  Engineering/
//	    Setup.md
//	    Media_Setup/diagram.png
//	    Setup/
//	      Deep Dive.md
func writeExport(t *testing.T) string {
	t.Helper()
	base := t.TempDir()

	channel := filepath.Join(base, "Engineering")
	pages := filepath.Join(channel, "Engineering")
	media := filepath.Join(pages, "Media_Setup")
	nested := filepath.Join(pages, "Setup")
	for _, dir := range []string{channel, pages, media, nested} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	files := map[string]string{
		filepath.Join(channel, "Engineering.md"): document("Engineering", "# Engineering\n\nWelcome."),
		filepath.Join(pages, "Setup.md"): document("Setup",
			"# Setup\n\n![diagram](./Media_Setup/diagram.png)\n\nSee [Deep Dive](/Engineering/Engineering/Setup/Deep%20Dive.md)."),
		filepath.Join(nested, "Deep Dive.md"): document("Deep Dive", "# Deep Dive\n\nDetails."),
		filepath.Join(media, "diagram.png"):   "png-bytes",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	// A directory without a root document is not a channel.
	if err := os.MkdirAll(filepath.Join(base, "Scratch"), 0o755); err != nil {
		t.Fatalf("mkdir scratch: %v", err)
	}

	return base
}

func newTestOrchestrator(t *testing.T, baseDir string, client interfaces.WikiClient) *Orchestrator {
	t.Helper()
	o, err := New(Config{
		BaseDir: baseDir,
		Client:  client,
		URLs:    fakeURLs{},
	})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return o
}

func TestRunMigratesWholeExport(t *testing.T) {
	base := writeExport(t)
	client := newStubClient()
	o := newTestOrchestrator(t, base, client)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	structure, err := o.Store().LoadStructure()
	if err != nil {
		t.Fatalf("load structure: %v", err)
	}

	channel := structure["Engineering"]
	if channel == nil {
		t.Fatal("channel missing from structure")
	}
	if !channel.SpaceCreated || channel.SpaceID == "" {
		t.Fatalf("space not recorded: %+v", channel)
	}
	if !channel.Uploaded || channel.PageID == "" {
		t.Fatalf("homepage not recorded: %+v", channel)
	}

	setup := channel.Children["Setup"]
	if setup == nil || !setup.Uploaded || setup.PageID == "" {
		t.Fatalf("setup page not migrated: %+v", setup)
	}
	deep := setup.Children["Deep Dive"]
	if deep == nil || !deep.Uploaded {
		t.Fatalf("nested page not migrated: %+v", deep)
	}
	if deep.ParentID != setup.PageID {
		t.Fatalf("nested page should hang off its parent: parent_id %q, want %q", deep.ParentID, setup.PageID)
	}

	if status := setup.Media["diagram.png"]; status == nil || !status.Uploaded {
		t.Fatalf("media not uploaded: %+v", setup.Media)
	}
	if !setup.MediaLinksFixed || !setup.LinksFixed {
		t.Fatalf("post-processing flags not set: %+v", setup)
	}

	if len(client.spaces) != 1 {
		t.Fatalf("expected 1 space create, got %d", len(client.spaces))
	}
	if got := client.spaces[0].Description; got != "Imported from Slite Engineering" {
		t.Fatalf("unexpected space description %q", got)
	}
	if len(client.pages) != 2 {
		t.Fatalf("expected 2 page creates, got %d", len(client.pages))
	}

	homepage := client.updatesWithMessage("Updated homepage")
	if len(homepage) != 1 || homepage[0].Title != "Engineering Home" {
		t.Fatalf("unexpected homepage updates: %+v", homepage)
	}

	media := client.updatesWithMessage("Linked media")
	if len(media) != 1 {
		t.Fatalf("expected 1 media republish, got %+v", media)
	}
	if !strings.Contains(media[0].Content, "https://wiki.test/download/attachments/"+setup.PageID+"/diagram.png") {
		t.Fatalf("media republish should reference the attachment url: %q", media[0].Content)
	}

	refs := client.updatesWithMessage("Replacing Slite references with confluence urls")
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference republish, got %+v", refs)
	}
	if !strings.Contains(refs[0].Content, "https://wiki.test/spaces/E/pages/"+deep.PageID) {
		t.Fatalf("reference republish should link the migrated page: %q", refs[0].Content)
	}

	urlMap, err := o.Store().LoadURLMap()
	if err != nil {
		t.Fatalf("load url map: %v", err)
	}
	if _, ok := urlMap[setup.Path]; !ok {
		t.Fatalf("url map missing page entry: %v", urlMap)
	}
}

func TestRunIsIdempotentOnResume(t *testing.T) {
	base := writeExport(t)
	client := newStubClient()
	o := newTestOrchestrator(t, base, client)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	spaces, pages, updates := len(client.spaces), len(client.pages), len(client.updates)
	uploads := len(client.uploads)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(client.spaces) != spaces || len(client.pages) != pages {
		t.Fatalf("second run re-created destination entities: spaces %d->%d pages %d->%d",
			spaces, len(client.spaces), pages, len(client.pages))
	}
	if len(client.updates) != updates || len(client.uploads) != uploads {
		t.Fatalf("second run repeated side effects: updates %d->%d uploads %d->%d",
			updates, len(client.updates), uploads, len(client.uploads))
	}
}

func TestRunResumesAfterPageFailure(t *testing.T) {
	base := writeExport(t)
	client := newStubClient()
	client.failPageTitles["Deep Dive"] = errors.New("boom")
	o := newTestOrchestrator(t, base, client)

	if err := o.Run(context.Background()); err == nil {
		t.Fatal("expected run to fail on page create")
	}
	if client.pageCreates("Setup") != 1 {
		t.Fatalf("setup page should have been created once, got %d", client.pageCreates("Setup"))
	}

	delete(client.failPageTitles, "Deep Dive")
	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("resumed run: %v", err)
	}

	if client.pageCreates("Setup") != 1 {
		t.Fatalf("setup page was re-created on resume: %d", client.pageCreates("Setup"))
	}
	if client.pageCreates("Deep Dive") != 1 {
		t.Fatalf("nested page should be created exactly once, got %d", client.pageCreates("Deep Dive"))
	}
}

func TestFixReferencesRetriesOnceLinkBecomesResolvable(t *testing.T) {
	base := writeExport(t)
	client := newStubClient()
	o := newTestOrchestrator(t, base, client)
	ctx := context.Background()

	for _, phase := range []func(context.Context) error{
		o.Discover, o.DeduplicateTitles, o.CreateSpaces, o.MigratePages, o.MigrateMedia,
	} {
		if err := phase(ctx); err != nil {
			t.Fatalf("phase: %v", err)
		}
	}

	structure, err := o.Store().LoadStructure()
	if err != nil {
		t.Fatalf("load structure: %v", err)
	}
	deep := structure["Engineering"].Children["Setup"].Children["Deep Dive"]

	// Setup links to Deep Dive; dropping that entry makes the link
	// unresolvable for now.
	urlMap, err := o.Store().LoadURLMap()
	if err != nil {
		t.Fatalf("load url map: %v", err)
	}
	target := urlMap[deep.Path]
	delete(urlMap, deep.Path)
	if err := o.Store().SaveURLMap(urlMap); err != nil {
		t.Fatalf("save url map: %v", err)
	}

	if err := o.FixReferences(ctx); err != nil {
		t.Fatalf("fix references: %v", err)
	}
	if got := client.updatesWithMessage(referencesVersionMessage); len(got) != 0 {
		t.Fatalf("nothing resolved, expected no republish, got %+v", got)
	}
	structure, err = o.Store().LoadStructure()
	if err != nil {
		t.Fatalf("load structure: %v", err)
	}
	if structure["Engineering"].Children["Setup"].LinksFixed {
		t.Fatal("page with an unresolvable link must keep its flag unset")
	}

	urlMap[deep.Path] = target
	if err := o.Store().SaveURLMap(urlMap); err != nil {
		t.Fatalf("save url map: %v", err)
	}

	if err := o.FixReferences(ctx); err != nil {
		t.Fatalf("fix references after map growth: %v", err)
	}
	refs := client.updatesWithMessage(referencesVersionMessage)
	if len(refs) != 1 {
		t.Fatalf("page should be republished once its link resolves, got %+v", refs)
	}
	structure, err = o.Store().LoadStructure()
	if err != nil {
		t.Fatalf("load structure: %v", err)
	}
	if !structure["Engineering"].Children["Setup"].LinksFixed {
		t.Fatal("flag should be set after the republish")
	}
}

func TestRunDoesNotDescendBelowFailedParent(t *testing.T) {
	base := writeExport(t)
	client := newStubClient()
	client.failPageTitles["Setup"] = errors.New("boom")
	o := newTestOrchestrator(t, base, client)

	if err := o.Run(context.Background()); err == nil {
		t.Fatal("expected run to fail on parent create")
	}
	if client.pageCreates("Deep Dive") != 0 {
		t.Fatalf("child should not be created when parent failed, got %d", client.pageCreates("Deep Dive"))
	}
}
