package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-slug"
	"github.com/google/uuid"

	"github.com/goliatone/go-wiki-migrate/internal/logging"
	"github.com/goliatone/go-wiki-migrate/internal/render"
	"github.com/goliatone/go-wiki-migrate/internal/resolve"
	"github.com/goliatone/go-wiki-migrate/internal/state"
	"github.com/goliatone/go-wiki-migrate/pkg/interfaces"
)

// Phase names, used for log context only.
const (
	phaseDiscover   = "discover"
	phaseDedupe     = "deduplicate-titles"
	phaseSpaces     = "create-spaces"
	phasePages      = "migrate-pages"
	phaseMedia      = "migrate-media"
	phaseReferences = "fix-references"
)

// Version messages stamped on destination page updates, so the destination's
// page history reads sensibly after the migration.
const (
	homepageVersionMessage   = "Updated homepage"
	mediaVersionMessage      = "Linked media"
	referencesVersionMessage = "Replacing Slite references with confluence urls"
)

// Config collects the orchestrator's collaborators. Client and URLs are
// required; the logger defaults to a no-op provider.
type Config struct {
	// BaseDir is the root of the source export.
	BaseDir string
	Client  interfaces.WikiClient
	URLs    interfaces.WikiURLs
	Logger  interfaces.LoggerProvider
	// PrivateChannels lists channel names whose spaces are created private.
	PrivateChannels []string
}

// Orchestrator drives the migration through its phases: discover, title
// deduplication, space creation, page creation, media upload, and reference
// fixing. Every phase loads the persisted tree, skips completed units via
// their flags, and saves after each unit of work, which is what makes an
// interrupted run resumable.
type Orchestrator struct {
	baseDir  string
	client   interfaces.WikiClient
	urls     interfaces.WikiURLs
	store    *state.Store
	renderer *render.Renderer
	resolver *resolve.Resolver
	logger   interfaces.Logger
	private  map[string]struct{}
}

// New validates the configuration and builds an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, errors.New("migrate: base directory is required")
	}
	if cfg.Client == nil {
		return nil, errors.New("migrate: wiki client is required")
	}
	if cfg.URLs == nil {
		return nil, errors.New("migrate: wiki url builder is required")
	}

	private := make(map[string]struct{}, len(cfg.PrivateChannels))
	for _, name := range cfg.PrivateChannels {
		private[name] = struct{}{}
	}

	baseDir := filepath.Clean(cfg.BaseDir)

	return &Orchestrator{
		baseDir:  baseDir,
		client:   cfg.Client,
		urls:     cfg.URLs,
		store:    state.NewStore(baseDir, cfg.Logger),
		renderer: render.NewRenderer(),
		resolver: resolve.NewResolver(baseDir, cfg.URLs),
		logger:   logging.MigratorLogger(cfg.Logger),
		private:  private,
	}, nil
}

// Store exposes the orchestrator's state store, mainly for command handlers
// that need to inspect snapshots.
func (o *Orchestrator) Store() *state.Store { return o.store }

// Run executes the full migration front to back. Each phase resumes from the
// persisted flags, so rerunning after a failure picks up where the previous
// run stopped. Every run gets its own identifier so interleaved log output
// from repeated attempts stays attributable.
func (o *Orchestrator) Run(ctx context.Context) error {
	logger := logging.WithFields(o.logger, map[string]any{"run_id": uuid.NewString()})
	logger.Info("starting migration run", "base_dir", o.baseDir)

	if err := o.Discover(ctx); err != nil {
		return err
	}
	if err := o.DeduplicateTitles(ctx); err != nil {
		return err
	}
	if err := o.CreateSpaces(ctx); err != nil {
		return err
	}
	if err := o.MigratePages(ctx); err != nil {
		return err
	}
	if err := o.MigrateMedia(ctx); err != nil {
		return err
	}
	if err := o.FixReferences(ctx); err != nil {
		return err
	}

	logger.Info("migration run complete")
	return nil
}

// CreateSpaces creates one destination space per channel and publishes the
// channel's root document onto the space homepage. A channel is marked done
// only after both steps succeed; any API failure aborts the run.
func (o *Orchestrator) CreateSpaces(ctx context.Context) error {
	structure, err := o.store.LoadStructure()
	if err != nil {
		return err
	}

	for _, channel := range structure.ChannelNames() {
		if err := ctx.Err(); err != nil {
			return err
		}

		unit := structure[channel]
		logger := logging.WithUnitContext(o.logger, channel, unit.Path, phaseSpaces)

		if unit.SpaceCreated {
			logger.Warn("space already created, skipping", "space_key", unit.SpaceKey)
			continue
		}

		logger.Info("creating space", "space_key", unit.SpaceKey, "private", unit.Private)
		result, err := o.client.CreateSpace(ctx, interfaces.SpaceCreateInput{
			Name:        channel,
			Key:         unit.SpaceKey,
			Description: fmt.Sprintf("Imported from Slite %s", channel),
			Private:     unit.Private,
		})
		if err != nil {
			return fmt.Errorf("migrate: create space for channel %q: %w", channel, err)
		}

		content, err := o.renderDocument(logger, unit.Path)
		if err != nil {
			return err
		}

		if err := o.publishPage(ctx, result.HomePageID, channel+" Home", content, homepageVersionMessage); err != nil {
			return fmt.Errorf("migrate: publish homepage for channel %q: %w", channel, err)
		}

		unit.SpaceID = result.SpaceID
		unit.PageID = result.HomePageID
		unit.Uploaded = true
		unit.SpaceCreated = true
		if err := o.store.SaveStructure(structure); err != nil {
			return err
		}

		logger.Info("space created", "space_id", unit.SpaceID, "homepage_id", unit.PageID)
	}

	return nil
}

// MigratePages creates every page of every channel, parents before children.
// A subtree is only descended into once its root page exists, so a child is
// never created against a missing parent. The URL map gains an entry per
// created page and both snapshots are saved after each creation.
func (o *Orchestrator) MigratePages(ctx context.Context) error {
	structure, err := o.store.LoadStructure()
	if err != nil {
		return err
	}
	urlMap, err := o.store.LoadURLMap()
	if err != nil {
		return err
	}

	for _, channel := range structure.ChannelNames() {
		unit := structure[channel]
		if unit.SpaceID == "" {
			o.logger.Warn("channel has no space yet, skipping pages", "channel", channel)
			continue
		}
		if err := o.migratePageLevel(ctx, structure, urlMap, unit, unit.Children, ""); err != nil {
			return err
		}
	}

	return nil
}

func (o *Orchestrator) migratePageLevel(ctx context.Context, structure state.Structure, urlMap state.URLMap, channel *state.Unit, pages map[string]*state.Unit, parentID string) error {
	for _, title := range sortedTitles(pages) {
		if err := ctx.Err(); err != nil {
			return err
		}

		page := pages[title]
		logger := logging.WithUnitContext(o.logger, title, page.Path, phasePages)

		if !page.Uploaded {
			content, err := o.renderDocument(logger, page.Path)
			if err != nil {
				return err
			}

			logger.Info("creating page", "space_id", channel.SpaceID, "parent_id", parentID)
			pageID, err := o.client.CreatePage(ctx, interfaces.PageCreateInput{
				SpaceID:  channel.SpaceID,
				Title:    title,
				ParentID: parentID,
				Content:  content,
			})
			if err != nil {
				return fmt.Errorf("migrate: create page %q: %w", title, err)
			}

			page.PageID = pageID
			page.ParentID = parentID
			page.Uploaded = true
			urlMap.Register(page.Path, o.urls.PageURL(channel.SpaceKey, pageID, pageSlug(title)))

			if err := o.store.SaveStructure(structure); err != nil {
				return err
			}
			if err := o.store.SaveURLMap(urlMap); err != nil {
				return err
			}
			logger.Info("page created", "page_id", pageID)
		} else {
			logger.Debug("page already uploaded, skipping", "page_id", page.PageID)
		}

		if len(page.Children) > 0 {
			if page.PageID == "" {
				logger.Warn("page has children but no page id, skipping subtree")
				continue
			}
			if err := o.migratePageLevel(ctx, structure, urlMap, channel, page.Children, page.PageID); err != nil {
				return err
			}
		}
	}

	return nil
}

// MigrateMedia uploads every page's attachments and republishes the page with
// image references pointed at the uploaded copies. Upload failures are
// recorded per file and retried on the next run instead of aborting; the
// republish, like every other page write, is fatal on failure.
func (o *Orchestrator) MigrateMedia(ctx context.Context) error {
	structure, err := o.store.LoadStructure()
	if err != nil {
		return err
	}

	for _, channel := range structure.ChannelNames() {
		err := structure[channel].WalkPages(func(title string, page *state.Unit) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(page.Media) == 0 {
				return nil
			}
			return o.migratePageMedia(ctx, structure, title, page)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (o *Orchestrator) migratePageMedia(ctx context.Context, structure state.Structure, title string, page *state.Unit) error {
	logger := logging.WithUnitContext(o.logger, title, page.Path, phaseMedia)

	if page.PageID == "" {
		logger.Warn("page not uploaded yet, skipping media")
		return nil
	}
	if page.MediaLinksFixed && !page.PendingMedia() {
		logger.Debug("media already migrated")
		return nil
	}

	mediaDir := mediaFolderFor(page.Path)
	if !isDir(mediaDir) {
		logger.Warn("media folder missing", "dir", mediaDir)
		return nil
	}

	for _, filename := range page.MediaFilenames() {
		status := page.Media[filename]
		if status.Uploaded {
			logger.Debug("attachment already uploaded", "file", filename)
			continue
		}

		filePath := filepath.Join(mediaDir, filename)
		if !isFile(filePath) {
			status.Error = "file not found"
			logger.Error("attachment file missing", "file", filePath)
			continue
		}

		attachment, err := o.client.UploadAttachment(ctx, page.PageID, filePath, "")
		if err != nil {
			status.Error = err.Error()
			logger.Error("attachment upload failed", "file", filename, "error", err)
			continue
		}

		status.Uploaded = true
		status.Error = ""
		logger.Info("attachment uploaded", "file", filename, "attachment_id", attachment.ID)

		if err := o.store.SaveStructure(structure); err != nil {
			return err
		}
	}

	if page.MediaLinksFixed {
		logger.Debug("media links already fixed")
		return nil
	}

	uploaded := make([]string, 0, len(page.Media))
	for _, filename := range page.MediaFilenames() {
		if page.Media[filename].Uploaded {
			uploaded = append(uploaded, filename)
		}
	}
	if len(uploaded) == 0 {
		logger.Warn("no attachments uploaded, keeping local references")
		return nil
	}

	raw, err := os.ReadFile(page.Path)
	if err != nil {
		return fmt.Errorf("migrate: read document %s: %w", page.Path, err)
	}

	markdown := o.resolver.RewriteMediaLinks(string(raw), page.PageID, uploaded)
	content := o.renderMarkdown(logger, markdown)

	if err := o.publishPage(ctx, page.PageID, title, content, mediaVersionMessage); err != nil {
		return fmt.Errorf("migrate: republish %q with media links: %w", title, err)
	}

	page.MediaLinksFixed = true
	if err := o.store.SaveStructure(structure); err != nil {
		return err
	}
	logger.Info("media links fixed", "uploaded", len(uploaded))
	return nil
}

// FixReferences rewrites intra-wiki links in every migrated page. It runs
// after all pages exist so the URL map is as complete as it can be; a page
// whose links resolve to nothing keeps its flag unset, so a later run retries
// it once the map has grown.
func (o *Orchestrator) FixReferences(ctx context.Context) error {
	structure, err := o.store.LoadStructure()
	if err != nil {
		return err
	}
	urlMap, err := o.store.LoadURLMap()
	if err != nil {
		return err
	}

	for _, channel := range structure.ChannelNames() {
		err := structure[channel].WalkPages(func(title string, page *state.Unit) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return o.fixPageReferences(ctx, structure, urlMap, title, page)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (o *Orchestrator) fixPageReferences(ctx context.Context, structure state.Structure, urlMap state.URLMap, title string, page *state.Unit) error {
	logger := logging.WithUnitContext(o.logger, title, page.Path, phaseReferences)

	if page.PageID == "" {
		logger.Warn("page not uploaded yet, skipping references")
		return nil
	}
	if page.LinksFixed {
		logger.Debug("references already fixed")
		return nil
	}

	raw, err := os.ReadFile(page.Path)
	if err != nil {
		return fmt.Errorf("migrate: read document %s: %w", page.Path, err)
	}

	markdown := string(raw)
	resolved := o.resolver.ResolveLinks(markdown, urlMap)
	if resolved == markdown {
		logger.Debug("no resolvable references yet")
		return nil
	}

	content := o.renderMarkdown(logger, resolved)
	if err := o.publishPage(ctx, page.PageID, title, content, referencesVersionMessage); err != nil {
		return fmt.Errorf("migrate: republish %q with fixed references: %w", title, err)
	}

	page.LinksFixed = true
	if err := o.store.SaveStructure(structure); err != nil {
		return err
	}
	logger.Info("references fixed")
	return nil
}

// publishPage republishes a page body against the next version number.
func (o *Orchestrator) publishPage(ctx context.Context, pageID, title, content, message string) error {
	current, err := o.client.GetPage(ctx, pageID)
	if err != nil {
		return err
	}

	_, err = o.client.UpdatePage(ctx, interfaces.PageUpdateInput{
		PageID:         pageID,
		Title:          title,
		Content:        content,
		Version:        current.Version.Number + 1,
		VersionMessage: message,
	})
	return err
}

// renderDocument reads a source document and renders it to storage markup,
// logging any pipeline warnings against the document's path.
func (o *Orchestrator) renderDocument(logger interfaces.Logger, path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("migrate: read document %s: %w", path, err)
	}
	return o.renderMarkdown(logger, string(raw)), nil
}

func (o *Orchestrator) renderMarkdown(logger interfaces.Logger, markdown string) string {
	content, warnings := o.renderer.Render(markdown)
	for _, warning := range warnings {
		logger.Warn("render fallback", "stage", warning.Stage, "detail", warning.Message)
	}
	return content
}

// mediaFolderFor returns the attachment folder that sits next to a page's
// source document.
func mediaFolderFor(pagePath string) string {
	dir := filepath.Dir(pagePath)
	name := strings.TrimSuffix(filepath.Base(pagePath), ".md")
	return filepath.Join(dir, mediaFolderPrefix+name)
}

// pageSlug derives the readable URL slug for a page title.
func pageSlug(title string) string {
	normalized, err := slug.Normalize(title)
	if err != nil || normalized == "" {
		return "untitled"
	}
	return normalized
}

func sortedTitles(pages map[string]*state.Unit) []string {
	titles := make([]string, 0, len(pages))
	for title := range pages {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}
