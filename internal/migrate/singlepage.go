package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goliatone/go-wiki-migrate/internal/logging"
	"github.com/goliatone/go-wiki-migrate/internal/state"
	"github.com/goliatone/go-wiki-migrate/pkg/interfaces"
)

// SinglePageInput describes a one-off page migration outside the tracked
// tree, typically a page that was added to the export after the main run.
type SinglePageInput struct {
	SpaceID  string
	Title    string
	ParentID string
	Path     string
}

// MigrateSinglePage renders one source document and creates it as a page.
// Nothing is recorded in the structure snapshot; the operation exists for
// targeted fix-ups after the bulk run.
func (o *Orchestrator) MigrateSinglePage(ctx context.Context, input SinglePageInput) (string, error) {
	logger := logging.WithUnitContext(o.logger, input.Title, input.Path, phasePages)

	content, err := o.renderDocument(logger, input.Path)
	if err != nil {
		return "", err
	}

	pageID, err := o.client.CreatePage(ctx, interfaces.PageCreateInput{
		SpaceID:  input.SpaceID,
		Title:    input.Title,
		ParentID: input.ParentID,
		Content:  content,
	})
	if err != nil {
		return "", fmt.Errorf("migrate: create page %q: %w", input.Title, err)
	}

	logger.Info("page created", "page_id", pageID)
	return pageID, nil
}

// MigrateMediaForSinglePage uploads the attachments sitting next to one
// source document and republishes the given page with its image references
// rewritten. The returned map reports per-file outcomes; upload failures are
// recorded there rather than aborting.
func (o *Orchestrator) MigrateMediaForSinglePage(ctx context.Context, title, path, pageID string) (map[string]*state.MediaStatus, error) {
	logger := logging.WithUnitContext(o.logger, title, path, phaseMedia)

	mediaDir := mediaFolderFor(path)
	if !isDir(mediaDir) {
		return nil, fmt.Errorf("migrate: media folder %s not found", mediaDir)
	}

	entries, err := os.ReadDir(mediaDir)
	if err != nil {
		return nil, fmt.Errorf("migrate: read media folder %s: %w", mediaDir, err)
	}

	results := map[string]*state.MediaStatus{}
	var uploaded []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		filename := entry.Name()
		status := &state.MediaStatus{}
		results[filename] = status

		attachment, err := o.client.UploadAttachment(ctx, pageID, filepath.Join(mediaDir, filename), "")
		if err != nil {
			status.Error = err.Error()
			logger.Error("attachment upload failed", "file", filename, "error", err)
			continue
		}

		status.Uploaded = true
		uploaded = append(uploaded, filename)
		logger.Info("attachment uploaded", "file", filename, "attachment_id", attachment.ID)
	}

	if len(uploaded) == 0 {
		logger.Warn("no attachments uploaded, page left untouched")
		return results, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return results, fmt.Errorf("migrate: read document %s: %w", path, err)
	}

	markdown := o.resolver.RewriteMediaLinks(string(raw), pageID, uploaded)
	content := o.renderMarkdown(logger, markdown)

	if err := o.publishPage(ctx, pageID, title, content, mediaVersionMessage); err != nil {
		return results, fmt.Errorf("migrate: republish %q with media links: %w", title, err)
	}

	logger.Info("media links fixed", "uploaded", len(uploaded))
	return results, nil
}
