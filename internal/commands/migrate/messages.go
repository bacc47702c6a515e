package migratecmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	runMigrationMessageType     = "wikimigrate.migration.run"
	migratePageMessageType      = "wikimigrate.page.migrate"
	migratePageMediaMessageType = "wikimigrate.media.migrate"
	uploadAttachmentMessageType = "wikimigrate.attachment.upload"
)

func requiredString(code, message string) validation.Rule {
	return validation.By(func(value any) error {
		if strings.TrimSpace(value.(string)) == "" {
			return validation.NewError(code, message)
		}
		return nil
	})
}

// RunMigrationCommand triggers a full migration run over the configured
// source directory. The run is resumable: phases already recorded in the
// structure snapshot are skipped.
type RunMigrationCommand struct {
	// SourceDir is the root of the exported wiki on disk.
	SourceDir string `json:"source_dir"`
}

// Type implements command.Message.
func (RunMigrationCommand) Type() string { return runMigrationMessageType }

// Validate ensures the source directory is present before handlers execute.
func (cmd RunMigrationCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.SourceDir, validation.Required,
			requiredString("wikimigrate.migration.run.source_dir_required", "source directory is required")),
	)
}

// MigratePageCommand migrates one document as a page outside the tracked
// tree, for targeted fix-ups after the bulk run.
type MigratePageCommand struct {
	// SpaceID is the destination space the page is created in.
	SpaceID string `json:"space_id"`
	// Title is the destination page title.
	Title string `json:"title"`
	// ParentID optionally nests the page below an existing page.
	ParentID string `json:"parent_id,omitempty"`
	// Path points at the source markdown document.
	Path string `json:"path"`
}

// Type implements command.Message.
func (MigratePageCommand) Type() string { return migratePageMessageType }

// Validate ensures the page coordinates are present before handlers execute.
func (cmd MigratePageCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.SpaceID, validation.Required,
			requiredString("wikimigrate.page.migrate.space_id_required", "space id is required")),
		validation.Field(&cmd.Title, validation.Required,
			requiredString("wikimigrate.page.migrate.title_required", "title is required")),
		validation.Field(&cmd.Path, validation.Required,
			requiredString("wikimigrate.page.migrate.path_required", "document path is required")),
	)
}

// MigratePageMediaCommand uploads the attachments of one document and
// republishes the given page with rewritten image references.
type MigratePageMediaCommand struct {
	// Title is the destination page title used when republishing.
	Title string `json:"title"`
	// Path points at the source markdown document whose Media_ folder is used.
	Path string `json:"path"`
	// PageID is the destination page the attachments are uploaded to.
	PageID string `json:"page_id"`
}

// Type implements command.Message.
func (MigratePageMediaCommand) Type() string { return migratePageMediaMessageType }

// Validate ensures the media coordinates are present before handlers execute.
func (cmd MigratePageMediaCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Title, validation.Required,
			requiredString("wikimigrate.media.migrate.title_required", "title is required")),
		validation.Field(&cmd.Path, validation.Required,
			requiredString("wikimigrate.media.migrate.path_required", "document path is required")),
		validation.Field(&cmd.PageID, validation.Required,
			requiredString("wikimigrate.media.migrate.page_id_required", "page id is required")),
	)
}

// UploadAttachmentCommand uploads a single file as a page attachment.
type UploadAttachmentCommand struct {
	// PageID is the destination page the file is attached to.
	PageID string `json:"page_id"`
	// FilePath points at the file on disk.
	FilePath string `json:"file_path"`
	// Comment is recorded on the attachment; empty uses the client default.
	Comment string `json:"comment,omitempty"`
}

// Type implements command.Message.
func (UploadAttachmentCommand) Type() string { return uploadAttachmentMessageType }

// Validate ensures the attachment coordinates are present before handlers execute.
func (cmd UploadAttachmentCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.PageID, validation.Required,
			requiredString("wikimigrate.attachment.upload.page_id_required", "page id is required")),
		validation.Field(&cmd.FilePath, validation.Required,
			requiredString("wikimigrate.attachment.upload.file_path_required", "file path is required")),
	)
}
