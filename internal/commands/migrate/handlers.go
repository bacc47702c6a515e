package migratecmd

import (
	"context"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-wiki-migrate/internal/commands"
	"github.com/goliatone/go-wiki-migrate/internal/logging"
	"github.com/goliatone/go-wiki-migrate/internal/migrate"
	"github.com/goliatone/go-wiki-migrate/pkg/interfaces"
)

const (
	runMigrationOperation     = "migration.run"
	migratePageOperation      = "page.migrate"
	migratePageMediaOperation = "media.migrate"
	uploadAttachmentOperation = "attachment.upload"
)

var (
	_ command.Commander[RunMigrationCommand]     = (*RunMigrationHandler)(nil)
	_ command.Commander[MigratePageCommand]      = (*MigratePageHandler)(nil)
	_ command.Commander[MigratePageMediaCommand] = (*MigratePageMediaHandler)(nil)
	_ command.Commander[UploadAttachmentCommand] = (*UploadAttachmentHandler)(nil)
)

// RunMigrationHandler drives the full migration via the shared command
// handler foundation. The handler runs without a timeout: a bulk run over a
// large export legitimately takes as long as it takes.
type RunMigrationHandler struct {
	inner *commands.Handler[RunMigrationCommand]
}

// NewRunMigrationHandler creates a handler bound to the supplied orchestrator.
func NewRunMigrationHandler(orchestrator *migrate.Orchestrator, logger interfaces.Logger, opts ...commands.HandlerOption[RunMigrationCommand]) *RunMigrationHandler {
	exec := func(ctx context.Context, msg RunMigrationCommand) error {
		return orchestrator.Run(ctx)
	}

	handlerOpts := []commands.HandlerOption[RunMigrationCommand]{
		commands.WithLogger[RunMigrationCommand](logger),
		commands.WithOperation[RunMigrationCommand](runMigrationOperation),
		commands.WithTimeout[RunMigrationCommand](0),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RunMigrationHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[RunMigrationCommand].
func (h *RunMigrationHandler) Execute(ctx context.Context, msg RunMigrationCommand) error {
	return h.inner.Execute(ctx, msg)
}

// MigratePageHandler migrates one document as a destination page.
type MigratePageHandler struct {
	inner *commands.Handler[MigratePageCommand]
}

// NewMigratePageHandler creates a handler bound to the supplied orchestrator.
func NewMigratePageHandler(orchestrator *migrate.Orchestrator, logger interfaces.Logger, opts ...commands.HandlerOption[MigratePageCommand]) *MigratePageHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg MigratePageCommand) error {
		pageID, err := orchestrator.MigrateSinglePage(ctx, migrate.SinglePageInput{
			SpaceID:  msg.SpaceID,
			Title:    msg.Title,
			ParentID: msg.ParentID,
			Path:     msg.Path,
		})
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"page_id": pageID,
			"title":   msg.Title,
		}).Info("migrate.command.page.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[MigratePageCommand]{
		commands.WithLogger[MigratePageCommand](baseLogger),
		commands.WithOperation[MigratePageCommand](migratePageOperation),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &MigratePageHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[MigratePageCommand].
func (h *MigratePageHandler) Execute(ctx context.Context, msg MigratePageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// MigratePageMediaHandler uploads one document's attachments and republishes
// the page with rewritten references.
type MigratePageMediaHandler struct {
	inner *commands.Handler[MigratePageMediaCommand]
}

// NewMigratePageMediaHandler creates a handler bound to the supplied orchestrator.
func NewMigratePageMediaHandler(orchestrator *migrate.Orchestrator, logger interfaces.Logger, opts ...commands.HandlerOption[MigratePageMediaCommand]) *MigratePageMediaHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg MigratePageMediaCommand) error {
		results, err := orchestrator.MigrateMediaForSinglePage(ctx, msg.Title, msg.Path, msg.PageID)
		if err != nil {
			return err
		}

		uploaded, failed := 0, 0
		for _, status := range results {
			if status.Uploaded {
				uploaded++
			} else {
				failed++
			}
		}
		logging.WithFields(baseLogger, map[string]any{
			"page_id":  msg.PageID,
			"uploaded": uploaded,
			"failed":   failed,
		}).Info("migrate.command.media.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[MigratePageMediaCommand]{
		commands.WithLogger[MigratePageMediaCommand](baseLogger),
		commands.WithOperation[MigratePageMediaCommand](migratePageMediaOperation),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &MigratePageMediaHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[MigratePageMediaCommand].
func (h *MigratePageMediaHandler) Execute(ctx context.Context, msg MigratePageMediaCommand) error {
	return h.inner.Execute(ctx, msg)
}

// UploadAttachmentHandler uploads a single file as a page attachment.
type UploadAttachmentHandler struct {
	inner *commands.Handler[UploadAttachmentCommand]
}

// NewUploadAttachmentHandler creates a handler bound to the supplied client.
func NewUploadAttachmentHandler(client interfaces.WikiClient, logger interfaces.Logger, opts ...commands.HandlerOption[UploadAttachmentCommand]) *UploadAttachmentHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg UploadAttachmentCommand) error {
		attachment, err := client.UploadAttachment(ctx, msg.PageID, msg.FilePath, msg.Comment)
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"page_id":       msg.PageID,
			"attachment_id": attachment.ID,
			"title":         attachment.Title,
		}).Info("migrate.command.attachment.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[UploadAttachmentCommand]{
		commands.WithLogger[UploadAttachmentCommand](baseLogger),
		commands.WithOperation[UploadAttachmentCommand](uploadAttachmentOperation),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &UploadAttachmentHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[UploadAttachmentCommand].
func (h *UploadAttachmentHandler) Execute(ctx context.Context, msg UploadAttachmentCommand) error {
	return h.inner.Execute(ctx, msg)
}
