package migratecmd

import (
	"errors"

	"github.com/goliatone/go-wiki-migrate/internal/logging"
	"github.com/goliatone/go-wiki-migrate/internal/migrate"
	"github.com/goliatone/go-wiki-migrate/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring
// command handlers into a dispatcher.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the migration command handlers produced by
// RegisterMigrationCommands.
type HandlerSet struct {
	Run        *RunMigrationHandler
	Page       *MigratePageHandler
	Media      *MigratePageMediaHandler
	Attachment *UploadAttachmentHandler
}

// RegisterMigrationCommands builds the migration command handlers and
// registers them with the provided registry. The HandlerSet is returned so
// callers can also execute handlers directly.
func RegisterMigrationCommands(reg CommandRegistry, orchestrator *migrate.Orchestrator, client interfaces.WikiClient, provider interfaces.LoggerProvider) (*HandlerSet, error) {
	if orchestrator == nil {
		return nil, errors.New("migration command registration: orchestrator is nil")
	}
	if client == nil {
		return nil, errors.New("migration command registration: client is nil")
	}

	logger := logging.CommandsLogger(provider)

	set := &HandlerSet{
		Run:        NewRunMigrationHandler(orchestrator, logger),
		Page:       NewMigratePageHandler(orchestrator, logger),
		Media:      NewMigratePageMediaHandler(orchestrator, logger),
		Attachment: NewUploadAttachmentHandler(client, logger),
	}

	if reg != nil {
		for _, handler := range []any{set.Run, set.Page, set.Media, set.Attachment} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}

	return set, nil
}
