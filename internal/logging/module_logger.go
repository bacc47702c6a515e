package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-wiki-migrate/pkg/interfaces"
)

const (
	rootModule       = "migrate"
	stateModule      = "migrate.state"
	confluenceModule = "migrate.confluence"
	commandsModule   = "migrate.commands"
)

const (
	fieldUnitTitle    = "unit_title"
	fieldUnitPath     = "unit_path"
	fieldMigratePhase = "phase"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// MigratorLogger returns the logger namespace reserved for the orchestrator.
func MigratorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, rootModule)
}

// StateLogger returns the logger namespace reserved for the state store.
func StateLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, stateModule)
}

// ConfluenceLogger returns the logger namespace reserved for the destination client.
func ConfluenceLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, confluenceModule)
}

// CommandsLogger returns the logger namespace reserved for command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// WithUnitContext enriches the provided logger with common migration unit
// fields such as title, source path, and phase. Empty values are ignored.
func WithUnitContext(logger interfaces.Logger, title, path, phase string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(title); trimmed != "" {
		fields[fieldUnitTitle] = trimmed
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldUnitPath] = trimmed
	}
	if trimmed := strings.TrimSpace(phase); trimmed != "" {
		fields[fieldMigratePhase] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
