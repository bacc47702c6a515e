package bootstrap

import (
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-wiki-migrate/internal/confluence"
	"github.com/goliatone/go-wiki-migrate/internal/logging"
	"github.com/goliatone/go-wiki-migrate/internal/logging/gologger"
	"github.com/goliatone/go-wiki-migrate/internal/migrate"
	"github.com/goliatone/go-wiki-migrate/pkg/interfaces"
)

// Credentials come from the environment so API keys never land in shell
// history or process listings.
const (
	envDomain = "CONFLUENCE_DOMAIN"
	envUser   = "CONFLUENCE_USER"
	envAPIKey = "CONFLUENCE_API_KEY"
)

// Options captures configuration for the migration CLI bootstraps. Empty
// Domain and User fall back to the corresponding environment variables; the
// API key is environment-only.
type Options struct {
	SourceDir       string
	Domain          string
	User            string
	PrivateChannels []string
	LogLevel        string
	LogFormat       string
}

// Module wraps the wired migrator: the orchestrator, the destination client,
// and the logger handed to command handlers.
type Module struct {
	Orchestrator *migrate.Orchestrator
	Client       *confluence.Client
	Provider     interfaces.LoggerProvider
	Logger       interfaces.Logger
}

// BuildModule wires the destination client and orchestrator from options and
// environment credentials.
func BuildModule(opts Options) (*Module, error) {
	domain := fromEnv(opts.Domain, envDomain)
	user := fromEnv(opts.User, envUser)
	apiKey := fromEnv("", envAPIKey)

	if domain == "" {
		return nil, fmt.Errorf("confluence domain is required (flag -domain or %s)", envDomain)
	}
	if user == "" {
		return nil, fmt.Errorf("confluence user is required (flag -user or %s)", envUser)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("confluence api key is required (%s)", envAPIKey)
	}
	if strings.TrimSpace(opts.SourceDir) == "" {
		return nil, fmt.Errorf("source directory is required")
	}

	provider, err := gologger.NewProvider(gologger.Config{
		Level:  opts.LogLevel,
		Format: opts.LogFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise logging: %w", err)
	}

	client := confluence.New(confluence.Config{
		Domain: domain,
		User:   user,
		APIKey: apiKey,
		Logger: provider,
	})

	orchestrator, err := migrate.New(migrate.Config{
		BaseDir:         opts.SourceDir,
		Client:          client,
		URLs:            client,
		Logger:          provider,
		PrivateChannels: opts.PrivateChannels,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise orchestrator: %w", err)
	}

	return &Module{
		Orchestrator: orchestrator,
		Client:       client,
		Provider:     provider,
		Logger:       logging.CommandsLogger(provider),
	}, nil
}

// SplitList parses a comma separated list into a trimmed slice.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func fromEnv(value, key string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(os.Getenv(key))
}
