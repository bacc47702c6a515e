package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/goliatone/go-wiki-migrate/cmd/wikimigrate/internal/bootstrap"
	migratecmd "github.com/goliatone/go-wiki-migrate/internal/commands/migrate"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runMigration(os.Args[1:]); err != nil {
		log.Fatalf("wikimigrate run: %v", err)
	}
}

func runMigration(args []string) error {
	fs := flag.NewFlagSet("wikimigrate-run", flag.ExitOnError)
	sourceDir := fs.String("source-dir", "", "Path to the exported wiki root")
	domain := fs.String("domain", "", "Atlassian cloud domain (defaults to CONFLUENCE_DOMAIN)")
	user := fs.String("user", "", "Confluence user email (defaults to CONFLUENCE_USER)")
	private := fs.String("private", "", "Comma separated channel names migrated as private spaces")
	logLevel := fs.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	logFormat := fs.String("log-format", "console", "Log format (console, json, pretty)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(bootstrap.Options{
		SourceDir:       *sourceDir,
		Domain:          *domain,
		User:            *user,
		PrivateChannels: bootstrap.SplitList(*private),
		LogLevel:        *logLevel,
		LogFormat:       *logFormat,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	handler := migratecmd.NewRunMigrationHandler(module.Orchestrator, module.Logger)
	cmd := migratecmd.RunMigrationCommand{
		SourceDir: *sourceDir,
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute migration command: %w", err)
	}
	fmt.Fprintln(os.Stdout, "migration command executed successfully")

	return nil
}
