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
	if err := runMedia(os.Args[1:]); err != nil {
		log.Fatalf("wikimigrate media: %v", err)
	}
}

func runMedia(args []string) error {
	fs := flag.NewFlagSet("wikimigrate-media", flag.ExitOnError)
	sourceDir := fs.String("source-dir", "", "Path to the exported wiki root")
	domain := fs.String("domain", "", "Atlassian cloud domain (defaults to CONFLUENCE_DOMAIN)")
	user := fs.String("user", "", "Confluence user email (defaults to CONFLUENCE_USER)")
	title := fs.String("title", "", "Destination page title used when republishing")
	path := fs.String("path", "", "Path to the source markdown document")
	pageID := fs.String("page-id", "", "Destination page ID to attach media to")
	logLevel := fs.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	logFormat := fs.String("log-format", "console", "Log format (console, json, pretty)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(bootstrap.Options{
		SourceDir: *sourceDir,
		Domain:    *domain,
		User:      *user,
		LogLevel:  *logLevel,
		LogFormat: *logFormat,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	handler := migratecmd.NewMigratePageMediaHandler(module.Orchestrator, module.Logger)
	cmd := migratecmd.MigratePageMediaCommand{
		Title:  *title,
		Path:   *path,
		PageID: *pageID,
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute media command: %w", err)
	}
	fmt.Fprintln(os.Stdout, "media command executed successfully")

	return nil
}
