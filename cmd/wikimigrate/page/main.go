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
	if err := runPage(os.Args[1:]); err != nil {
		log.Fatalf("wikimigrate page: %v", err)
	}
}

func runPage(args []string) error {
	fs := flag.NewFlagSet("wikimigrate-page", flag.ExitOnError)
	sourceDir := fs.String("source-dir", "", "Path to the exported wiki root")
	domain := fs.String("domain", "", "Atlassian cloud domain (defaults to CONFLUENCE_DOMAIN)")
	user := fs.String("user", "", "Confluence user email (defaults to CONFLUENCE_USER)")
	spaceID := fs.String("space-id", "", "Destination space ID")
	title := fs.String("title", "", "Destination page title")
	parentID := fs.String("parent-id", "", "Optional parent page ID")
	path := fs.String("path", "", "Path to the source markdown document")
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

	handler := migratecmd.NewMigratePageHandler(module.Orchestrator, module.Logger)
	cmd := migratecmd.MigratePageCommand{
		SpaceID:  *spaceID,
		Title:    *title,
		ParentID: *parentID,
		Path:     *path,
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute page command: %w", err)
	}
	fmt.Fprintln(os.Stdout, "page command executed successfully")

	return nil
}
