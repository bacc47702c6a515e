package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/goliatone/go-wiki-migrate/cmd/wikimigrate/internal/bootstrap"
	migratecmd "github.com/goliatone/go-wiki-migrate/internal/commands/migrate"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runAttachment(os.Args[1:]); err != nil {
		log.Fatalf("wikimigrate attachment: %v", err)
	}
}

func runAttachment(args []string) error {
	fs := flag.NewFlagSet("wikimigrate-attachment", flag.ExitOnError)
	domain := fs.String("domain", "", "Atlassian cloud domain (defaults to CONFLUENCE_DOMAIN)")
	user := fs.String("user", "", "Confluence user email (defaults to CONFLUENCE_USER)")
	pageID := fs.String("page-id", "", "Destination page ID to attach the file to")
	file := fs.String("file", "", "Path to the file to upload")
	comment := fs.String("comment", "", "Attachment comment (defaults to the client default)")
	logLevel := fs.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	logFormat := fs.String("log-format", "console", "Log format (console, json, pretty)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// The attachment upload only needs the client; the orchestrator's source
	// directory is derived from the file location to satisfy bootstrap.
	sourceDir := filepath.Dir(*file)
	if *file == "" {
		sourceDir = "."
	}

	module, err := moduleBuilder(bootstrap.Options{
		SourceDir: sourceDir,
		Domain:    *domain,
		User:      *user,
		LogLevel:  *logLevel,
		LogFormat: *logFormat,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	handler := migratecmd.NewUploadAttachmentHandler(module.Client, module.Logger)
	cmd := migratecmd.UploadAttachmentCommand{
		PageID:   *pageID,
		FilePath: *file,
		Comment:  *comment,
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute attachment command: %w", err)
	}
	fmt.Fprintln(os.Stdout, "attachment command executed successfully")

	return nil
}
