package migratecmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wiki-migrate/pkg/interfaces"
)

type stubWikiClient struct {
	uploads   []string
	uploadErr error
}

func (s *stubWikiClient) CreateSpace(ctx context.Context, input interfaces.SpaceCreateInput) (*interfaces.SpaceResult, error) {
	return &interfaces.SpaceResult{SpaceID: "1", HomePageID: "2"}, nil
}

func (s *stubWikiClient) CreatePage(ctx context.Context, input interfaces.PageCreateInput) (string, error) {
	return "3", nil
}

func (s *stubWikiClient) UpdatePage(ctx context.Context, input interfaces.PageUpdateInput) (string, error) {
	return input.PageID, nil
}

func (s *stubWikiClient) GetPage(ctx context.Context, pageID string) (*interfaces.Page, error) {
	return &interfaces.Page{ID: pageID, Version: interfaces.PageVersion{Number: 1}}, nil
}

func (s *stubWikiClient) UploadAttachment(ctx context.Context, pageID, filePath, comment string) (*interfaces.Attachment, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	s.uploads = append(s.uploads, filePath)
	return &interfaces.Attachment{ID: "att-1", Title: "file"}, nil
}

func (s *stubWikiClient) SetSpaceHomepage(ctx context.Context, spaceKey, pageID string) error {
	return nil
}

func TestUploadAttachmentHandlerExecutes(t *testing.T) {
	client := &stubWikiClient{}
	handler := NewUploadAttachmentHandler(client, nil)

	err := handler.Execute(context.Background(), UploadAttachmentCommand{
		PageID:   "42",
		FilePath: "/export/diagram.png",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(client.uploads) != 1 || client.uploads[0] != "/export/diagram.png" {
		t.Fatalf("unexpected uploads %v", client.uploads)
	}
}

func TestUploadAttachmentHandlerRejectsInvalidMessage(t *testing.T) {
	client := &stubWikiClient{}
	handler := NewUploadAttachmentHandler(client, nil)

	err := handler.Execute(context.Background(), UploadAttachmentCommand{PageID: "42"})
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(client.uploads) != 0 {
		t.Fatal("invalid message should not reach the client")
	}
}

func TestUploadAttachmentHandlerWrapsClientErrors(t *testing.T) {
	client := &stubWikiClient{uploadErr: errors.New("boom")}
	handler := NewUploadAttachmentHandler(client, nil)

	err := handler.Execute(context.Background(), UploadAttachmentCommand{
		PageID:   "42",
		FilePath: "/export/diagram.png",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}
