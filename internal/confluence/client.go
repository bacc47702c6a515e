package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-wiki-migrate/internal/logging"
	"github.com/goliatone/go-wiki-migrate/pkg/interfaces"
)

const (
	defaultMaxAttempts = 5
	defaultRetryBase   = time.Second

	// DefaultAttachmentComment is recorded on uploads when the caller does
	// not supply one.
	DefaultAttachmentComment = "Uploaded from Slite"

	duplicateTitleMarker = "A page already exists with the same TITLE"
)

// APIError captures a definitive destination failure: the operation that
// failed, the entity it was operating on, and the response that came back.
type APIError struct {
	Operation  string
	Entity     string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("confluence: %s %q failed: status %d: %s", e.Operation, e.Entity, e.StatusCode, e.Body)
}

// Config wires the destination client. User and APIKey authenticate via HTTP
// basic auth against an Atlassian cloud site identified by Domain.
type Config struct {
	Domain string
	User   string
	APIKey string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	// MaxAttempts caps retries on transient failures (default 5).
	MaxAttempts int
	// RetryBase is the first backoff interval; it doubles per attempt
	// (default 1s). Tests shrink this.
	RetryBase time.Duration

	Logger interfaces.LoggerProvider
}

// Client implements interfaces.WikiClient against the Confluence REST APIs.
// Transient failures (429 and 5xx) are retried with exponential backoff; any
// other non-2xx response fails immediately with the status and body surfaced.
type Client struct {
	routes      *Routes
	httpClient  *http.Client
	user        string
	apiKey      string
	maxAttempts int
	retryBase   time.Duration
	logger      interfaces.Logger
}

var (
	_ interfaces.WikiClient = (*Client)(nil)
	_ interfaces.WikiURLs   = (*Client)(nil)
)

// New constructs a Client from the supplied configuration.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}

	return &Client{
		routes:      NewRoutes(cfg.Domain),
		httpClient:  httpClient,
		user:        cfg.User,
		apiKey:      cfg.APIKey,
		maxAttempts: maxAttempts,
		retryBase:   retryBase,
		logger:      logging.ConfluenceLogger(cfg.Logger),
	}
}

// Routes exposes the client's URL table so the orchestrator can record public
// URLs without holding credentials.
func (c *Client) Routes() *Routes { return c.routes }

// BaseURL implements interfaces.WikiURLs.
func (c *Client) BaseURL() string { return c.routes.BaseURL() }

// SpaceURL implements interfaces.WikiURLs.
func (c *Client) SpaceURL(spaceKey string) string { return c.routes.SpaceURL(spaceKey) }

// PageURL implements interfaces.WikiURLs.
func (c *Client) PageURL(spaceKey, pageID, slug string) string {
	return c.routes.PageURL(spaceKey, pageID, slug)
}

// AttachmentURL implements interfaces.WikiURLs.
func (c *Client) AttachmentURL(pageID, encodedFilename string) string {
	return c.routes.AttachmentURL(pageID, encodedFilename)
}

// CreateSpace creates a destination space and returns its ID together with
// the ID of the homepage the destination provisions for it. Private spaces
// are created under the invoking user only.
func (c *Client) CreateSpace(ctx context.Context, input interfaces.SpaceCreateInput) (*interfaces.SpaceResult, error) {
	payload := map[string]any{
		"name": input.Name,
		"key":  input.Key,
		"description": map[string]any{
			"value":          input.Description,
			"representation": "plain",
		},
	}

	body, status, err := c.doJSON(ctx, http.MethodPost, c.routes.createSpaceEndpoint(input.Private), payload)
	if err != nil {
		return nil, fmt.Errorf("create space %q (key %s): %w", input.Name, input.Key, err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, &APIError{Operation: "create space", Entity: input.Name, StatusCode: status, Body: string(body)}
	}

	var decoded struct {
		ID       json.Number `json:"id"`
		Homepage struct {
			ID json.Number `json:"id"`
		} `json:"homepage"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("create space %q: decode response: %w", input.Name, err)
	}

	c.logger.Info("created space", "name", input.Name, "key", input.Key, "space_id", decoded.ID.String())

	return &interfaces.SpaceResult{
		SpaceID:    decoded.ID.String(),
		HomePageID: decoded.Homepage.ID.String(),
	}, nil
}

// CreatePage creates a page under a space, optionally nested below ParentID.
// A duplicate title within the space surfaces as interfaces.ErrDuplicateTitle.
func (c *Client) CreatePage(ctx context.Context, input interfaces.PageCreateInput) (string, error) {
	payload := map[string]any{
		"spaceId": input.SpaceID,
		"status":  "current",
		"title":   input.Title,
		"body": map[string]any{
			"representation": "storage",
			"value":          input.Content,
		},
	}
	if strings.TrimSpace(input.ParentID) != "" {
		payload["parentId"] = input.ParentID
	}

	body, status, err := c.doJSON(ctx, http.MethodPost, c.routes.createPageEndpoint(), payload)
	if err != nil {
		return "", fmt.Errorf("create page %q: %w", input.Title, err)
	}
	if status == http.StatusBadRequest && strings.Contains(string(body), duplicateTitleMarker) {
		return "", fmt.Errorf("create page %q: %w", input.Title, interfaces.ErrDuplicateTitle)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", &APIError{Operation: "create page", Entity: input.Title, StatusCode: status, Body: string(body)}
	}

	var decoded struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("create page %q: decode response: %w", input.Title, err)
	}

	c.logger.Info("created page", "title", input.Title, "page_id", decoded.ID.String())
	return decoded.ID.String(), nil
}

// UpdatePage republishes a page body with an incremented version number.
func (c *Client) UpdatePage(ctx context.Context, input interfaces.PageUpdateInput) (string, error) {
	payload := map[string]any{
		"id":     input.PageID,
		"status": "current",
		"title":  input.Title,
		"body": map[string]any{
			"representation": "storage",
			"value":          input.Content,
		},
		"version": map[string]any{
			"number":  input.Version,
			"message": input.VersionMessage,
		},
	}

	body, status, err := c.doJSON(ctx, http.MethodPut, c.routes.pageEndpoint(input.PageID), payload)
	if err != nil {
		return "", fmt.Errorf("update page %q: %w", input.Title, err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", &APIError{Operation: "update page", Entity: input.Title, StatusCode: status, Body: string(body)}
	}

	var decoded struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("update page %q: decode response: %w", input.Title, err)
	}

	c.logger.Debug("updated page", "title", input.Title, "page_id", decoded.ID.String(), "version", input.Version)
	return decoded.ID.String(), nil
}

// GetPage fetches a page, primarily to learn its current version number.
func (c *Client) GetPage(ctx context.Context, pageID string) (*interfaces.Page, error) {
	body, status, err := c.doJSON(ctx, http.MethodGet, c.routes.pageEndpoint(pageID), nil)
	if err != nil {
		return nil, fmt.Errorf("get page %s: %w", pageID, err)
	}
	if status != http.StatusOK {
		return nil, &APIError{Operation: "get page", Entity: pageID, StatusCode: status, Body: string(body)}
	}

	var page interfaces.Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("get page %s: decode response: %w", pageID, err)
	}
	return &page, nil
}

// UploadAttachment uploads a local file as an attachment on the given page.
func (c *Client) UploadAttachment(ctx context.Context, pageID, filePath, comment string) (*interfaces.Attachment, error) {
	if strings.TrimSpace(comment) == "" {
		comment = DefaultAttachmentComment
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("upload attachment: read %s: %w", filePath, err)
	}

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("upload attachment: build form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("upload attachment: build form: %w", err)
	}
	if err := writer.WriteField("minorEdit", "true"); err != nil {
		return nil, fmt.Errorf("upload attachment: build form: %w", err)
	}
	if err := writer.WriteField("comment", comment); err != nil {
		return nil, fmt.Errorf("upload attachment: build form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("upload attachment: build form: %w", err)
	}

	headers := map[string]string{
		"X-Atlassian-Token": "nocheck",
		"Content-Type":      writer.FormDataContentType(),
	}

	body, status, err := c.do(ctx, http.MethodPost, c.routes.attachmentsEndpoint(pageID), form.Bytes(), headers)
	if err != nil {
		return nil, fmt.Errorf("upload attachment %s: %w", filepath.Base(filePath), err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, &APIError{Operation: "upload attachment", Entity: filepath.Base(filePath), StatusCode: status, Body: string(body)}
	}

	var decoded struct {
		Results []interfaces.Attachment `json:"results"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("upload attachment %s: decode response: %w", filepath.Base(filePath), err)
	}
	if len(decoded.Results) == 0 {
		return nil, fmt.Errorf("upload attachment %s: empty results", filepath.Base(filePath))
	}

	attachment := decoded.Results[0]
	c.logger.Debug("uploaded attachment", "page_id", pageID, "title", attachment.Title)
	return &attachment, nil
}

// SetSpaceHomepage points a space's homepage at the given page.
func (c *Client) SetSpaceHomepage(ctx context.Context, spaceKey, pageID string) error {
	payload := map[string]any{
		"homepage": map[string]any{
			"id": pageID,
		},
	}

	body, status, err := c.doJSON(ctx, http.MethodPut, c.routes.spaceEndpoint(spaceKey), payload)
	if err != nil {
		return fmt.Errorf("set space homepage %s: %w", spaceKey, err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return &APIError{Operation: "set space homepage", Entity: spaceKey, StatusCode: status, Body: string(body)}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, url string, payload any) ([]byte, int, error) {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("encode payload: %w", err)
		}
		body = encoded
	}

	headers := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}
	return c.do(ctx, method, url, body, headers)
}

// do issues the request, retrying transient statuses with exponential backoff
// until the attempt budget is spent. The final response body and status are
// returned so callers can map statuses to their own error shapes.
func (c *Client) do(ctx context.Context, method, url string, body []byte, headers map[string]string) ([]byte, int, error) {
	var (
		respBody []byte
		status   int
	)

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, 0, fmt.Errorf("build request: %w", err)
		}
		req.SetBasicAuth(c.user, c.apiKey)
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		c.logger.Debug("request", "method", method, "url", url, "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, 0, fmt.Errorf("%s %s: %w", method, url, err)
		}

		respBody, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, 0, fmt.Errorf("%s %s: read body: %w", method, url, err)
		}
		status = resp.StatusCode

		if status < http.StatusBadRequest {
			return respBody, status, nil
		}

		if !retryable(status) || attempt == c.maxAttempts {
			return respBody, status, nil
		}

		wait := c.retryBase << (attempt - 1)
		c.logger.Warn("transient failure, retrying", "status", status, "attempt", attempt, "wait", wait.String())

		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		case <-time.After(wait):
		}
	}

	return respBody, status, nil
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// IsAPIError extracts an APIError when err wraps one.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
