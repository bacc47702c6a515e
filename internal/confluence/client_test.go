package confluence

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-wiki-migrate/pkg/interfaces"
)

// rewriteTransport redirects requests aimed at the Atlassian domain to the
// local test server so the client's URL building stays untouched.
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}

	client := New(Config{
		Domain:     "acme",
		User:       "bot@example.com",
		APIKey:     "secret",
		HTTPClient: &http.Client{Transport: rewriteTransport{target: target}},
		RetryBase:  time.Millisecond,
	})
	return client, server
}

func TestCreatePageRetriesTransientFailures(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 123})
	}))

	pageID, err := client.CreatePage(context.Background(), interfaces.PageCreateInput{
		SpaceID: "9",
		Title:   "Setup",
		Content: "<p>hi</p>",
	})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}
	if pageID != "123" {
		t.Fatalf("unexpected page id %q", pageID)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestCreatePageGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.CreatePage(context.Background(), interfaces.PageCreateInput{
		SpaceID: "9",
		Title:   "Setup",
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	apiErr, ok := IsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != defaultMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", defaultMaxAttempts, got)
	}
}

func TestCreatePageDoesNotRetryPermanentFailures(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))

	if _, err := client.CreatePage(context.Background(), interfaces.PageCreateInput{SpaceID: "9", Title: "Setup"}); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("permanent failure should not be retried, got %d attempts", got)
	}
}

func TestCreatePageDuplicateTitle(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"title":"A page already exists with the same TITLE in the target space"}]}`))
	}))

	_, err := client.CreatePage(context.Background(), interfaces.PageCreateInput{
		SpaceID: "9",
		Title:   "Setup",
	})
	if !errors.Is(err, interfaces.ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}
}

func TestCreateSpaceDecodesHomepage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wiki/rest/api/space" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if user, key, ok := r.BasicAuth(); !ok || user != "bot@example.com" || key != "secret" {
			t.Errorf("missing basic auth")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":       55,
			"homepage": map[string]any{"id": 77},
		})
	}))

	result, err := client.CreateSpace(context.Background(), interfaces.SpaceCreateInput{
		Name: "Engineering",
		Key:  "E",
	})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	if result.SpaceID != "55" || result.HomePageID != "77" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCreateSpacePrivateEndpoint(t *testing.T) {
	var path string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{"id": 1, "homepage": map[string]any{"id": 2}})
	}))

	if _, err := client.CreateSpace(context.Background(), interfaces.SpaceCreateInput{
		Name:    "Secret",
		Key:     "S",
		Private: true,
	}); err != nil {
		t.Fatalf("create space: %v", err)
	}
	if path != "/wiki/rest/api/space/_private" {
		t.Fatalf("private space should use the private endpoint, got %s", path)
	}
}

func TestUploadAttachment(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "diagram.png")
	if err := os.WriteFile(file, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Atlassian-Token") != "nocheck" {
			t.Errorf("missing nocheck token header")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.FormValue("comment"); got != DefaultAttachmentComment {
			t.Errorf("unexpected comment %q", got)
		}
		if got := r.FormValue("minorEdit"); got != "true" {
			t.Errorf("unexpected minorEdit %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"id": "att-9", "title": "diagram.png"}},
		})
	}))

	attachment, err := client.UploadAttachment(context.Background(), "42", file, "")
	if err != nil {
		t.Fatalf("upload attachment: %v", err)
	}
	if attachment.ID != "att-9" || attachment.Title != "diagram.png" {
		t.Fatalf("unexpected attachment %+v", attachment)
	}
}

func TestSetSpaceHomepage(t *testing.T) {
	var path, method string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, method = r.URL.Path, r.Method
		var payload struct {
			Homepage struct {
				ID string `json:"id"`
			} `json:"homepage"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Homepage.ID != "77" {
			t.Errorf("unexpected payload (err %v): %+v", err, payload)
		}
		w.Write([]byte(`{}`))
	}))

	if err := client.SetSpaceHomepage(context.Background(), "ET", "77"); err != nil {
		t.Fatalf("set space homepage: %v", err)
	}
	if path != "/wiki/rest/api/space/ET" || method != http.MethodPut {
		t.Fatalf("unexpected request %s %s", method, path)
	}
}

func TestGetPageVersion(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "42",
			"title":   "Setup",
			"version": map[string]any{"number": 4},
		})
	}))

	page, err := client.GetPage(context.Background(), "42")
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	if page.Version.Number != 4 {
		t.Fatalf("unexpected version %d", page.Version.Number)
	}
}

func TestRoutesURLs(t *testing.T) {
	routes := NewRoutes("acme")

	if got := routes.SpaceURL("ET"); got != "https://acme.atlassian.net/wiki/spaces/ET" {
		t.Fatalf("unexpected space url %q", got)
	}
	if got := routes.PageURL("ET", "9", "getting-started"); got != "https://acme.atlassian.net/wiki/spaces/ET/pages/9/getting-started" {
		t.Fatalf("unexpected page url %q", got)
	}
	if got := routes.AttachmentURL("42", "screen%20shot.png"); got != "https://acme.atlassian.net/wiki/download/attachments/42/screen%20shot.png" {
		t.Fatalf("unexpected attachment url %q", got)
	}
}
