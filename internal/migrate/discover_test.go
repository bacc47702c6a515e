package migrate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-wiki-migrate/internal/state"
)

func TestDiscoverBuildsTree(t *testing.T) {
	base := writeExport(t)
	o := newTestOrchestrator(t, base, newStubClient())

	if err := o.Discover(context.Background()); err != nil {
		t.Fatalf("discover: %v", err)
	}

	structure, err := o.Store().LoadStructure()
	if err != nil {
		t.Fatalf("load structure: %v", err)
	}

	if len(structure) != 1 {
		t.Fatalf("expected 1 channel, got %d: %v", len(structure), structure.ChannelNames())
	}

	channel := structure["Engineering"]
	if channel == nil {
		t.Fatal("channel missing")
	}
	if channel.Kind != state.KindChannel {
		t.Fatalf("unexpected channel kind %q", channel.Kind)
	}
	if channel.SpaceKey != "E" {
		t.Fatalf("unexpected space key %q", channel.SpaceKey)
	}
	if want := filepath.Join(base, "Engineering", "Engineering.md"); channel.Path != want {
		t.Fatalf("unexpected channel path %q, want %q", channel.Path, want)
	}

	setup := channel.Children["Setup"]
	if setup == nil {
		t.Fatal("setup page missing")
	}
	if setup.Kind != state.KindPage {
		t.Fatalf("unexpected page kind %q", setup.Kind)
	}
	if setup.Parent != "" {
		t.Fatalf("channel-level page should have no parent title, got %q", setup.Parent)
	}
	if _, ok := setup.Media["diagram.png"]; !ok {
		t.Fatalf("media file missing: %v", setup.Media)
	}

	deep := setup.Children["Deep Dive"]
	if deep == nil {
		t.Fatal("nested page missing")
	}
	if deep.Parent != "Setup" {
		t.Fatalf("nested page should record its parent title, got %q", deep.Parent)
	}

	urlMap, err := o.Store().LoadURLMap()
	if err != nil {
		t.Fatalf("load url map: %v", err)
	}
	if got := urlMap[channel.Path]; got != "https://wiki.test/spaces/E" {
		t.Fatalf("channel root should map to the space url, got %q", got)
	}
}

func TestDiscoverSkipsWhenSnapshotExists(t *testing.T) {
	base := writeExport(t)
	o := newTestOrchestrator(t, base, newStubClient())

	if err := o.Discover(context.Background()); err != nil {
		t.Fatalf("discover: %v", err)
	}

	structure, err := o.Store().LoadStructure()
	if err != nil {
		t.Fatalf("load structure: %v", err)
	}
	structure["Engineering"].SpaceCreated = true
	structure["Engineering"].SpaceID = "space-7"
	if err := o.Store().SaveStructure(structure); err != nil {
		t.Fatalf("save structure: %v", err)
	}

	if err := o.Discover(context.Background()); err != nil {
		t.Fatalf("second discover: %v", err)
	}

	reloaded, err := o.Store().LoadStructure()
	if err != nil {
		t.Fatalf("reload structure: %v", err)
	}
	if !reloaded["Engineering"].SpaceCreated || reloaded["Engineering"].SpaceID != "space-7" {
		t.Fatalf("second discover clobbered progress: %+v", reloaded["Engineering"])
	}
}

func TestGenerateSpaceKey(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Engineering", "E"},
		{"Eng Team", "ET"},
		{"platform-engineering", "PE"},
		{"ops", "O"},
		{"a b c d e f g h i j k l", "ABCDEFGHIJ"},
		{"---", "---"},
	}

	for _, tc := range cases {
		if got := GenerateSpaceKey(tc.name); got != tc.want {
			t.Fatalf("GenerateSpaceKey(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
