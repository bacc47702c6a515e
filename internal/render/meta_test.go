package render

import "testing"

func TestStripMetadataPositionalBlock(t *testing.T) {
	content := "\nMy Page\nCreated at: 2023-01-02\nUpdated at: 2023-03-04\n---\n\n# Heading\n\nBody text"

	got := StripMetadata(content)
	want := "# Heading\n\nBody text"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestStripMetadataFrontMatter(t *testing.T) {
	content := "---\ntitle: My Page\n---\n\n# Heading\n\nBody text"

	got := StripMetadata(content)
	want := "# Heading\n\nBody text"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestStripMetadataShortDocument(t *testing.T) {
	content := "\nMy Page\nCreated at: 2023-01-02\nUpdated at: 2023-03-04\n---\n"

	if got := StripMetadata(content); got != "" {
		t.Fatalf("expected empty document, got %q", got)
	}
}
