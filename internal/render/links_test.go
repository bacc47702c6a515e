package render

import "testing"

func TestCollapseDuplicateLinksMatchingURLs(t *testing.T) {
	input := "intro\n<https://example.com/a>\n[\\[https://example.com/a\\]](https://example.com/a)\noutro"

	got := CollapseDuplicateLinks(input)
	want := "intro\n[https://example.com/a](https://example.com/a)\noutro"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestCollapseDuplicateLinksDifferingURLs(t *testing.T) {
	input := "<https://example.com/a>\n[\\[https://example.com/b\\]](https://example.com/b)"

	if got := CollapseDuplicateLinks(input); got != input {
		t.Fatalf("differing URLs should be preserved, got %q", got)
	}
}

func TestConvertBangAdmonitions(t *testing.T) {
	input := "before\n!!Remember to sync\nafter"

	got := ConvertBangAdmonitions(input)
	want := "before\n> [!NOTE]\n> Remember to sync\nafter"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
