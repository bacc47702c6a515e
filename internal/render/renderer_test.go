package render

import (
	"strings"
	"testing"
)

func TestRenderFullPipeline(t *testing.T) {
	raw := strings.Join([]string{
		"",
		"Runbook",
		"Created at: 2023-01-02",
		"Updated at: 2023-03-04",
		"---",
		"",
		"# Runbook",
		"",
		"!!Always page the on-call first",
		"",
		"```python",
		"def check():",
		"    return True",
		"```",
		"",
	}, "\n")

	r := NewRenderer()
	got, warnings := r.Render(raw)

	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if !strings.Contains(got, "<h1>Runbook</h1>") {
		t.Fatalf("heading missing from output: %q", got)
	}
	if !strings.Contains(got, `ac:name="info"`) {
		t.Fatalf("bang admonition should become an info panel: %q", got)
	}
	if !strings.Contains(got, "Always page the on-call first") {
		t.Fatalf("admonition content missing: %q", got)
	}
	if !strings.Contains(got, `<ac:parameter ac:name="language">python</ac:parameter>`) {
		t.Fatalf("code macro language missing: %q", got)
	}
	if !strings.Contains(got, "<![CDATA[def check():\n    return True]]>") {
		t.Fatalf("code body should be literal: %q", got)
	}
	if strings.Contains(got, "Created at") {
		t.Fatalf("metadata block leaked into output: %q", got)
	}
}

func TestRenderTables(t *testing.T) {
	raw := strings.Join([]string{
		"",
		"Matrix",
		"Created at: 2023-01-02",
		"Updated at: 2023-03-04",
		"---",
		"",
		"| Name | Role |",
		"| ---- | ---- |",
		"| Ana  | SRE  |",
	}, "\n")

	r := NewRenderer()
	got, _ := r.Render(raw)

	if !strings.Contains(got, "<table>") || !strings.Contains(got, "<td>Ana</td>") {
		t.Fatalf("table extension output missing: %q", got)
	}
}
