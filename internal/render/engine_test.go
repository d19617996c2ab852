package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type field struct {
	Label string
	Value string
}

func TestFragment_SubmissionData(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	out, err := engine.Fragment("admin/display/submission_data.html", Context{
		"data": []field{
			{Label: "Name", Value: "Jane"},
			{Label: "Note", Value: `<script>alert("x")</script>`},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<th>Name</th>") || !strings.Contains(out, "Jane") {
		t.Fatalf("expected field row in output, got %s", out)
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("expected script to be escaped, got %s", out)
	}
}

func TestFragment_Recipients(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	out, err := engine.Fragment("admin/display/recipients.html", Context{
		"people": []string{`"Ops Team" <ops@example.com>`},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "&lt;ops@example.com&gt;") {
		t.Fatalf("expected escaped address, got %s", out)
	}

	empty, err := engine.Fragment("admin/display/recipients.html", Context{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(empty, "Nobody was notified.") {
		t.Fatalf("expected empty marker, got %s", empty)
	}
}

func TestRenderToString_UnknownTemplate(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := engine.RenderToString("admin/missing.html", nil); err == nil {
		t.Fatalf("expected error for missing template")
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "admin", "display")
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(path, "recipients.html"), []byte("custom {{ people|length }}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	engine, err := New(WithOverrideDir(dir), WithGlobals(Context{"site_title": "Forms"}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	out, err := engine.RenderToString("admin/display/recipients.html", Context{"people": []string{"a", "b"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "custom 2" {
		t.Fatalf("expected override template, got %q", out)
	}

	if _, err := New(WithOverrideDir(filepath.Join(dir, "missing"))); err == nil {
		t.Fatalf("expected error for missing override dir")
	}
}

func TestSanitize(t *testing.T) {
	got := Sanitize(`<table class="x"><tr><td onclick="evil()">ok</td></tr></table><script>bad()</script>`)
	if strings.Contains(got, "onclick") || strings.Contains(got, "script") {
		t.Fatalf("expected unsafe markup removed, got %s", got)
	}
	if !strings.Contains(got, `class="x"`) || !strings.Contains(got, "ok") {
		t.Fatalf("expected safe markup kept, got %s", got)
	}
	if Sanitize("   ") != "" {
		t.Fatalf("expected empty output for blank input")
	}
}
