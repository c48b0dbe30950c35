package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedCatalog(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("review.position.ply", map[string]any{"Number": 3, "Black": true, "SAN": "Nc6"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "Move 3... Nc6" {
		t.Fatalf("unexpected text %q", got)
	}
	if !c.Has("review.status.draw-by-repetition") {
		t.Fatalf("expected status key for repetition")
	}
}

func TestRenderMissingKey(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Render("nope.missing", nil); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if got := c.Text("nope.missing", nil); got != "nope.missing" {
		t.Fatalf("Text fallback = %q", got)
	}
	if _, err := c.Render("review.progress", map[string]any{"Ply": 1}); err == nil {
		t.Fatalf("expected error for missing template field")
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("review:\n  check: \"+\"\n"), 0o600); err != nil {
		t.Fatalf("write override: %v", err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Text("review.check", nil); got != "+" {
		t.Fatalf("override not applied, got %q", got)
	}
}

func TestOverrideDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("review:\n  check: x\n"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	_, err := New(dir)
	if err == nil || !strings.Contains(err.Error(), "duplicate override key") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestOverrideRejectsNonString(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("review:\n  check: 3\n"), 0o600); err != nil {
		t.Fatalf("write override: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected error for non-string value")
	}
}
