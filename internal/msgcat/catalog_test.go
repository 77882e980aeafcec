package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderEmbeddedDefaults(t *testing.T) {
	cat, err := New("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	msg, err := cat.Render("arena.session.started", map[string]any{
		"Player": "Anna",
		"Side":   "white",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(msg, "Anna") || !strings.Contains(msg, "white") {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestRenderUnknownKeyFails(t *testing.T) {
	cat, err := New("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if _, err := cat.Render("arena.no.such.key", nil); err == nil {
		t.Fatal("expected an error for an unknown key")
	}
}

func TestRenderMissingFieldFails(t *testing.T) {
	cat, err := New("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if _, err := cat.Render("arena.session.started", map[string]any{"Player": "Anna"}); err == nil {
		t.Fatal("expected an error for a missing template field")
	}
}

func TestOverrideDirectoryReplacesKeys(t *testing.T) {
	dir := t.TempDir()
	override := "arena:\n  session:\n    started: \"custom {{.Player}}\"\n"
	if err := os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	cat, err := New(dir)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	msg, err := cat.Render("arena.session.started", map[string]any{"Player": "Anna"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if msg != "custom Anna" {
		t.Fatalf("override not applied: %s", msg)
	}

	// Untouched keys still come from the embedded defaults.
	if _, err := cat.Render("arena.error.invalid_move", nil); err != nil {
		t.Fatalf("default key lost: %v", err)
	}
}

func TestDuplicateOverrideKeysRejected(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yaml"} {
		body := "arena:\n  session:\n    started: \"from " + name + "\"\n"
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if _, err := New(dir); err == nil {
		t.Fatal("expected duplicate key error")
	}
}
