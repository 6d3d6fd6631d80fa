//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDirSource_Load(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"beta_doc.md":  "beta content",
		"alpha_doc.md": "alpha content",
		"ignored.txt":  "not markdown",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}
	}

	docs, err := DirSource{Dir: dir}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "alpha_doc" || docs[1].ID != "beta_doc" {
		t.Errorf("documents not ordered by ID: %q, %q", docs[0].ID, docs[1].ID)
	}
	if docs[0].Text != "alpha content" {
		t.Errorf("unexpected document text: %q", docs[0].Text)
	}
}

func TestDirSource_MissingDirectory(t *testing.T) {
	docs, err := DirSource{Dir: filepath.Join(t.TempDir(), "nope")}.Load(context.Background())
	if err != nil {
		t.Fatalf("expected no error for missing directory, got %v", err)
	}
	if docs != nil {
		t.Errorf("expected empty corpus, got %d documents", len(docs))
	}
}
