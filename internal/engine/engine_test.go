package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewSelectsEngine(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantErr bool
	}{
		{name: "docjson", version: "docjson-1"},
		{name: "text", version: "text-1"},
		{name: "docling", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, err := New(tt.name, nil)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownEngine) {
					t.Errorf("expected ErrUnknownEngine, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q) failed: %v", tt.name, err)
			}
			if eng.Version() != tt.version {
				t.Errorf("expected version %s, got %s", tt.version, eng.Version())
			}
		})
	}
}

func TestTextEngineParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.txt")
	content := "First paragraph.\n\n  Second paragraph.  \n\nThird.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	doc, err := NewText().Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(doc.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(doc.Pages))
	}
	if doc.Pages[0].Width != 612 || doc.Pages[0].Height != 792 {
		t.Errorf("unexpected page dimensions %v x %v", doc.Pages[0].Width, doc.Pages[0].Height)
	}
	if len(doc.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(doc.Blocks))
	}
	for i, blk := range doc.Blocks {
		if blk.ReadingOrder != i {
			t.Errorf("block %d has reading order %d", i, blk.ReadingOrder)
		}
		if blk.PageNumber != 1 {
			t.Errorf("block %d on page %d, want 1", i, blk.PageNumber)
		}
	}
	if doc.Blocks[1].Text != "Second paragraph." {
		t.Errorf("expected trimmed paragraph text, got %q", doc.Blocks[1].Text)
	}
}

func TestTextEngineEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	doc, err := NewText().Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(doc.Blocks) != 0 {
		t.Errorf("expected no blocks, got %d", len(doc.Blocks))
	}
	if len(doc.Pages) != 1 {
		t.Errorf("expected the synthetic page, got %d pages", len(doc.Pages))
	}
}

func TestDocJSONParse(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "book.pdf")
	if err := os.WriteFile(source, []byte("placeholder"), 0o644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	sidecar := `{
		"engine_version": "docling-2.1",
		"pages": [
			{"page_number": 1, "width": 612, "height": 792},
			{"page_number": 2, "width": 612, "height": 792}
		],
		"sections": [
			{"id": "s1", "level": 1, "title_text": "Intro", "start_page_number": 1, "end_page_number": 2, "order_index": 0}
		],
		"blocks": [
			{"id": "b1", "page_number": 1, "block_type": "paragraph", "text": "Hello.", "reading_order": 0, "section_path": ["s1"]},
			{"id": "b2", "page_number": 2, "block_type": "figure", "reading_order": 0, "asset_id": "a1"}
		],
		"assets": [
			{"id": "a1", "page_number": 2, "asset_type": "figure", "image_path": "/tmp/a1.png"}
		]
	}`
	if err := os.WriteFile(source+".json", []byte(sidecar), 0o644); err != nil {
		t.Fatalf("failed to write sidecar: %v", err)
	}

	doc, err := NewDocJSON().Parse(context.Background(), source)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.EngineVersion != "docling-2.1" {
		t.Errorf("unexpected engine version %s", doc.EngineVersion)
	}
	if len(doc.Pages) != 2 || len(doc.Sections) != 1 || len(doc.Blocks) != 2 || len(doc.Assets) != 1 {
		t.Errorf("unexpected document shape: %d pages, %d sections, %d blocks, %d assets",
			len(doc.Pages), len(doc.Sections), len(doc.Blocks), len(doc.Assets))
	}
	if doc.Blocks[0].SectionPath[0] != "s1" {
		t.Errorf("section path not preserved: %v", doc.Blocks[0].SectionPath)
	}
}

func TestDocJSONMissingSidecar(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "book.pdf")
	if err := os.WriteFile(source, []byte("placeholder"), 0o644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	if _, err := NewDocJSON().Parse(context.Background(), source); err == nil {
		t.Error("expected error for missing sidecar")
	}
}

func TestDocJSONRejectsInvalidSidecar(t *testing.T) {
	tests := []struct {
		name    string
		sidecar string
	}{
		{name: "not json", sidecar: "{nope"},
		{name: "missing engine_version", sidecar: `{"pages": [], "blocks": []}`},
		{name: "bad page number", sidecar: `{"engine_version": "v", "pages": [{"page_number": 0, "width": 1, "height": 1}], "blocks": []}`},
		{name: "block missing id", sidecar: `{"engine_version": "v", "pages": [], "blocks": [{"page_number": 1, "block_type": "paragraph", "reading_order": 0}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			source := filepath.Join(dir, "book.pdf")
			if err := os.WriteFile(source, []byte("placeholder"), 0o644); err != nil {
				t.Fatalf("failed to write source: %v", err)
			}
			if err := os.WriteFile(source+".json", []byte(tt.sidecar), 0o644); err != nil {
				t.Fatalf("failed to write sidecar: %v", err)
			}

			if _, err := NewDocJSON().Parse(context.Background(), source); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDocJSONSidecarFallback(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "book.pdf")
	if err := os.WriteFile(source, []byte("placeholder"), 0o644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}
	// Only the extension-replaced form exists.
	sidecar := filepath.Join(dir, "book.json")
	if err := os.WriteFile(sidecar, []byte(`{"engine_version": "v", "pages": [], "blocks": []}`), 0o644); err != nil {
		t.Fatalf("failed to write sidecar: %v", err)
	}

	doc, err := NewDocJSON().Parse(context.Background(), source)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.EngineVersion != "v" {
		t.Errorf("unexpected engine version %s", doc.EngineVersion)
	}
}

func TestDocJSONCountPagesNonPDF(t *testing.T) {
	if got := NewDocJSON().CountPages(context.Background(), "/tmp/book.txt"); got != 0 {
		t.Errorf("expected 0 for non-pdf, got %d", got)
	}
}
