package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"rdb/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_ArrayAndSingleObject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[
		{"page_title": "Wi-Fi", "content": "wireless setup", "chunk_type": "small"},
		{"page_title": "Pacman", "content": "package manager", "chunk_type": "large"}
	]`)
	writeFile(t, filepath.Join(dir, "sub", "b.json"),
		`{"page_title": "GRUB", "content": "bootloader"}`)

	chunks, err := Load(config.CorpusConfig{Dir: dir, Includes: []string{"**/*.json"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	// Path-sorted order: a.json before sub/b.json.
	if chunks[0].PageTitle != "Wi-Fi" || chunks[2].PageTitle != "GRUB" {
		t.Errorf("unexpected order: %q, %q, %q",
			chunks[0].PageTitle, chunks[1].PageTitle, chunks[2].PageTitle)
	}
}

func TestLoad_DefaultsFilledIn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"),
		`{"page_title": "GRUB", "content": "bootloader"}`)

	chunks, err := Load(config.CorpusConfig{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if chunks[0].ChunkText != "bootloader" {
		t.Errorf("expected chunk_text defaulted to content, got %q", chunks[0].ChunkText)
	}
	if !chunks[0].ChunkType.Valid() {
		t.Errorf("expected default chunk type, got %q", chunks[0].ChunkType)
	}
}

func TestLoad_Excludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"),
		`{"page_title": "A", "content": "x"}`)
	writeFile(t, filepath.Join(dir, "drafts", "b.json"),
		`{"page_title": "B", "content": "y"}`)

	chunks, err := Load(config.CorpusConfig{
		Dir:      dir,
		Includes: []string{"**/*.json"},
		Excludes: []string{"drafts/**"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0].PageTitle != "A" {
		t.Errorf("expected only non-excluded chunk, got %+v", chunks)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(config.CorpusConfig{Dir: filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected error for missing directory")
	}
	if _, err := Load(config.CorpusConfig{Dir: dir}); err == nil {
		t.Error("expected error when no files match")
	}

	writeFile(t, filepath.Join(dir, "bad.json"), `{"page_title": "Empty"}`)
	if _, err := Load(config.CorpusConfig{Dir: dir}); err == nil {
		t.Error("expected error for chunk with empty content")
	}

	writeFile(t, filepath.Join(dir, "bad.json"),
		`{"page_title": "X", "content": "y", "chunk_type": "huge"}`)
	if _, err := Load(config.CorpusConfig{Dir: dir}); err == nil {
		t.Error("expected error for invalid chunk_type")
	}
}
