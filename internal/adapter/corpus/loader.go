// Package corpus loads pre-chunked documentation from JSON files on disk.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"rdb/config"
	"rdb/internal/domain"
	"rdb/internal/logger"
)

// Load reads every chunk file matched by the corpus include patterns, skips
// excluded paths, and returns the chunks in deterministic (path-sorted)
// order. Chunk order matters: vector ids are assigned by position.
func Load(cfg config.CorpusConfig) ([]domain.Chunk, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("corpus directory not configured")
	}
	if _, err := os.Stat(cfg.Dir); err != nil {
		return nil, fmt.Errorf("corpus directory %s: %w", cfg.Dir, err)
	}

	paths, err := matchFiles(cfg)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no chunk files matched under %s", cfg.Dir)
	}

	var chunks []domain.Chunk
	for _, path := range paths {
		fileChunks, err := loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		chunks = append(chunks, fileChunks...)
	}

	logger.Infof("loaded %d chunks from %d files", len(chunks), len(paths))
	return chunks, nil
}

func matchFiles(cfg config.CorpusConfig) ([]string, error) {
	includes := cfg.Includes
	if len(includes) == 0 {
		includes = []string{"**/*.json"}
	}

	seen := make(map[string]bool)
	var paths []string

	root := os.DirFS(cfg.Dir)
	for _, pattern := range includes {
		matches, err := doublestar.Glob(root, pattern)
		if err != nil {
			return nil, fmt.Errorf("include pattern %q: %w", pattern, err)
		}
		for _, rel := range matches {
			if seen[rel] || excluded(cfg.Excludes, rel) {
				continue
			}
			seen[rel] = true
			paths = append(paths, filepath.Join(cfg.Dir, rel))
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func excluded(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// loadFile parses one chunk file. A file holds either a JSON array of chunks
// or a single chunk object.
func loadFile(path string) ([]domain.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		var single domain.Chunk
		if errSingle := json.Unmarshal(data, &single); errSingle != nil {
			return nil, err
		}
		chunks = []domain.Chunk{single}
	}

	for i := range chunks {
		if err := validate(&chunks[i]); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
	}
	return chunks, nil
}

func validate(c *domain.Chunk) error {
	if c.Content == "" {
		return fmt.Errorf("empty content (title %q)", c.PageTitle)
	}
	if c.ChunkText == "" {
		c.ChunkText = c.Content
	}
	if c.ChunkType == "" {
		c.ChunkType = domain.ChunkMedium
	}
	if !c.ChunkType.Valid() {
		return fmt.Errorf("invalid chunk_type %q (title %q)", c.ChunkType, c.PageTitle)
	}
	return nil
}
