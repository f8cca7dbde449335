// Package dedup collapses results that surface the same underlying content
// under different page titles (redirect aliases and near-identical pages).
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"rdb/internal/domain"
)

type key struct {
	contentHash string
	title       string
}

// Apply merges results sharing a (content hash, normalized title) key. The
// first occurrence becomes the canonical result, seeded with its own title
// as an alias. Later collisions contribute their title to the alias list;
// if a later occurrence scores higher, its fields replace the canonical
// result's but the accumulated alias list is preserved.
//
// Apply never increases the result count, never drops the highest-scoring
// member of a collision group, and is idempotent. Input is not mutated.
func Apply(results []domain.SearchResult) []domain.SearchResult {
	if len(results) == 0 {
		return nil
	}

	seen := make(map[key]int, len(results))
	deduplicated := make([]domain.SearchResult, 0, len(results))

	for _, r := range results {
		k := key{
			contentHash: HashContent(r.Chunk.Content),
			title:       NormalizeTitle(r.Chunk.PageTitle),
		}

		idx, dup := seen[k]
		if !dup {
			seen[k] = len(deduplicated)
			if len(r.Aliases) == 0 {
				r.Aliases = []string{r.Chunk.PageTitle}
			} else {
				// Re-running on already-merged output keeps existing aliases.
				r.Aliases = append([]string(nil), r.Aliases...)
			}
			deduplicated = append(deduplicated, r)
			continue
		}

		existing := &deduplicated[idx]
		if !containsTitle(existing.Aliases, r.Chunk.PageTitle) {
			existing.Aliases = append(existing.Aliases, r.Chunk.PageTitle)
		}
		for _, alias := range r.Aliases {
			if !containsTitle(existing.Aliases, alias) {
				existing.Aliases = append(existing.Aliases, alias)
			}
		}

		if r.Score > existing.Score {
			aliases := existing.Aliases
			r.Aliases = aliases
			deduplicated[idx] = r
		}
	}

	return deduplicated
}

func containsTitle(aliases []string, title string) bool {
	for _, a := range aliases {
		if a == title {
			return true
		}
	}
	return false
}

// NormalizeTitle lowercases a page title, folds known spelling variants and
// strips punctuation and whitespace, so "Wi-Fi" and "wifi" collide.
func NormalizeTitle(title string) string {
	normalized := strings.ToLower(title)

	normalized = strings.ReplaceAll(normalized, "wi-fi", "wifi")
	normalized = strings.ReplaceAll(normalized, "wi_fi", "wifi")

	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		switch r {
		case '-', '_', ' ', '\t', '.', ',', ':', ';', '!', '?', '\'', '"', '(', ')', '/':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// HashContent returns a stable hash of the trimmed content. Stability
// matters for reproducible deduplication across processes.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(content)))
	return hex.EncodeToString(sum[:16])
}
