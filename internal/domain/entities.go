package domain

import "time"

// ChunkType is the granularity level of a chunk.
type ChunkType string

const (
	ChunkSmall  ChunkType = "small"  // sub-paragraph unit
	ChunkMedium ChunkType = "medium" // whole section
	ChunkLarge  ChunkType = "large"  // grouped top-level sections or whole page
)

// Valid reports whether t is one of the three known granularities.
func (t ChunkType) Valid() bool {
	return t == ChunkSmall || t == ChunkMedium || t == ChunkLarge
}

// Chunk is one retrievable documentation passage, produced upstream and
// consumed read-only. ChunkText carries title/section context for embedding
// and is never displayed.
type Chunk struct {
	PageTitle    string    `json:"page_title"`
	SectionPath  string    `json:"section_path"`
	Content      string    `json:"content"`
	ChunkText    string    `json:"chunk_text"`
	URL          string    `json:"url"`
	ChunkType    ChunkType `json:"chunk_type"`
	SectionLevel int       `json:"section_level"`
}

// SearchResult is one ranked result. Score is cosine similarity after
// boosting and may exceed [-1,1]. Aliases holds every page title merged into
// this result by deduplication; it is a singleton list when no merge occurred.
type SearchResult struct {
	Rank          int      `json:"rank"`
	Score         float64  `json:"score"`
	Chunk         Chunk    `json:"chunk"`
	OriginalQuery string   `json:"original_query"`
	FinalQuery    string   `json:"final_query"`
	Aliases       []string `json:"aliases,omitempty"`
}

// IndexStats describes a loaded vector index.
type IndexStats struct {
	Status       string         `json:"status"`
	TotalVectors int            `json:"total_vectors"`
	TotalChunks  int            `json:"total_chunks"`
	Dimension    int            `json:"dimension"`
	ChunkTypes   map[string]int `json:"chunk_types,omitempty"`
}

// SearchRecord is one persisted search-history entry.
type SearchRecord struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	OriginalQuery string    `json:"original_query"`
	FinalQuery    string    `json:"final_query"`
	Refined       bool      `json:"refined"`
	ResultCount   int       `json:"result_count"`
	DurationMs    int64     `json:"duration_ms"`
}
