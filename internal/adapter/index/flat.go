// Package index implements the vector index: an exact inner-product search
// over unit-normalized embedding vectors with index-aligned chunk metadata,
// persisted as a bbolt vector file plus a JSON metadata file.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"rdb/internal/domain"
)

var (
	// ErrUnavailable means the index artifacts are missing. The caller
	// should build the index first; the engine never auto-rebuilds.
	ErrUnavailable = errors.New("index unavailable")

	// ErrNotLoaded means Search was called before the index was loaded.
	// This is a programmer error, not a retry case.
	ErrNotLoaded = errors.New("vector index not loaded")
)

// Flat is a brute-force inner-product index. It is immutable after
// construction and therefore safe for concurrent reads; rebuilds construct a
// new Flat and swap the reference at the engine level.
type Flat struct {
	dim     int
	vectors [][]float32
	chunks  []domain.Chunk
}

// NewFlat builds an index from index-aligned vectors and chunks. A count
// mismatch between the two arrays is a fatal construction error.
func NewFlat(vectors [][]float32, chunks []domain.Chunk) (*Flat, error) {
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("index corrupt: %d vectors but %d chunks", len(vectors), len(chunks))
	}

	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim)
		}
	}

	return &Flat{dim: dim, vectors: vectors, chunks: chunks}, nil
}

// Search returns the k nearest neighbors by inner product, highest first.
// The query must be unit-normalized for the scores to be cosine similarities.
func (f *Flat) Search(query []float32, k int) ([]float64, []int, error) {
	if f == nil || f.vectors == nil {
		return nil, nil, ErrNotLoaded
	}
	if len(query) != f.dim {
		return nil, nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", f.dim, len(query))
	}
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil, nil
	}

	ids := make([]int, len(f.vectors))
	scores := make([]float64, len(f.vectors))
	for i, v := range f.vectors {
		ids[i] = i
		scores[i] = innerProduct(query, v)
	}

	sort.SliceStable(ids, func(a, b int) bool {
		return scores[ids[a]] > scores[ids[b]]
	})

	if k > len(ids) {
		k = len(ids)
	}

	topScores := make([]float64, k)
	topIDs := make([]int, k)
	for i := 0; i < k; i++ {
		topIDs[i] = ids[i]
		topScores[i] = scores[ids[i]]
	}
	return topScores, topIDs, nil
}

// Chunk returns the chunk at position i.
func (f *Flat) Chunk(i int) (domain.Chunk, bool) {
	if f == nil || i < 0 || i >= len(f.chunks) {
		return domain.Chunk{}, false
	}
	return f.chunks[i], true
}

// Len returns the number of indexed vectors.
func (f *Flat) Len() int {
	if f == nil {
		return 0
	}
	return len(f.vectors)
}

// Dimension returns the vector dimension.
func (f *Flat) Dimension() int {
	if f == nil {
		return 0
	}
	return f.dim
}

// Stats returns diagnostic information about the index.
func (f *Flat) Stats() domain.IndexStats {
	if f == nil || f.vectors == nil {
		return domain.IndexStats{Status: "not_loaded"}
	}

	types := make(map[string]int)
	for _, c := range f.chunks {
		types[string(c.ChunkType)]++
	}

	return domain.IndexStats{
		Status:       "loaded",
		TotalVectors: len(f.vectors),
		TotalChunks:  len(f.chunks),
		Dimension:    f.dim,
		ChunkTypes:   types,
	}
}

func innerProduct(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// Normalize scales v to unit length in place and returns it. Zero vectors
// are returned unchanged.
func Normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	inv := 1.0 / math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}
