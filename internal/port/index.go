package port

import "rdb/internal/domain"

// VectorIndex is a nearest-neighbor search structure over unit-normalized
// embedding vectors with index-aligned chunk metadata.
//
// Implementations must be safe for concurrent reads: once constructed the
// index is treated as immutable for the lifetime of the process, and
// rebuilds happen by constructing a new instance and swapping the reference.
type VectorIndex interface {
	// Search returns the k nearest neighbors by inner product. The caller
	// must pre-normalize query to unit length for the scores to be cosine
	// similarities.
	Search(query []float32, k int) (scores []float64, ids []int, err error)

	// Chunk returns the chunk metadata at position i.
	Chunk(i int) (domain.Chunk, bool)

	// Len returns the number of indexed vectors.
	Len() int

	// Dimension returns the vector dimension.
	Dimension() int

	// Stats returns diagnostic information about the index.
	Stats() domain.IndexStats
}
