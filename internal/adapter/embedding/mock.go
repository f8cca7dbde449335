package embedding

import (
	"hash/fnv"
	"math"
	"strings"
)

// Mock is a deterministic bag-of-words embedder for tests and offline use.
// Each lowercased word hashes into a dimension bucket, so texts sharing
// vocabulary get higher cosine similarity, which is enough to exercise the
// ranking pipeline without a model.
type Mock struct {
	dimension int
}

// NewMock creates a mock embedder with the given dimension.
func NewMock(dimension int) *Mock {
	if dimension <= 0 {
		dimension = 64
	}
	return &Mock{dimension: dimension}
}

// Embed generates one unit-normalized vector per input text.
func (m *Mock) Embed(texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, m.dimension)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			word = strings.Trim(word, ".,:;!?'\"()")
			if word == "" {
				continue
			}
			h := fnv.New32a()
			h.Write([]byte(word))
			v[int(h.Sum32())%m.dimension]++
		}
		embeddings[i] = normalize(v)
	}
	return embeddings, nil
}

func normalize(v []float32) []float32 {
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

// Dimension returns the embedding vector dimension.
func (m *Mock) Dimension() int {
	return m.dimension
}

// ModelName returns the name of the embedding model.
func (m *Mock) ModelName() string {
	return "mock"
}
