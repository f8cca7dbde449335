package usecase

import (
	"context"
	"fmt"

	"rdb/config"
	"rdb/internal/adapter/index"
	"rdb/internal/domain"
	"rdb/internal/logger"
	"rdb/internal/port"
)

// Builder embeds a chunk corpus and persists the resulting index artifacts.
type Builder struct {
	cfg      *config.Config
	embedder port.Embedder
}

func NewBuilder(cfg *config.Config, embedder port.Embedder) *Builder {
	return &Builder{cfg: cfg, embedder: embedder}
}

// Build embeds every chunk's ChunkText, unit-normalizes the vectors, writes
// the index artifacts to the configured paths, and returns the built index.
// progress, if non-nil, is called after each embedded batch.
func (b *Builder) Build(ctx context.Context, chunks []domain.Chunk, progress func(done, total int)) (*index.Flat, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks to index")
	}

	batchSize := b.cfg.Embedding.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	logger.Infof("embedding %d chunks with %s (batch size %d)",
		len(chunks), b.embedder.ModelName(), batchSize)

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, b.cfg.Embedding.PassagePrefix+c.ChunkText)
		}

		batch, err := b.embedder.Embed(texts)
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(batch), len(texts))
		}

		for _, v := range batch {
			vectors = append(vectors, index.Normalize(v))
		}
		if progress != nil {
			progress(end, len(chunks))
		}
	}

	idx, err := index.NewFlat(vectors, chunks)
	if err != nil {
		return nil, err
	}

	indexPath, metadataPath := b.cfg.IndexPaths()
	if err := index.Save(vectors, chunks, indexPath, metadataPath); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}

	logger.Infof("index built: %d vectors, dimension %d", idx.Len(), idx.Dimension())
	return idx, nil
}
