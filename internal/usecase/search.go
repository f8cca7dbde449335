// Package usecase wires the retrieval pipeline: refine, embed, vector
// search, boost, deduplicate, truncate.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"rdb/config"
	"rdb/internal/adapter/cache"
	"rdb/internal/adapter/dedup"
	"rdb/internal/adapter/index"
	"rdb/internal/adapter/scoring"
	"rdb/internal/domain"
	"rdb/internal/logger"
	"rdb/internal/port"
)

// SearchOptions controls one search invocation. Zero values fall back to
// the configured defaults.
type SearchOptions struct {
	TopK   int
	Refine bool
}

// SearchResponse is the outcome of one search. FinalQuery equals
// OriginalQuery whenever refinement was off, failed, or returned the
// query unchanged.
type SearchResponse struct {
	Results       []domain.SearchResult
	OriginalQuery string
	FinalQuery    string
	Refined       bool
	Cached        bool
	Duration      time.Duration
}

// Engine executes searches against a loaded vector index. The index
// reference is swapped atomically after rebuilds; searches in flight keep
// the index they started with.
type Engine struct {
	cfg      *config.Config
	embedder port.Embedder
	refiner  port.Refiner
	policy   *scoring.Policy
	cache    *cache.QueryCache

	mu  sync.RWMutex
	idx port.VectorIndex
}

// NewEngine builds an engine. idx may be nil, in which case the index is
// loaded lazily from the configured artifact paths on first use.
func NewEngine(cfg *config.Config, embedder port.Embedder, refiner port.Refiner, idx port.VectorIndex) *Engine {
	var qc *cache.QueryCache
	if cfg.Retrieve.CacheSize > 0 {
		qc = cache.NewQueryCache(cfg.Retrieve.CacheSize,
			time.Duration(cfg.Retrieve.CacheTTLSeconds)*time.Second)
	}
	return &Engine{
		cfg:      cfg,
		embedder: embedder,
		refiner:  refiner,
		policy:   scoring.New(cfg.Scoring),
		cache:    qc,
		idx:      idx,
	}
}

// Search runs the full retrieval pipeline for one query.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResponse, error) {
	started := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = e.cfg.Retrieve.TopK
	}

	if e.cache != nil {
		if results, hit := e.cache.Get(query, topK, opts.Refine); hit {
			logger.Debugf("cache hit for %q (top_k=%d refine=%v)", query, topK, opts.Refine)
			resp := responseFrom(query, results)
			resp.Cached = true
			resp.Duration = time.Since(started)
			return resp, nil
		}
	}

	idx, err := e.currentIndex()
	if err != nil {
		return nil, err
	}

	finalQuery, refined := e.refineQuery(ctx, query, opts.Refine)

	queryVec, err := e.embedQuery(finalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	fetch := topK
	if e.cfg.Retrieve.Deduplicate {
		overfetch := e.cfg.Retrieve.OverfetchFactor
		if overfetch <= 0 {
			overfetch = 3
		}
		fetch = topK * overfetch
	}

	baseScores, ids, err := idx.Search(queryVec, fetch)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	candidates := make([]domain.SearchResult, 0, len(ids))
	for i, id := range ids {
		chunk, ok := idx.Chunk(id)
		if !ok {
			logger.Warnf("search returned out-of-range id %d, skipping", id)
			continue
		}
		candidates = append(candidates, domain.SearchResult{
			Score:         baseScores[i],
			Chunk:         chunk,
			OriginalQuery: query,
			FinalQuery:    finalQuery,
		})
	}

	results := e.policy.Rescore(query, finalQuery, candidates)

	if e.cfg.Retrieve.Deduplicate {
		results = dedup.Apply(results)
	}

	if threshold := e.cfg.Retrieve.MinScoreThreshold; threshold > 0 {
		filtered := results[:0]
		for _, r := range results {
			if r.Score >= threshold {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	if len(results) > topK {
		results = results[:topK]
	}
	for i := range results {
		results[i].Rank = i + 1
	}

	if e.cache != nil {
		e.cache.Put(query, topK, opts.Refine, results)
	}

	return &SearchResponse{
		Results:       results,
		OriginalQuery: query,
		FinalQuery:    finalQuery,
		Refined:       refined,
		Duration:      time.Since(started),
	}, nil
}

// Stats reports on the current index. Missing artifacts are a normal state
// here, reported as "not_built" rather than an error.
func (e *Engine) Stats() (domain.IndexStats, error) {
	idx, err := e.currentIndex()
	if errors.Is(err, index.ErrUnavailable) {
		return domain.IndexStats{Status: "not_built"}, nil
	}
	if err != nil {
		return domain.IndexStats{}, err
	}
	return idx.Stats(), nil
}

// Swap replaces the active index and invalidates cached results.
func (e *Engine) Swap(idx port.VectorIndex) {
	e.mu.Lock()
	e.idx = idx
	e.mu.Unlock()

	if e.cache != nil {
		e.cache.Invalidate()
	}
}

// refineQuery rewrites the query through the refiner when requested.
// Refinement failures never fail the search; the original query is used.
func (e *Engine) refineQuery(ctx context.Context, query string, refine bool) (string, bool) {
	if !refine || e.refiner == nil {
		return query, false
	}

	timeout := time.Duration(e.cfg.Refiner.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	refineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	refined, err := e.refiner.Refine(refineCtx, query)
	if err != nil {
		logger.Warnf("query refinement failed, using original query: %v", err)
		return query, false
	}
	refined = strings.TrimSpace(refined)
	if refined == "" || refined == query {
		return query, false
	}

	logger.Debugf("refined %q -> %q", query, refined)
	return refined, true
}

func (e *Engine) embedQuery(query string) ([]float32, error) {
	vecs, err := e.embedder.Embed([]string{e.cfg.Embedding.QueryPrefix + query})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one input", len(vecs))
	}
	return index.Normalize(vecs[0]), nil
}

// currentIndex returns the active index, loading it from disk on first use.
func (e *Engine) currentIndex() (port.VectorIndex, error) {
	e.mu.RLock()
	idx := e.idx
	e.mu.RUnlock()
	if idx != nil {
		return idx, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.idx != nil {
		return e.idx, nil
	}

	indexPath, metadataPath := e.cfg.IndexPaths()
	loaded, err := index.Load(indexPath, metadataPath)
	if err != nil {
		return nil, err
	}
	logger.Infof("loaded index: %d vectors, dimension %d", loaded.Len(), loaded.Dimension())
	e.idx = loaded
	return e.idx, nil
}

func responseFrom(query string, results []domain.SearchResult) *SearchResponse {
	resp := &SearchResponse{
		Results:       results,
		OriginalQuery: query,
		FinalQuery:    query,
	}
	if len(results) > 0 {
		resp.FinalQuery = results[0].FinalQuery
		resp.Refined = resp.FinalQuery != resp.OriginalQuery
	}
	return resp
}
