package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"rdb/config"
	"rdb/internal/adapter/embedding"
	"rdb/internal/adapter/index"
	"rdb/internal/adapter/refiner"
	"rdb/internal/domain"
	"rdb/internal/port"
)

type failingRefiner struct{}

func (failingRefiner) Refine(context.Context, string) (string, error) {
	return "", errors.New("model unavailable")
}
func (failingRefiner) Name() string { return "failing" }

type fixedRefiner struct{ out string }

func (r fixedRefiner) Refine(context.Context, string) (string, error) { return r.out, nil }
func (r fixedRefiner) Name() string                                   { return "fixed" }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Index.Dir = t.TempDir()
	cfg.Embedding.Provider = "mock"
	cfg.Embedding.Dimension = 64
	return cfg
}

func testChunks() []domain.Chunk {
	return []domain.Chunk{
		{
			PageTitle:   "Wireless network configuration",
			SectionPath: "Wireless network configuration",
			Content:     "Setting up a wireless network connection with iwctl or NetworkManager.",
			ChunkText:   "Wireless network configuration. Setting up a wireless network connection with iwctl or NetworkManager.",
			ChunkType:   domain.ChunkLarge,
		},
		{
			PageTitle:   "NetworkManager",
			SectionPath: "NetworkManager > Usage",
			Content:     "nmcli device wifi connect manages wireless network profiles.",
			ChunkText:   "NetworkManager Usage. nmcli device wifi connect manages wireless network profiles.",
			ChunkType:   domain.ChunkMedium,
		},
		{
			PageTitle:   "Pacman",
			SectionPath: "Pacman > Usage",
			Content:     "pacman synchronizes package databases and installs packages.",
			ChunkText:   "Pacman Usage. pacman synchronizes package databases and installs packages.",
			ChunkType:   domain.ChunkMedium,
		},
		{
			PageTitle:   "GRUB",
			SectionPath: "GRUB > Installation",
			Content:     "grub-install deploys the bootloader to the EFI partition.",
			ChunkText:   "GRUB Installation. grub-install deploys the bootloader to the EFI partition.",
			ChunkType:   domain.ChunkSmall,
		},
	}
}

// buildEngine embeds chunks through the mock embedder, persists the index
// into the config's temp dir, and returns an engine over it.
func buildEngine(t *testing.T, cfg *config.Config, chunks []domain.Chunk, ref port.Refiner) *Engine {
	t.Helper()

	emb := embedding.NewMock(cfg.Embedding.Dimension)
	idx, err := NewBuilder(cfg, emb).Build(context.Background(), chunks, nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewEngine(cfg, emb, ref, idx)
}

func TestSearch_RanksRelevantChunkFirst(t *testing.T) {
	cfg := testConfig(t)
	e := buildEngine(t, cfg, testChunks(), refiner.NewPassthrough())

	resp, err := e.Search(context.Background(), "wireless network setup", SearchOptions{TopK: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected results")
	}
	if got := resp.Results[0].Chunk.PageTitle; got != "Wireless network configuration" {
		t.Errorf("expected wireless page ranked first, got %q", got)
	}
	if resp.Results[0].OriginalQuery != "wireless network setup" {
		t.Errorf("unexpected original query: %q", resp.Results[0].OriginalQuery)
	}
}

func TestSearch_TopKAndContiguousRanks(t *testing.T) {
	cfg := testConfig(t)
	e := buildEngine(t, cfg, testChunks(), refiner.NewPassthrough())

	resp, err := e.Search(context.Background(), "wireless network setup", SearchOptions{TopK: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) > 2 {
		t.Fatalf("expected at most 2 results, got %d", len(resp.Results))
	}
	for i, r := range resp.Results {
		if r.Rank != i+1 {
			t.Errorf("result %d has rank %d", i, r.Rank)
		}
	}
	for i := 1; i < len(resp.Results); i++ {
		if resp.Results[i].Score > resp.Results[i-1].Score {
			t.Errorf("results not sorted descending at %d", i)
		}
	}
}

func TestSearch_DeduplicatesAliasPages(t *testing.T) {
	cfg := testConfig(t)
	content := "Connect to a wireless access point using iwctl station commands."
	chunks := []domain.Chunk{
		{PageTitle: "Wi-Fi", Content: content, ChunkText: "Wi-Fi. " + content, ChunkType: domain.ChunkMedium},
		{PageTitle: "wifi", Content: content, ChunkText: "wifi. " + content, ChunkType: domain.ChunkMedium},
		{PageTitle: "Pacman", Content: "pacman installs packages", ChunkText: "Pacman. pacman installs packages", ChunkType: domain.ChunkMedium},
	}
	e := buildEngine(t, cfg, chunks, refiner.NewPassthrough())

	resp, err := e.Search(context.Background(), "wireless access point", SearchOptions{TopK: 5})
	if err != nil {
		t.Fatal(err)
	}

	var wifiResults []domain.SearchResult
	for _, r := range resp.Results {
		if r.Chunk.Content == content {
			wifiResults = append(wifiResults, r)
		}
	}
	if len(wifiResults) != 1 {
		t.Fatalf("expected alias pages merged into one result, got %d", len(wifiResults))
	}
	if len(wifiResults[0].Aliases) != 2 {
		t.Errorf("expected both titles as aliases, got %v", wifiResults[0].Aliases)
	}
}

func TestSearch_FailedRefinementFallsBack(t *testing.T) {
	cfg := testConfig(t)
	e := buildEngine(t, cfg, testChunks(), failingRefiner{})

	withRefine, err := e.Search(context.Background(), "wireless network setup", SearchOptions{TopK: 3, Refine: true})
	if err != nil {
		t.Fatal(err)
	}
	withoutRefine, err := e.Search(context.Background(), "wireless network setup", SearchOptions{TopK: 3})
	if err != nil {
		t.Fatal(err)
	}

	if withRefine.Refined {
		t.Error("expected Refined=false after refiner failure")
	}
	if withRefine.FinalQuery != withRefine.OriginalQuery {
		t.Errorf("expected final query to equal original, got %q", withRefine.FinalQuery)
	}
	if !reflect.DeepEqual(withRefine.Results, withoutRefine.Results) {
		t.Error("expected identical results with and without the failing refiner")
	}
}

func TestSearch_RefinedQueryDrivesEmbedding(t *testing.T) {
	cfg := testConfig(t)
	e := buildEngine(t, cfg, testChunks(), fixedRefiner{out: "wireless network configuration iwctl"})

	resp, err := e.Search(context.Background(), "my internet is broken", SearchOptions{TopK: 3, Refine: true})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Refined {
		t.Fatal("expected refinement applied")
	}
	if resp.FinalQuery != "wireless network configuration iwctl" {
		t.Errorf("unexpected final query %q", resp.FinalQuery)
	}
	if resp.Results[0].Chunk.PageTitle != "Wireless network configuration" {
		t.Errorf("expected refined query to surface wireless page, got %q", resp.Results[0].Chunk.PageTitle)
	}
	if resp.Results[0].OriginalQuery != "my internet is broken" {
		t.Errorf("original query not preserved: %q", resp.Results[0].OriginalQuery)
	}
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	cfg := testConfig(t)
	e := buildEngine(t, cfg, testChunks(), refiner.NewPassthrough())

	if _, err := e.Search(context.Background(), "   ", SearchOptions{}); err == nil {
		t.Error("expected error for blank query")
	}
}

func TestSearch_MinScoreThreshold(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrieve.MinScoreThreshold = 100 // nothing can pass
	e := buildEngine(t, cfg, testChunks(), refiner.NewPassthrough())

	resp, err := e.Search(context.Background(), "wireless network setup", SearchOptions{TopK: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected all results filtered, got %d", len(resp.Results))
	}
}

func TestSearch_CacheHitAndSwapInvalidation(t *testing.T) {
	cfg := testConfig(t)
	e := buildEngine(t, cfg, testChunks(), refiner.NewPassthrough())

	first, err := e.Search(context.Background(), "wireless network setup", SearchOptions{TopK: 3})
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Error("first search must not be a cache hit")
	}

	second, err := e.Search(context.Background(), "wireless network setup", SearchOptions{TopK: 3})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Error("expected cache hit on repeat search")
	}
	if !reflect.DeepEqual(first.Results, second.Results) {
		t.Error("cached results differ from original")
	}

	indexPath, metadataPath := cfg.IndexPaths()
	idx, err := index.Load(indexPath, metadataPath)
	if err != nil {
		t.Fatal(err)
	}
	e.Swap(idx)

	third, err := e.Search(context.Background(), "wireless network setup", SearchOptions{TopK: 3})
	if err != nil {
		t.Fatal(err)
	}
	if third.Cached {
		t.Error("expected cache invalidated after index swap")
	}
}

func TestSearch_LazyLoadAndUnavailable(t *testing.T) {
	cfg := testConfig(t)
	emb := embedding.NewMock(cfg.Embedding.Dimension)

	// No artifacts on disk yet.
	e := NewEngine(cfg, emb, refiner.NewPassthrough(), nil)
	_, err := e.Search(context.Background(), "wifi", SearchOptions{})
	if !errors.Is(err, index.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	stats, err := e.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Status != "not_built" {
		t.Errorf("expected not_built status, got %q", stats.Status)
	}

	// Build the artifacts, then the same engine loads them lazily.
	if _, err := NewBuilder(cfg, emb).Build(context.Background(), testChunks(), nil); err != nil {
		t.Fatal(err)
	}
	resp, err := e.Search(context.Background(), "wireless network setup", SearchOptions{TopK: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) == 0 {
		t.Error("expected results after lazy load")
	}
}

func TestBuild_PersistsArtifactsAndReportsProgress(t *testing.T) {
	cfg := testConfig(t)
	cfg.Embedding.BatchSize = 2
	emb := embedding.NewMock(cfg.Embedding.Dimension)

	var calls [][2]int
	idx, err := NewBuilder(cfg, emb).Build(context.Background(), testChunks(),
		func(done, total int) { calls = append(calls, [2]int{done, total}) })
	if err != nil {
		t.Fatal(err)
	}

	if idx.Len() != 4 {
		t.Errorf("expected 4 vectors, got %d", idx.Len())
	}
	want := [][2]int{{2, 4}, {4, 4}}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("progress calls = %v, want %v", calls, want)
	}

	indexPath, metadataPath := cfg.IndexPaths()
	loaded, err := index.Load(indexPath, metadataPath)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 4 || loaded.Dimension() != cfg.Embedding.Dimension {
		t.Errorf("unexpected loaded index: len=%d dim=%d", loaded.Len(), loaded.Dimension())
	}

	stats := loaded.Stats()
	if stats.Status != "loaded" || stats.ChunkTypes["medium"] != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestBuild_EmptyCorpus(t *testing.T) {
	cfg := testConfig(t)
	emb := embedding.NewMock(cfg.Embedding.Dimension)

	if _, err := NewBuilder(cfg, emb).Build(context.Background(), nil, nil); err == nil {
		t.Error("expected error for empty corpus")
	}

	indexPath, _ := cfg.IndexPaths()
	if _, err := index.Load(indexPath, filepath.Join(cfg.Index.Dir, "missing.json")); !errors.Is(err, index.ErrUnavailable) {
		t.Errorf("expected no artifacts written, got %v", err)
	}
}
