package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"rdb/internal/adapter/corpus"
	"rdb/internal/adapter/embedding"
	"rdb/internal/usecase"
)

var buildCorpusDir string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed the chunk corpus and build the vector index",
	Long: `Load pre-chunked documentation, embed every chunk, and write the index
artifacts (vector file plus chunk metadata). An existing index is replaced
atomically.

Examples:
  rdb build
  rdb build --corpus data/chunks`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVar(&buildCorpusDir, "corpus", "", "chunk directory (default from config)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	corpusCfg := cfg.Corpus
	if buildCorpusDir != "" {
		corpusCfg.Dir = buildCorpusDir
	}

	chunks, err := corpus.Load(corpusCfg)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}

	fmt.Printf("Embedding %d chunks with %s...\n", len(chunks), embedder.ModelName())
	bar := progressbar.NewOptions(len(chunks),
		progressbar.OptionSetDescription("embedding"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	idx, err := usecase.NewBuilder(cfg, embedder).Build(cmd.Context(), chunks,
		func(done, total int) { bar.Set(done) })
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	stats := idx.Stats()
	indexPath, metadataPath := cfg.IndexPaths()

	color.Green("Index built: %d vectors, dimension %d", stats.TotalVectors, stats.Dimension)
	for _, ct := range []string{"small", "medium", "large"} {
		if n := stats.ChunkTypes[ct]; n > 0 {
			fmt.Printf("  %s chunks: %d\n", ct, n)
		}
	}
	fmt.Printf("  index:    %s\n", indexPath)
	fmt.Printf("  metadata: %s\n", metadataPath)
	return nil
}
