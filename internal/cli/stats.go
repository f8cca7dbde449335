package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rdb/internal/adapter/embedding"
	"rdb/internal/adapter/refiner"
	"rdb/internal/adapter/store"
	"rdb/internal/domain"
	"rdb/internal/usecase"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}

	engine := usecase.NewEngine(cfg, embedder, refiner.NewPassthrough(), nil)
	stats, err := engine.Stats()
	if err != nil {
		return err
	}

	if statsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	renderStats(stats)

	// History is optional context here, skipped if the db cannot be opened.
	if _, err := os.Stat(cfg.HistoryDBPath()); err == nil {
		if h, err := store.OpenHistory(cfg.HistoryDBPath()); err == nil {
			defer h.Close()
			if n, err := h.Count(); err == nil {
				fmt.Printf("  recorded searches: %d\n", n)
			}
		}
	}
	return nil
}

func renderStats(stats domain.IndexStats) {
	if stats.Status != "loaded" {
		color.Yellow("Index status: %s", stats.Status)
		fmt.Println("Run 'rdb build' to build the index.")
		return
	}

	color.Green("Index status: %s", stats.Status)
	fmt.Printf("  vectors:   %d\n", stats.TotalVectors)
	fmt.Printf("  chunks:    %d\n", stats.TotalChunks)
	fmt.Printf("  dimension: %d\n", stats.Dimension)
	for _, ct := range []string{"small", "medium", "large"} {
		if n := stats.ChunkTypes[ct]; n > 0 {
			fmt.Printf("  %s chunks: %d\n", ct, n)
		}
	}
}
