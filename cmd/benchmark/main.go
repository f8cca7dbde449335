// Benchmark probes retrieval quality against a built index: it runs one
// query end to end and rates the similarity of each hit, which is useful
// when judging whether an embedding model or corpus change helped.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"rdb/config"
	"rdb/internal/adapter/embedding"
	"rdb/internal/adapter/refiner"
	"rdb/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "project directory holding the config and index")
	query := flag.String("q", "", "query to test")
	topK := flag.Int("k", 10, "number of results")
	noDedup := flag.Bool("no-dedup", false, "disable deduplication")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir . -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Embedding infrastructure (model connection, index artifacts)")
		fmt.Println("  2. Semantic similarity (query vs results)")
		fmt.Println("  3. Ranking quality (boosted order, duplicate folding)")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *noDedup {
		cfg.Retrieve.Deduplicate = false
	}
	cfg.Retrieve.CacheSize = 0

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}

	engine := usecase.NewEngine(cfg, embedder, refiner.NewPassthrough(), nil)

	stats, err := engine.Stats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading index: %v\n", err)
		os.Exit(1)
	}
	if stats.Status != "loaded" {
		fmt.Fprintln(os.Stderr, "No index found. Run 'rdb build' first.")
		os.Exit(1)
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Vectors indexed: %d\n", stats.TotalVectors)
	fmt.Printf("Model: %s (%s)\n", cfg.Embedding.Model, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", stats.Dimension)
	fmt.Println()

	fmt.Printf("Query: %q\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	started := time.Now()
	resp, err := engine.Search(context.Background(), *query, usecase.SearchOptions{TopK: *topK})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(started)

	if len(resp.Results) == 0 {
		fmt.Println("No results.")
		os.Exit(1)
	}

	fmt.Printf("Top %d matches in %s:\n\n", len(resp.Results), elapsed.Round(time.Millisecond))

	totalScore := 0.0
	for _, r := range resp.Results {
		preview := strings.ReplaceAll(r.Chunk.Content, "\n", " ")
		if len(preview) > 150 {
			cut := 150
			for cut > 0 && !utf8.RuneStart(preview[cut]) {
				cut--
			}
			preview = preview[:cut] + "..."
		}

		totalScore += r.Score

		rating := "LOW"
		if r.Score > 0.7 {
			rating = "HIGH"
		} else if r.Score > 0.5 {
			rating = "GOOD"
		} else if r.Score > 0.3 {
			rating = "OK"
		}

		location := r.Chunk.PageTitle
		if r.Chunk.SectionPath != "" && r.Chunk.SectionPath != r.Chunk.PageTitle {
			location += " > " + r.Chunk.SectionPath
		}

		fmt.Printf("%d. [%s %.3f] %s\n", r.Rank, rating, r.Score, location)
		fmt.Printf("   %s\n\n", preview)
	}

	avgScore := totalScore / float64(len(resp.Results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("QUALITY METRICS:")
	fmt.Printf("  Average score: %.3f\n", avgScore)
	fmt.Printf("  Top-1 score:   %.3f\n", resp.Results[0].Score)

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - retrieval working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - may need a better embedding model or re-indexing")
	}
}
