package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rdb/config"
	"rdb/internal/adapter/embedding"
	"rdb/internal/adapter/index"
	"rdb/internal/adapter/llm"
	"rdb/internal/adapter/refiner"
	"rdb/internal/adapter/store"
	"rdb/internal/domain"
	"rdb/internal/logger"
	"rdb/internal/port"
	"rdb/internal/usecase"
)

var (
	searchQuery      string
	searchTopK       int
	searchRefine     bool
	searchNoRefine   bool
	searchShowRefine bool
	searchInteract   bool
	searchJSON       bool
	searchMaxContent int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the documentation index",
	Long: `Search the index with a natural-language query. Results are ranked by
cosine similarity with relevance boosting and alias-aware deduplication.

Examples:
  rdb search -q "wifi not working"
  rdb search -q "how to setup sound" --refine --show-refinement
  rdb search -q "grub" --top-k 10 --json
  rdb search -i`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "search query")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchRefine, "refine", false, "refine the query with the configured model")
	searchCmd.Flags().BoolVar(&searchNoRefine, "no-refine", false, "disable query refinement")
	searchCmd.Flags().BoolVar(&searchShowRefine, "show-refinement", false, "print the refined query")
	searchCmd.Flags().BoolVarP(&searchInteract, "interactive", "i", false, "interactive search session")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.Flags().IntVar(&searchMaxContent, "max-content", 500, "max content characters per result (0 = unlimited)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	refine := cfg.Refiner.Enabled
	if searchRefine {
		refine = true
	}
	if searchNoRefine {
		refine = false
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	if searchInteract {
		return runInteractive(cmd, engine, cfg, refine)
	}

	if strings.TrimSpace(searchQuery) == "" {
		return fmt.Errorf("a query is required (use -q or -i)")
	}

	resp, err := engine.Search(cmd.Context(), searchQuery, usecase.SearchOptions{
		TopK:   searchTopK,
		Refine: refine,
	})
	if err != nil {
		return searchError(err)
	}

	recordSearch(cfg, resp)

	if searchJSON {
		return printJSON(resp)
	}
	renderResponse(resp)
	return nil
}

// newEngine assembles the search pipeline from config. The refiner is
// constructed whenever a model is configured, not just when refinement is
// on at launch, so it can be toggled per search and in interactive mode.
// The index itself is loaded lazily on the first query.
func newEngine(cfg *config.Config) (*usecase.Engine, error) {
	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return usecase.NewEngine(cfg, embedder, newRefiner(cfg.Refiner), nil), nil
}

// newRefiner returns the LLM refiner when a model is configured and the
// client can be built, otherwise the passthrough. A broken refiner setup
// degrades to unrefined search with a warning instead of failing startup.
func newRefiner(rcfg config.RefinerConfig) port.Refiner {
	if rcfg.Model == "" {
		return refiner.NewPassthrough()
	}
	client, err := llm.New(rcfg)
	if err != nil {
		logger.Warnf("query refinement unavailable, searches will use the original query: %v", err)
		return refiner.NewPassthrough()
	}
	return refiner.NewLLMRefiner(client)
}

func searchError(err error) error {
	if errors.Is(err, index.ErrUnavailable) {
		return fmt.Errorf("no index found. Run 'rdb build' first")
	}
	return err
}

// recordSearch appends to search history. History failures never fail a
// search.
func recordSearch(cfg *config.Config, resp *usecase.SearchResponse) {
	if resp.Cached {
		return
	}
	h, err := store.OpenHistory(cfg.HistoryDBPath())
	if err != nil {
		logger.Warnf("search history unavailable: %v", err)
		return
	}
	defer h.Close()

	_, err = h.Record(domain.SearchRecord{
		OriginalQuery: resp.OriginalQuery,
		FinalQuery:    resp.FinalQuery,
		Refined:       resp.Refined,
		ResultCount:   len(resp.Results),
		DurationMs:    resp.Duration.Milliseconds(),
	})
	if err != nil {
		logger.Warnf("failed to record search: %v", err)
	}
}

func printJSON(resp *usecase.SearchResponse) error {
	out := struct {
		OriginalQuery string                `json:"original_query"`
		FinalQuery    string                `json:"final_query"`
		Refined       bool                  `json:"refined"`
		Results       []domain.SearchResult `json:"results"`
	}{resp.OriginalQuery, resp.FinalQuery, resp.Refined, resp.Results}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func renderResponse(resp *usecase.SearchResponse) {
	if searchShowRefine && resp.Refined {
		color.Cyan("Refined query: %s", resp.FinalQuery)
		fmt.Println()
	}

	if len(resp.Results) == 0 {
		fmt.Println("No results found.")
		return
	}

	fmt.Printf("Found %d results for: %s", len(resp.Results), resp.OriginalQuery)
	if resp.Cached {
		fmt.Print(" (cached)")
	}
	fmt.Println()
	fmt.Println()

	titleColor := color.New(color.FgGreen, color.Bold)
	for _, r := range resp.Results {
		titleColor.Printf("[%d] %s", r.Rank, r.Chunk.PageTitle)
		fmt.Printf("  (score: %.3f)\n", r.Score)

		if len(r.Aliases) > 1 {
			color.Yellow("    also known as: %s", strings.Join(r.Aliases[1:], ", "))
		}
		if r.Chunk.SectionPath != "" && r.Chunk.SectionPath != r.Chunk.PageTitle {
			fmt.Printf("    %s\n", r.Chunk.SectionPath)
		}
		if r.Chunk.URL != "" {
			color.Blue("    %s", r.Chunk.URL)
		}

		content := truncate(strings.TrimSpace(r.Chunk.Content), searchMaxContent)
		fmt.Println()
		fmt.Println(indent(content, "    "))
		fmt.Println()
	}
}

// truncate caps s at max bytes without splitting a multi-byte rune.
// max <= 0 means unlimited.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func runInteractive(cmd *cobra.Command, engine *usecase.Engine, cfg *config.Config, refine bool) error {
	topK := searchTopK
	if topK <= 0 {
		topK = cfg.Retrieve.TopK
	}

	color.Cyan("rdb interactive search. Type 'help' for commands, 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "exit" || line == "quit":
			return nil

		case line == "help":
			fmt.Println(`Commands:
  help          show this help
  stats         show index statistics
  refine on     enable query refinement
  refine off    disable query refinement
  topk <n>      set result count
  exit          quit

Anything else is treated as a search query.`)

		case line == "stats":
			stats, err := engine.Stats()
			if err != nil {
				color.Red("stats: %v", err)
				continue
			}
			renderStats(stats)

		case line == "refine on":
			refine = true
			fmt.Println("refinement enabled")

		case line == "refine off":
			refine = false
			fmt.Println("refinement disabled")

		case strings.HasPrefix(line, "topk "):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "topk ")))
			if err != nil || n <= 0 {
				color.Red("topk needs a positive number")
				continue
			}
			topK = n
			fmt.Printf("top-k set to %d\n", topK)

		default:
			resp, err := engine.Search(cmd.Context(), line, usecase.SearchOptions{
				TopK:   topK,
				Refine: refine,
			})
			if err != nil {
				color.Red("%v", searchError(err))
				continue
			}
			recordSearch(cfg, resp)
			renderResponse(resp)
		}
	}
}
