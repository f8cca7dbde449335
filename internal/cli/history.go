package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rdb/internal/adapter/store"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent searches",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of entries")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	if _, err := os.Stat(cfg.HistoryDBPath()); err != nil {
		fmt.Println("No search history yet.")
		return nil
	}

	h, err := store.OpenHistory(cfg.HistoryDBPath())
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer h.Close()

	records, err := h.Recent(historyLimit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	if historyJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if len(records) == 0 {
		fmt.Println("No search history yet.")
		return nil
	}

	for _, r := range records {
		line := fmt.Sprintf("%s  %q", r.Timestamp.Local().Format("2006-01-02 15:04"), r.OriginalQuery)
		if r.Refined {
			line += fmt.Sprintf(" -> %q", r.FinalQuery)
		}
		line += fmt.Sprintf("  (%d results, %dms)", r.ResultCount, r.DurationMs)
		fmt.Println(line)
	}
	return nil
}
