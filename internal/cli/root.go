package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rdb/config"
	"rdb/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "rdb",
	Short: "Documentation retrieval - semantic search over pre-chunked docs",
	Long: `rdb indexes pre-chunked documentation with embedding vectors and answers
natural-language queries with ranked, deduplicated passages.

Example usage:
  rdb build                          # Embed the chunk corpus and build the index
  rdb search -q "wifi not working"   # Search the index
  rdb search -i                      # Interactive search session
  rdb stats                          # Show index statistics`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if verbose {
			logger.SetLevel(logger.LevelDebug)
		} else {
			logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./rdb.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func GetConfig() *config.Config {
	return cfg
}
