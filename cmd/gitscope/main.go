// Command gitscope watches a set of git repositories and reports their
// status as it changes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	flagConfig string
	flagDebug  bool
)

var rootCmd = &cobra.Command{
	Use:   "gitscope <repo-path>...",
	Short: "Live status for a workspace of git repositories",
	Long: `gitscope registers one or more git repositories, watches their working
trees for changes, and streams status updates (branch, dirty state,
ahead/behind counts) as they happen. Repositories whose filesystem watch
cannot be established fall back to periodic polling.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (.yaml or .toml)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.AddCommand(statusCmd)
}

// buildLogger constructs the process logger from the configured level.
func buildLogger(level string) (*zap.Logger, error) {
	if flagDebug {
		level = "debug"
	}

	parsed, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = parsed
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
