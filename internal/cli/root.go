package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"doubtsolver/internal/config"
	"doubtsolver/internal/logging"
)

var (
	cfgFile string
	cfg     *config.AppConfig
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "doubtsolver",
	Short: "NCERT doubt solver - grade-scoped answers from textbook chunks",
	Long: `doubtsolver answers student questions from pre-chunked NCERT textbooks.
Every question is routed to its grade's corpus, scored, and answered with
citations to the textbook pages it came from.

Example usage:
  doubtsolver serve                            # Start the HTTP API
  doubtsolver ask -g 6 -q "What is a fraction?"
  doubtsolver chat -g 8 -s Science             # Interactive terminal chat
  doubtsolver index                            # Precompute embedding vectors`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, _, err = config.LoadDefault()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ~/.config/doubtsolver/config.yaml)")
}
