package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"doubtsolver/internal/feedback"
	"doubtsolver/internal/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve the chat, conversation, feedback and catalog endpoints.

Examples:
  doubtsolver serve
  doubtsolver serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	eng, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grades, err := eng.Warm(ctx)
	if err != nil {
		logger.Warn("serving without corpus", zap.Error(err))
	} else {
		logger.Info("corpus indexed", zap.Int("grades", grades))
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	e := httpapi.New(httpapi.NewHandlers(eng, feedback.NewLog()), logger)
	return httpapi.Run(ctx, e, addr, logger)
}
