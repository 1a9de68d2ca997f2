package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var gradesCmd = &cobra.Command{
	Use:   "grades",
	Short: "List indexed grades with chunk counts and overviews",
	Args:  cobra.NoArgs,
	RunE:  runGrades,
}

func init() {
	rootCmd.AddCommand(gradesCmd)
}

func runGrades(cmd *cobra.Command, args []string) error {
	eng, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	grades := eng.Grades(cmd.Context())
	out := cmd.OutOrStdout()
	if len(grades) == 0 {
		fmt.Fprintf(out, "No chunk files found under %s\n", cfg.Engine.CorpusPath)
		return nil
	}
	fmt.Fprintf(out, "%-6s %s\n", "GRADE", "CHUNKS")
	for _, g := range grades {
		fmt.Fprintf(out, "%-6d %d\n", g.Grade, g.Chunks)
		overview, err := eng.Overview(cmd.Context(), g.Grade)
		if err != nil {
			logger.Warn("overview failed", zap.Int("grade", g.Grade), zap.Error(err))
			continue
		}
		if overview != "" {
			fmt.Fprintf(out, "       %s\n", strings.ReplaceAll(overview, "\n", " "))
		}
	}
	return nil
}
