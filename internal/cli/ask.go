package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"doubtsolver/internal/domain"
	"doubtsolver/internal/service"
)

var (
	askQuestion  string
	askImageText string
	askGrade     int
	askSubject   string
	askLanguage  string
	askJSON      bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer one question",
	Long: `Answer a single question from the grade's textbook corpus.

Examples:
  doubtsolver ask -g 6 -q "What is a fraction?"
  doubtsolver ask -g 8 -s Science -l Hindi -q "What is photosynthesis?" --json`,
	Args: cobra.NoArgs,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to answer (required)")
	askCmd.Flags().StringVar(&askImageText, "image-text", "", "text extracted from an image of the problem")
	askCmd.Flags().IntVarP(&askGrade, "grade", "g", 8, "student grade")
	askCmd.Flags().StringVarP(&askSubject, "subject", "s", "Math", "subject")
	askCmd.Flags().StringVarP(&askLanguage, "language", "l", "English", "answer language")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, args []string) error {
	eng, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	resp := eng.Query(cmd.Context(), domain.QueryContext{
		Question: service.MergeImageText(askQuestion, askImageText),
		Grade:    askGrade,
		Subject:  askSubject,
		Language: askLanguage,
	})

	out := cmd.OutOrStdout()
	if askJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintln(out, resp.Answer)
	if len(resp.Citations) == 0 {
		return nil
	}
	fmt.Fprintf(out, "\nSources (confidence %.2f):\n", resp.Confidence)
	for i, c := range resp.Citations {
		fmt.Fprintf(out, "  %d. %s, %s, page %s\n", i+1, c.Source, c.Chapter, c.Page)
		fmt.Fprintf(out, "     %s\n", strings.ReplaceAll(c.Text, "\n", " "))
	}
	return nil
}
