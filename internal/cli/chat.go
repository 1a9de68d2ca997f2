package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"doubtsolver/internal/tui"
)

var (
	chatGrade    int
	chatSubject  string
	chatLanguage string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the doubt solver in the terminal",
	Long: `Open an interactive chat for one grade and subject. Up and down
browse the sources of the latest answer.

Examples:
  doubtsolver chat -g 6
  doubtsolver chat -g 10 -s Science -l Tamil`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().IntVarP(&chatGrade, "grade", "g", 8, "student grade")
	chatCmd.Flags().StringVarP(&chatSubject, "subject", "s", "Math", "subject")
	chatCmd.Flags().StringVarP(&chatLanguage, "language", "l", "English", "answer language")
}

func runChat(cmd *cobra.Command, args []string) error {
	eng, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	overview, err := eng.Overview(cmd.Context(), chatGrade)
	if err != nil {
		logger.Warn("no overview for grade", zap.Int("grade", chatGrade), zap.Error(err))
		overview = "This grade has no indexed textbook yet."
	}

	m := tui.New(eng, tui.Session{
		ConversationID: uuid.NewString(),
		Grade:          chatGrade,
		Subject:        chatSubject,
		Language:       chatLanguage,
	}, overview)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
