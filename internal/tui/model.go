package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"doubtsolver/internal/domain"
)

// ChatPort is the TUI-facing subset of the engine.
type ChatPort interface {
	Chat(ctx context.Context, conversationID string, q domain.QueryContext) domain.Response
}

// Session fixes the routing of every question asked in the TUI.
type Session struct {
	ConversationID string
	Grade          int
	Subject        string
	Language       string
}

type answerMsg struct {
	question string
	resp     domain.Response
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	engine   ChatPort
	session  Session
	input    textinput.Model
	viewport viewport.Model
	overview string
	status   string
	question string
	resp     *domain.Response
	cursor   int
	pending  bool
	ready    bool
}

// New creates a chat model. overview is shown under the header.
func New(engine ChatPort, session Session, overview string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a doubt and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		engine:   engine,
		session:  session,
		input:    ti,
		viewport: vp,
		overview: overview,
		status:   fmt.Sprintf("Grade %d %s. Ask away.", session.Grade, session.Subject),
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) ask(q string) tea.Cmd {
	engine, s := m.engine, m.session
	return func() tea.Msg {
		resp := engine.Chat(context.Background(), s.ConversationID, domain.QueryContext{
			Question: q,
			Grade:    s.Grade,
			Subject:  s.Subject,
			Language: s.Language,
		})
		return answerMsg{question: q, resp: resp}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header and overview, status, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case answerMsg:
		m.pending = false
		m.question = msg.question
		m.resp = &msg.resp
		m.cursor = 0
		switch msg.resp.Outcome {
		case domain.OutcomeNotFound:
			m.status = "Nothing in the textbook matched."
		case domain.OutcomeLowConfidence:
			m.status = fmt.Sprintf("Low confidence answer (%.2f)", msg.resp.Confidence)
		default:
			m.status = fmt.Sprintf("Answered from %d source(s), confidence %.2f", msg.resp.Metadata.NumSources, msg.resp.Confidence)
		}
		if msg.resp.Translation == domain.TranslationDegraded {
			m.status += fmt.Sprintf(" [translation unavailable, shown in %s]", msg.resp.Language)
		}
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.pending {
				m.pending = true
				m.status = "Searching the textbook..."
				m.input.SetValue("")
				return m, m.ask(q)
			}
		case "down":
			if n := m.citationCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "up":
			if n := m.citationCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("NCERT Doubt Solver  Grade %d  %s  %s", m.session.Grade, m.session.Subject, m.session.Language))
	overview := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.overview)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	body := answerBoxStyle.Render(m.viewport.View())
	return header + "\n" + overview + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) citationCount() int {
	if m.resp == nil {
		return 0
	}
	return len(m.resp.Citations)
}

func (m Model) renderAnswer() string {
	if m.resp == nil {
		return "No questions yet."
	}
	var b strings.Builder
	b.WriteString(highlightBestSentence(m.resp.Answer, m.question))
	if n := len(m.resp.Citations); n > 0 {
		c := m.resp.Citations[m.cursor]
		b.WriteString("\n\n")
		b.WriteString(citationStyle.Render(fmt.Sprintf("Source %d/%d  %s, %s, page %s", m.cursor+1, n, c.Source, c.Chapter, c.Page)))
		b.WriteString("\n")
		b.WriteString(c.Text)
	}
	return b.String()
}

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	citationStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`[^.!?।\n]+[.!?।]?`)
)

// highlightBestSentence emphasizes the sentence sharing the most words with
// the question.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	var sentences []string
	for _, s := range sentenceRe.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return text
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore, bestIdx = score, i
		}
	}
	if bestScore > 0 {
		sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := make(map[string]struct{})
	for _, t := range unicodeWordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
