package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"doubtsolver/internal/conversation"
	"doubtsolver/internal/domain"
	"doubtsolver/internal/feedback"
	"doubtsolver/internal/service"
	"doubtsolver/internal/translate"
)

// Defaults applied to chat requests that omit a field.
const (
	DefaultGrade    = 8
	DefaultSubject  = "Math"
	DefaultLanguage = "English"
)

// Subjects offered to students.
var Subjects = []string{"Math", "Science", "Social Science", "English", "Hindi"}

// Engine is what the handlers need from the doubt-solving engine.
type Engine interface {
	Chat(ctx context.Context, conversationID string, q domain.QueryContext) domain.Response
	Conversation(id string) ([]domain.Turn, error)
	Grades(ctx context.Context) []service.GradeInfo
}

type Handlers struct {
	engine   Engine
	feedback *feedback.Log
}

func NewHandlers(engine Engine, log *feedback.Log) *Handlers {
	if log == nil {
		log = feedback.NewLog()
	}
	return &Handlers{engine: engine, feedback: log}
}

// gradeValue accepts a grade as a JSON number or a string of digits.
type gradeValue int

func (g *gradeValue) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("grade must be an integer, got %s", data)
	}
	*g = gradeValue(n)
	return nil
}

type chatReq struct {
	Message        string      `json:"message"`
	ImageText      string      `json:"image_text"`
	Grade          *gradeValue `json:"grade"`
	Subject        *string     `json:"subject"`
	Language       *string     `json:"language"`
	ConversationID string      `json:"conversation_id"`
}

type chatResp struct {
	ConversationID string                    `json:"conversation_id"`
	Answer         string                    `json:"answer"`
	Citations      []domain.Citation         `json:"citations"`
	Confidence     float64                   `json:"confidence"`
	Language       string                    `json:"language"`
	Outcome        domain.Outcome            `json:"outcome"`
	Translation    domain.TranslationOutcome `json:"translation"`
	Metadata       domain.ResponseMetadata   `json:"metadata"`
	Timestamp      time.Time                 `json:"timestamp"`
}

func (h *Handlers) Chat(c echo.Context) error {
	var req chatReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "invalid json: " + err.Error()})
	}
	q := domain.QueryContext{
		Question: service.MergeImageText(req.Message, req.ImageText),
		Grade:    DefaultGrade,
		Subject:  DefaultSubject,
		Language: DefaultLanguage,
	}
	if req.Grade != nil {
		q.Grade = int(*req.Grade)
	}
	if req.Subject != nil {
		q.Subject = *req.Subject
	}
	if req.Language != nil {
		q.Language = *req.Language
	}
	id := strings.TrimSpace(req.ConversationID)
	if id == "" {
		id = uuid.NewString()
	}
	resp := h.engine.Chat(c.Request().Context(), id, q)
	return c.JSON(http.StatusOK, chatResp{
		ConversationID: id,
		Answer:         resp.Answer,
		Citations:      resp.Citations,
		Confidence:     resp.Confidence,
		Language:       resp.Language,
		Outcome:        resp.Outcome,
		Translation:    resp.Translation,
		Metadata:       resp.Metadata,
		Timestamp:      time.Now().UTC(),
	})
}

func (h *Handlers) Conversation(c echo.Context) error {
	id := c.Param("id")
	turns, err := h.engine.Conversation(id)
	if errors.Is(err, conversation.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "Conversation not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"conversation_id": id, "messages": turns})
}

func (h *Handlers) Feedback(c echo.Context) error {
	var req feedback.Entry
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "invalid json: " + err.Error()})
	}
	if _, err := h.feedback.Record(req); err != nil {
		if errors.Is(err, feedback.ErrInvalid) {
			return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Feedback submitted successfully"})
}

func (h *Handlers) Languages(c echo.Context) error {
	langs := translate.Languages()
	names := make([]string, len(langs))
	for i, l := range langs {
		names[i] = l.Name
	}
	return c.JSON(http.StatusOK, map[string]any{"languages": names})
}

func (h *Handlers) Subjects(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"subjects": Subjects})
}

func (h *Handlers) Grades(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"grades": h.engine.Grades(c.Request().Context())})
}

func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
}
