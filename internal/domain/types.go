package domain

import "time"

// ChunkMetadata is the structured provenance written by the ingestion step.
type ChunkMetadata struct {
	Grade      string `json:"grade,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Chapter    string `json:"chapter,omitempty"`
	PageNo     int    `json:"page_no,omitempty"`
	SourceFile string `json:"source_file,omitempty"`
	Language   string `json:"language,omitempty"`
}

// Chunk is an immutable unit of retrievable textbook text.
type Chunk struct {
	ID       string
	Text     string
	Metadata *ChunkMetadata
}

// ScoredChunk is one entry of a retrieval result. Row is the chunk's
// position in its grade index and breaks score ties.
type ScoredChunk struct {
	Chunk Chunk
	Row   int
	Score float64
}

// Citation is a read-only projection of a selected chunk.
type Citation struct {
	Source  string `json:"source"`
	Page    string `json:"page"`
	Chapter string `json:"chapter"`
	Text    string `json:"text"`
}

// Roles used in conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role      string     `json:"role"`
	Message   string     `json:"message"`
	Citations []Citation `json:"citations,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// QueryContext is the input of a single retrieval.
type QueryContext struct {
	Question string
	Grade    int
	Subject  string
	Language string
	// History holds the earlier turns of the conversation. It is carried
	// for callers and logging; retrieval scores the question alone.
	History []Turn
}

// Outcome tells callers which path produced a response.
type Outcome string

const (
	OutcomeAnswered      Outcome = "answered"
	OutcomeLowConfidence Outcome = "low_confidence"
	OutcomeNotFound      Outcome = "not_found"
)

// TranslationOutcome records what translation did on the way to a response.
type TranslationOutcome string

const (
	// TranslationSkipped means no translation was needed.
	TranslationSkipped TranslationOutcome = "skipped"
	// TranslationTranslated means a translator produced the text.
	TranslationTranslated TranslationOutcome = "translated"
	// TranslationDegraded means translation was needed but failed and the
	// text was passed through unchanged.
	TranslationDegraded TranslationOutcome = "degraded"
)

// ResponseMetadata echoes the routing of a query.
type ResponseMetadata struct {
	Grade      int    `json:"grade"`
	Subject    string `json:"subject"`
	NumSources int    `json:"num_sources"`
}

// Response is the engine's answer to a QueryContext. Language names the
// language Answer is actually written in, which differs from the requested
// one when translation was skipped or degraded.
type Response struct {
	Answer      string             `json:"answer"`
	Citations   []Citation         `json:"citations"`
	Confidence  float64            `json:"confidence"`
	Language    string             `json:"language"`
	Outcome     Outcome            `json:"outcome"`
	Translation TranslationOutcome `json:"translation"`
	Metadata    ResponseMetadata   `json:"metadata"`
}
