package qdrant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"doubtsolver/internal/domain"
)

// Distance names accepted by Qdrant collections.
const (
	DistanceCosine = "Cosine"
	DistanceEuclid = "Euclid"
)

const upsertBatch = 256

// Storage is a minimal REST client to one Qdrant collection. Each grade
// gets its own collection so a search never crosses grades.
type Storage struct {
	url        string
	apiKey     string
	collection string
	distance   string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Distance   string
	Timeout    time.Duration
}

// CollectionName returns the per-grade collection name for prefix.
func CollectionName(prefix string, grade int) string {
	return fmt.Sprintf("%s_grade_%d", prefix, grade)
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	distance := cfg.Distance
	if distance == "" {
		distance = DistanceCosine
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		distance:   distance,
		client:     &http.Client{Timeout: timeout},
	}
}

// Collection returns the collection this storage reads and writes.
func (s *Storage) Collection() string { return s.collection }

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.dimension = dimension
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": s.distance,
		},
	}
	// Qdrant answers 200 when the collection already exists with the same schema.
	return s.do(http.MethodPut, s.collectionURL(""), body, nil)
}

// Upsert writes chunks with numeric point ids equal to their row.
func (s *Storage) Upsert(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	for start := 0; start < len(chunks); start += upsertBatch {
		end := start + upsertBatch
		if end > len(chunks) {
			end = len(chunks)
		}
		points := make([]map[string]any, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, map[string]any{
				"id":     i,
				"vector": vectors[i],
				"payload": map[string]any{
					"chunk_id": chunks[i].ID,
					"text":     chunks[i].Text,
					"row":      i,
				},
			})
		}
		if err := s.do(http.MethodPut, s.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil); err != nil {
			return fmt.Errorf("upsert rows %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}

// Search returns the topK nearest points. Euclid distances are turned into
// similarities with 1/(1+d) so higher is always better. topK <= 0 asks for
// the collection's point count.
func (s *Storage) Search(vector []float64, topK int) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		n, err := s.count()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil
		}
		topK = n
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				ChunkID string `json:"chunk_id"`
				Text    string `json:"text"`
				Row     int    `json:"row"`
			} `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.ScoredChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		score := r.Score
		if s.distance == DistanceEuclid {
			score = 1 / (1 + r.Score)
		}
		results = append(results, domain.ScoredChunk{
			Chunk: domain.Chunk{ID: r.Payload.ChunkID, Text: r.Payload.Text},
			Row:   r.Payload.Row,
			Score: score,
		})
	}
	return results, nil
}

func (s *Storage) count() (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := s.do(http.MethodPost, s.collectionURL("/points/count"), map[string]any{"exact": true}, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Clear drops the collection. A missing collection is not an error.
func (s *Storage) Clear() error {
	err := s.do(http.MethodDelete, s.collectionURL(""), nil, nil)
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusNotFound {
		return nil
	}
	return err
}

func (s *Storage) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

type statusError struct {
	method, url, status string
	code                int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: %s", e.method, e.url, e.status)
}

func (s *Storage) do(method, url string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &statusError{method: method, url: url, status: resp.Status, code: resp.StatusCode}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
