package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

// Client is an OpenAI-compatible embeddings client. It also understands
// the Ollama response shape so a local model can stand in for the API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	client     *http.Client
	maxRetries int

	mu        sync.Mutex
	dimension int
}

// Config configures the embeddings client. An empty APIKeyEnv means the
// endpoint needs no key.
type Config struct {
	BaseURL    string
	APIKeyEnv  string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

var errNoEmbedding = errors.New("no embedding returned")

// maxRetryDelay caps both the backoff and any Retry-After the server sends.
const maxRetryDelay = 5 * time.Second

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	var key string
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		client:     &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
	}, nil
}

// Name returns the model identifier; precomputed vectors are tagged with it.
func (c *Client) Name() string { return "openai:" + c.model }

// Prepare is a no-op; the dimension is learned from the first response.
func (c *Client) Prepare(corpus []string) error { return nil }

// Dimension returns the dimensionality of the produced embedding vectors.
func (c *Client) Dimension() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dimension
}

// Embed returns an embedding vector for the given text. It is
// EmbedContext without a deadline.
func (c *Client) Embed(text string) ([]float64, error) {
	return c.EmbedContext(context.Background(), text)
}

// EmbedContext returns an embedding vector for the given text, retrying on
// transport errors, 429 and 5xx responses with exponential backoff. It gives
// up as soon as ctx is done, including while waiting to retry.
func (c *Client) EmbedContext(ctx context.Context, text string) ([]float64, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		v, retry, err := c.embedOnce(ctx, text)
		if err == nil {
			c.learnDimension(len(v))
			return v, nil
		}
		lastErr = err
		if ctx.Err() != nil || retry == nil || attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(retry.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w (last attempt: %v)", ctx.Err(), lastErr)
		case <-timer.C:
		}
	}
	return nil, lastErr
}

type retryHint struct {
	after time.Duration
}

func (h *retryHint) delay(attempt int) time.Duration {
	if h.after > 0 {
		return min(h.after, maxRetryDelay)
	}
	return retryDelay(attempt)
}

// embedOnce performs one request. A non-nil hint means the failure is
// worth retrying.
func (c *Client) embedOnce(ctx context.Context, text string) ([]float64, *retryHint, error) {
	body, _ := json.Marshal(struct {
		Input  string `json:"input,omitempty"`
		Prompt string `json:"prompt,omitempty"`
		Model  string `json:"model"`
	}{Input: text, Prompt: text, Model: c.model})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &retryHint{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		hint := &retryHint{}
		// Respect Retry-After if provided
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			hint.after = time.Duration(secs) * time.Second
		}
		return nil, hint, fmt.Errorf("embeddings request failed: %s", resp.Status)
	}
	if resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("embeddings request failed: %s", resp.Status)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryHint{}, err
	}
	v, err := decodeEmbedding(payload)
	if err != nil {
		return nil, &retryHint{}, err
	}
	return v, nil, nil
}

// decodeEmbedding accepts {"data":[{"embedding":[...]}]} or {"embedding":[...]}.
func decodeEmbedding(payload []byte) ([]float64, error) {
	var out struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	if len(out.Data) > 0 && len(out.Data[0].Embedding) > 0 {
		return out.Data[0].Embedding, nil
	}
	if len(out.Embedding) > 0 {
		return out.Embedding, nil
	}
	return nil, errNoEmbedding
}

func (c *Client) learnDimension(n int) {
	c.mu.Lock()
	if c.dimension == 0 {
		c.dimension = n
	}
	c.mu.Unlock()
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// 200ms << 5 already exceeds the cap; larger shifts could overflow.
	if attempt >= 5 {
		return maxRetryDelay
	}
	return min(200*time.Millisecond<<attempt, maxRetryDelay)
}
