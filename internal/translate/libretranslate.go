package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// LibreTranslate is a client for a LibreTranslate server.
type LibreTranslate struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type LibreConfig struct {
	BaseURL   string
	APIKeyEnv string
	Timeout   time.Duration
}

func NewLibreTranslate(cfg LibreConfig) (*LibreTranslate, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("libretranslate base url is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	var key string
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	return &LibreTranslate{
		baseURL: cfg.BaseURL,
		apiKey:  key,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (l *LibreTranslate) Name() string { return "libretranslate" }

func (l *LibreTranslate) Translate(ctx context.Context, text, source, target string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"q":       text,
		"source":  source,
		"target":  target,
		"format":  "text",
		"api_key": l.apiKey,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		TranslatedText string `json:"translatedText"`
		Error          string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("libretranslate %s: decode response: %w", resp.Status, err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("libretranslate %s: %s", resp.Status, out.Error)
	}
	return out.TranslatedText, nil
}
