package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vigil/internal/config"
	"vigil/internal/logger"
)

const defaultBaseURL = "https://api.deepseek.com/v1"

// ChatClient calls an OpenAI-compatible /chat/completions endpoint. Works
// with OpenAI, DeepSeek and Qwen style providers.
type ChatClient struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int // retries on 429/5xx; 0 means 2

	httpc *http.Client
}

var _ Oracle = (*ChatClient)(nil)

func NewChatClient(cfg config.OracleConfig) *ChatClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChatClient{
		BaseURL:    cfg.APIURL,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		Timeout:    timeout,
		MaxRetries: cfg.MaxRetries,
		httpc:      &http.Client{Timeout: timeout},
	}
}

func (c *ChatClient) Propose(ctx context.Context, strategy, systemPrompt, userPrompt string) (string, error) {
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	url := c.endpoint()

	messages := []map[string]string{}
	if systemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": userPrompt})
	body, _ := json.Marshal(map[string]any{
		"model":       c.Model,
		"messages":    messages,
		"temperature": 0.5,
	})

	logger.LogOracleRequest(strategy, systemPrompt, userPrompt, string(body))
	logger.Debugf("[oracle] POST %s model=%s auth=%s", url, c.Model, maskKey(c.APIKey))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.APIKey)
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			return "", err
		}
		if resp.StatusCode/100 == 2 {
			raw, err := decodeContent(resp)
			if err != nil {
				return "", err
			}
			logger.LogOracleResponse(strategy, raw)
			return raw, nil
		}
		status, msg := decodeError(resp)
		lastErr = fmt.Errorf("oracle: status=%d: %s", status, msg)
		if !retryable(status) || attempt == maxRetries {
			break
		}
		wait := retryAfter(resp, attempt)
		logger.Warnf("[oracle] %v, retrying in %s", lastErr, wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

// endpoint normalizes BaseURL so a configured ".../chat/completions" does
// not produce a doubled path.
func (c *ChatClient) endpoint() string {
	url := strings.TrimSpace(c.BaseURL)
	if url == "" {
		url = defaultBaseURL
	}
	url = strings.TrimRight(url, "/")
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

func decodeContent(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", fmt.Errorf("oracle: decode response: %w", err)
	}
	if len(r.Choices) == 0 {
		return "", fmt.Errorf("oracle: empty choices")
	}
	return r.Choices[0].Message.Content, nil
}

func decodeError(resp *http.Response) (int, string) {
	defer resp.Body.Close()
	var eresp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&eresp)
	msg := strings.TrimSpace(eresp.Error.Message)
	if msg == "" {
		msg = resp.Status
	}
	return resp.StatusCode, msg
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// retryAfter honors the Retry-After header, otherwise backs off 0.8s, 1.6s,
// 3.2s, capped at 8s.
func retryAfter(resp *http.Response, attempt int) time.Duration {
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	wait := 800 * time.Millisecond << attempt
	if wait > 8*time.Second {
		wait = 8 * time.Second
	}
	return wait
}

// maskKey keeps only the trailing 4 characters of an API key for logs.
func maskKey(key string) string {
	if key == "" {
		return "none"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
