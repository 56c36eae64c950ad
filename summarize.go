package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var (
	ErrNetwork = errors.New("summarizer network error")
	ErrService = errors.New("summarizer service error")
)

// fallbackSummary replaces the summary whenever the summarizer fails, so the
// export still produces a document.
const fallbackSummary = "## Generation Error\n\n" +
	"The image analysis service could not process the request. " +
	"Check your connection or the log file for technical details."

//go:embed prompt.txt
var summaryPrompt string

type Summarizer interface {
	Summarize(ctx context.Context, imageDataURL string) (string, error)
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

// OpenAI compatible request, as served by the Hugging Face router.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type HFSummarizer struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
	memo      *cache.Cache
	logger    *zap.Logger
}

func NewHFSummarizer(apiKey, baseURL, model string, logger *zap.Logger) *HFSummarizer {
	if baseURL == "" {
		baseURL = "https://router.huggingface.co/v1"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HFSummarizer{
		apiKey:    apiKey,
		baseURL:   baseURL,
		model:     model,
		maxTokens: 2000,
		client:    &http.Client{Timeout: 2 * time.Minute},
		memo:      cache.New(10*time.Minute, 20*time.Minute),
		logger:    logger,
	}
}

// Summarize sends the canvas picture with the embedded prompt and returns the
// model's markdown. Answers for identical pictures are reused for a while;
// failures are not remembered.
func (s *HFSummarizer) Summarize(ctx context.Context, imageDataURL string) (string, error) {
	sum := sha256.Sum256([]byte(imageDataURL))
	key := hex.EncodeToString(sum[:])
	if cached, ok := s.memo.Get(key); ok {
		s.logger.Debug("summary served from cache", zap.String("key", key[:12]))
		return cached.(string), nil
	}

	if s.apiKey == "" {
		return "", fmt.Errorf("%w: HF_ACCESS_TOKEN is not set", ErrService)
	}

	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: summaryPrompt},
				{Type: "image_url", ImageURL: &imageRef{URL: imageDataURL}},
			},
		}},
		MaxTokens: s.maxTokens,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %w", ErrService, err)
	}

	url := fmt.Sprintf("%s/chat/completions", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %w", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrNetwork, err)
	}
	s.logger.Info("summarizer responded",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(bodyBytes)),
	)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrService, resp.StatusCode, truncate(string(bodyBytes), 200))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrService, err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrService, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty choices", ErrService)
	}

	content := chatResp.Choices[0].Message.Content
	s.memo.SetDefault(key, content)
	return content, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
