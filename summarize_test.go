package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testImageURL = "data:image/png;base64,iVBORw0KGgo="

func TestHFSummarizerRequestShape(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req chatRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "test/model", req.Model)
		assert.Equal(t, 2000, req.MaxTokens)
		if assert.Len(t, req.Messages, 1) && assert.Len(t, req.Messages[0].Content, 2) {
			msg := req.Messages[0]
			assert.Equal(t, "user", msg.Role)
			assert.Equal(t, "text", msg.Content[0].Type)
			assert.Equal(t, summaryPrompt, msg.Content[0].Text)
			assert.Equal(t, "image_url", msg.Content[1].Type)
			if assert.NotNil(t, msg.Content[1].ImageURL) {
				assert.Equal(t, testImageURL, msg.Content[1].ImageURL.URL)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"## Summary\n\nTwo ideas."}}]}`))
	}))
	defer server.Close()

	s := NewHFSummarizer("hf_test", server.URL, "test/model", zaptest.NewLogger(t))
	got, err := s.Summarize(context.Background(), testImageURL)
	require.NoError(t, err)
	assert.Equal(t, "## Summary\n\nTwo ideas.", got)

	// identical pictures are answered from the cache
	got, err = s.Summarize(context.Background(), testImageURL)
	require.NoError(t, err)
	assert.Equal(t, "## Summary\n\nTwo ideas.", got)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHFSummarizerServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom"}}`},
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad token"}`},
		{"error payload", http.StatusOK, `{"error":{"message":"model overloaded"}}`},
		{"empty choices", http.StatusOK, `{"choices":[]}`},
		{"not json", http.StatusOK, `<html>gateway</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			s := NewHFSummarizer("hf_test", server.URL, "test/model", zaptest.NewLogger(t))
			_, err := s.Summarize(context.Background(), testImageURL)
			assert.ErrorIs(t, err, ErrService)
			assert.NotErrorIs(t, err, ErrNetwork)

			// failures are never cached
			_, err = s.Summarize(context.Background(), testImageURL)
			assert.ErrorIs(t, err, ErrService)
			assert.Equal(t, int32(2), calls.Load())
		})
	}
}

func TestHFSummarizerNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	s := NewHFSummarizer("hf_test", url, "test/model", zaptest.NewLogger(t))
	_, err := s.Summarize(context.Background(), testImageURL)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestHFSummarizerMissingToken(t *testing.T) {
	s := NewHFSummarizer("", "http://127.0.0.1:1", "test/model", nil)
	_, err := s.Summarize(context.Background(), testImageURL)
	assert.ErrorIs(t, err, ErrService)
}

func TestHFSummarizerCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"late"}}]}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewHFSummarizer("hf_test", server.URL, "test/model", nil)
	_, err := s.Summarize(ctx, testImageURL)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 2))
}
