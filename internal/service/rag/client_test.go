package rag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Actual-Reality/ai-master-engineer/internal/config"
	"github.com/Actual-Reality/ai-master-engineer/internal/model/conv"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.RAGConfig{
		BaseURL:              baseURL,
		Timeout:              5 * time.Second,
		Top:                  3,
		Temperature:          0.3,
		MinimumSearchScore:   0.0,
		MinimumRerankerScore: 0.0,
	}, zap.NewNop())
}

func TestAskSuccessWithCitations(t *testing.T) {
	var captured wireRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		resp := map[string]any{
			"answer": "Policy X applies",
			"citations": []map[string]any{
				{"title": "Doc1", "content": "full passage", "url": "https://docs/doc1"},
				{"title": "Doc2", "content": "another passage", "filepath": "docs/doc2.pdf"},
			},
			"usage": map[string]any{"prompt_tokens": 42, "completion_tokens": 7},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	history := conv.History{
		{Role: conv.RoleUser, Content: "earlier question"},
		{Role: conv.RoleAssistant, Content: "earlier answer"},
	}

	answer, err := client.Ask(context.Background(), history, "What is the policy?")
	require.NoError(t, err)

	assert.Equal(t, "Policy X applies", answer.Text)
	require.Len(t, answer.Citations, 2)
	assert.Equal(t, "Doc1", answer.Citations[0].Title)
	assert.Equal(t, "https://docs/doc1", answer.Citations[0].SourceRef)
	assert.Equal(t, "docs/doc2.pdf", answer.Citations[1].SourceRef)
	require.NotNil(t, answer.Usage)
	assert.Equal(t, 42, answer.Usage.PromptTokens)

	// The request carries history plus the new user turn, in order, with the
	// fixed overrides.
	require.Len(t, captured.Messages, 3)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Equal(t, "assistant", captured.Messages[1].Role)
	assert.Equal(t, "What is the policy?", captured.Messages[2].Content)
	assert.Equal(t, 3, captured.Context.Overrides.Top)
	assert.InDelta(t, 0.3, captured.Context.Overrides.Temperature, 1e-9)

	// The caller's history slice is never mutated.
	assert.Len(t, history, 2)
}

func TestAskMissingCitationsYieldsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"answer": "just text"})
	}))
	defer server.Close()

	answer, err := newTestClient(server.URL).Ask(context.Background(), nil, "q")
	require.NoError(t, err)
	assert.Equal(t, "just text", answer.Text)
	assert.Empty(t, answer.Citations)
	assert.Nil(t, answer.Usage)
}

func TestAskMalformedCitationsYieldsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer":"text survives","citations":"not-a-list"}`))
	}))
	defer server.Close()

	answer, err := newTestClient(server.URL).Ask(context.Background(), nil, "q")
	require.NoError(t, err)
	assert.Equal(t, "text survives", answer.Text)
	assert.Empty(t, answer.Citations)
}

func TestAskNonOKStatusIsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index rebuilding", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Ask(context.Background(), nil, "q")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Contains(t, statusErr.Body, "index rebuilding")
}

func TestAskConnectionFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := newTestClient(server.URL).Ask(context.Background(), nil, "q")
	assert.True(t, errors.Is(err, ErrUnavailable), "expected ErrUnavailable, got %v", err)
}

func TestAskUndecodableBodyIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer": not-json`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Ask(context.Background(), nil, "q")
	assert.True(t, errors.Is(err, ErrMalformed), "expected ErrMalformed, got %v", err)
}

func TestPing(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()
		assert.NoError(t, newTestClient(server.URL).Ping(context.Background()))
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()
		assert.Error(t, newTestClient(server.URL).Ping(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()
		err := newTestClient(server.URL).Ping(context.Background())
		assert.True(t, errors.Is(err, ErrUnavailable), "expected ErrUnavailable, got %v", err)
	})
}
