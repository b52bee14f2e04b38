// Package rag is the HTTP client for the retrieval-augmented-generation
// backend. The backend is an opaque JSON service: this client formats the
// chat request, bounds the call with a timeout and parses the answer
// defensively. Exactly one attempt per call; retries are the user's re-ask.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Actual-Reality/ai-master-engineer/internal/config"
	"github.com/Actual-Reality/ai-master-engineer/internal/model/conv"
	ragmodel "github.com/Actual-Reality/ai-master-engineer/internal/model/rag"
)

var (
	// ErrUnavailable covers connection failures and timeouts.
	ErrUnavailable = errors.New("rag backend unavailable")
	// ErrMalformed covers 2xx bodies that do not parse into the expected shape.
	ErrMalformed = errors.New("malformed rag backend response")
)

// errorBodyLimit caps how much of a failure body is kept for diagnostics.
const errorBodyLimit = 512

// StatusError reports a non-2xx backend status with a truncated body for
// operator diagnostics.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rag backend returned status %d: %s", e.Code, e.Body)
}

// Client calls the backend chat endpoint. Stateless; safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	overrides  overrides
	logger     *zap.Logger
}

type overrides struct {
	Top                  int     `json:"top"`
	Temperature          float64 `json:"temperature"`
	MinimumSearchScore   float64 `json:"minimum_search_score"`
	MinimumRerankerScore float64 `json:"minimum_reranker_score"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Messages []wireMessage `json:"messages"`
	Context  struct {
		Overrides overrides `json:"overrides"`
	} `json:"context"`
}

type wireCitation struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	URL      string `json:"url"`
	Filepath string `json:"filepath"`
}

type wireResponse struct {
	Answer    string          `json:"answer"`
	Citations json.RawMessage `json:"citations"`
	Usage     *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// NewClient builds a client from the backend configuration.
func NewClient(cfg config.RAGConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		overrides: overrides{
			Top:                  cfg.Top,
			Temperature:          cfg.Temperature,
			MinimumSearchScore:   cfg.MinimumSearchScore,
			MinimumRerankerScore: cfg.MinimumRerankerScore,
		},
		logger: logger,
	}
}

// Ask sends history plus the new user text to the backend chat endpoint and
// parses the structured answer. The given history is never mutated; the
// caller performs the durable append separately after a successful answer.
func (c *Client) Ask(ctx context.Context, history conv.History, newUserText string) (ragmodel.Answer, error) {
	reqBody := wireRequest{
		Messages: make([]wireMessage, 0, len(history)+1),
	}
	reqBody.Context.Overrides = c.overrides
	for _, turn := range history {
		reqBody.Messages = append(reqBody.Messages, wireMessage{Role: string(turn.Role), Content: turn.Content})
	}
	reqBody.Messages = append(reqBody.Messages, wireMessage{Role: string(conv.RoleUser), Content: newUserText})

	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return ragmodel.Answer{}, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(encoded))
	if err != nil {
		return ragmodel.Answer{}, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ragmodel.Answer{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return ragmodel.Answer{}, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return ragmodel.Answer{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	answer := ragmodel.Answer{
		Text:      wire.Answer,
		Citations: parseCitations(wire.Citations),
	}
	if wire.Usage != nil {
		answer.Usage = &ragmodel.TokenUsage{
			PromptTokens:     wire.Usage.PromptTokens,
			CompletionTokens: wire.Usage.CompletionTokens,
		}
		c.logger.Debug("backend token usage",
			zap.Int("prompt_tokens", wire.Usage.PromptTokens),
			zap.Int("completion_tokens", wire.Usage.CompletionTokens),
		)
	}
	return answer, nil
}

// parseCitations tolerates a malformed or missing citation list: the
// narrative answer is still useful without sources, so parse failures yield
// an empty sequence instead of failing the call.
func parseCitations(raw json.RawMessage) []ragmodel.Citation {
	if len(raw) == 0 {
		return nil
	}

	var wire []wireCitation
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil
	}

	citations := make([]ragmodel.Citation, 0, len(wire))
	for _, c := range wire {
		sourceRef := c.URL
		if sourceRef == "" {
			sourceRef = c.Filepath
		}
		citations = append(citations, ragmodel.Citation{
			Title:     c.Title,
			Content:   c.Content,
			SourceRef: sourceRef,
		})
	}
	return citations
}

// Ping probes backend reachability for the readiness surface.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, errorBodyLimit))

	if resp.StatusCode >= 500 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}
