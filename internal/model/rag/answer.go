package rag

// Citation is a source reference attached to a generated answer. Content
// carries the full retrieved passage; truncation happens only at render time.
type Citation struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	SourceRef string `json:"sourceRef"`
}

// TokenUsage reports backend token consumption when the backend includes it.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// Answer is the parsed result of one backend chat call. Missing response
// fields default to their zero values rather than failing the parse.
type Answer struct {
	Text      string      `json:"text"`
	Citations []Citation  `json:"citations"`
	Usage     *TokenUsage `json:"usage,omitempty"`
}
