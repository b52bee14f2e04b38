package reply

// CitationBlock is one rendered source entry. Preview is the truncated
// display form of the citation content.
type CitationBlock struct {
	Title     string `json:"title"`
	Preview   string `json:"preview"`
	SourceRef string `json:"sourceRef,omitempty"`
}

// Card is the channel-agnostic outbound reply. The channel adapter
// serializes it into whatever wire format the platform requires.
type Card struct {
	Text      string          `json:"text"`
	Citations []CitationBlock `json:"citations,omitempty"`
}
