package bot

// Profile captures the static identity content rendered into help replies.
type Profile struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Commands         []string `json:"commands"`
	ExampleQuestions []string `json:"exampleQuestions"`
}

// DefaultProfile provides the stock assistant identity. The display name is
// overridable through configuration; the rest is fixed deployment content.
func DefaultProfile(name string) Profile {
	if name == "" {
		name = "RAG Assistant"
	}
	return Profile{
		Name:        name,
		Description: "AI-powered document search and chat assistant. Ask me anything about your documents!",
		Commands: []string{
			"/help - Show this help",
			"/clear - Clear conversation history",
		},
		ExampleQuestions: []string{
			"What's our vacation policy?",
			"Tell me about Q3 financial results",
			"How do I submit expense reports?",
		},
	}
}
