package activity

// Activity is the inbound envelope after channel-adapter validation.
// Channel-specific authentication and routing fields are stripped before
// the payload reaches this service; extra fields are ignored on decode.
type Activity struct {
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
	SenderID       string `json:"senderId"`
}
