package conv

import "time"

// Role tags a turn as originating from the user or the assistant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the two accepted values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one exchange unit in a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// History is the ordered turn sequence for one conversation, oldest first.
type History []Turn

// Clone returns an independent copy so callers cannot alias stored state.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	copied := make(History, len(h))
	copy(copied, h)
	return copied
}

// Trim drops the oldest turns until the history fits within max.
func (h History) Trim(max int) History {
	if max <= 0 || len(h) <= max {
		return h
	}
	return h[len(h)-max:]
}
