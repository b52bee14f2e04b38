package history

import (
	"context"

	"github.com/Actual-Reality/ai-master-engineer/internal/model/conv"
)

// Repository is the key-value contract shared by backing drivers. Get on an
// unseen conversation returns an empty history, not an error. Put replaces
// the stored history for a key atomically.
type Repository interface {
	Get(ctx context.Context, conversationID string) (conv.History, error)
	Put(ctx context.Context, conversationID string, history conv.History) error
	Delete(ctx context.Context, conversationID string) error
	Name() string
	Close() error
}
