package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Actual-Reality/ai-master-engineer/internal/model/conv"
)

var historyBucket = []byte("conversation_history")

// BoltRepository stores each conversation as one JSON-encoded bucket value.
type BoltRepository struct {
	db *bolt.DB
}

// NewBoltRepository opens (or creates) the bbolt file at path, ensuring the
// parent directory and history bucket exist.
func NewBoltRepository(path string) (*BoltRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt history at %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(historyBucket)
		return e
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history bucket: %w", err)
	}

	return &BoltRepository{db: db}, nil
}

func (r *BoltRepository) Get(_ context.Context, conversationID string) (conv.History, error) {
	var history conv.History
	err := r.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(historyBucket).Get([]byte(conversationID))
		if len(value) == 0 {
			return nil
		}
		return json.Unmarshal(value, &history)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read history for %s: %w", conversationID, err)
	}
	return history, nil
}

func (r *BoltRepository) Put(_ context.Context, conversationID string, history conv.History) error {
	encoded, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode history for %s: %w", conversationID, err)
	}

	err = r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(historyBucket).Put([]byte(conversationID), encoded)
	})
	if err != nil {
		return fmt.Errorf("failed to write history for %s: %w", conversationID, err)
	}
	return nil
}

func (r *BoltRepository) Delete(_ context.Context, conversationID string) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(historyBucket).Delete([]byte(conversationID))
	})
	if err != nil {
		return fmt.Errorf("failed to delete history for %s: %w", conversationID, err)
	}
	return nil
}

func (r *BoltRepository) Name() string { return "bolt" }

func (r *BoltRepository) Close() error { return r.db.Close() }
