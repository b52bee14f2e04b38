package history

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Actual-Reality/ai-master-engineer/internal/model/conv"
)

var ErrInvalidRole = errors.New("turn role must be user or assistant")

// Stats summarizes one stored conversation.
type Stats struct {
	ConversationID string `json:"conversationId"`
	MessageCount   int    `json:"messageCount"`
	UserTurns      int    `json:"userTurns"`
	AssistantTurns int    `json:"assistantTurns"`
	Storage        string `json:"storage"`
}

// Service owns conversation history: bounded, keyed, with per-conversation
// mutation serialization. Distinct conversations proceed concurrently; the
// lock for one conversation is never held across another's I/O.
type Service struct {
	repo     Repository
	maxTurns int
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*convLock
}

type convLock struct {
	mu   sync.Mutex
	refs int
}

// NewService wraps a repository with the turn cap and keyed locking.
func NewService(repo Repository, maxTurns int, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		maxTurns: maxTurns,
		logger:   logger,
		locks:    make(map[string]*convLock),
	}
}

// lock acquires the per-conversation mutex, creating it on demand. The
// returned release function drops the lock entry once no caller holds or
// awaits it, so idle conversations cost nothing.
func (s *Service) lock(conversationID string) func() {
	s.mu.Lock()
	entry, ok := s.locks[conversationID]
	if !ok {
		entry = &convLock{}
		s.locks[conversationID] = entry
	}
	entry.refs++
	s.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		s.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(s.locks, conversationID)
		}
		s.mu.Unlock()
	}
}

// Read returns the stored history, oldest first. A backing-store failure
// returns the empty history alongside the error so the caller can degrade
// to stateless single-turn behavior.
func (s *Service) Read(ctx context.Context, conversationID string) (conv.History, error) {
	history, err := s.repo.Get(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation %s: %w", conversationID, err)
	}
	return history, nil
}

// Append adds the given turns as one atomic per-key update, then trims to
// the turn cap from the front. The multi-turn form lets a user/assistant
// pair land as a single logical durable update. On a backing-store failure
// the trimmed history is still returned so the in-flight exchange keeps its
// context; the error is the caller's warning.
func (s *Service) Append(ctx context.Context, conversationID string, turns ...conv.Turn) (conv.History, error) {
	for _, turn := range turns {
		if !turn.Role.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRole, turn.Role)
		}
	}

	unlock := s.lock(conversationID)
	defer unlock()

	history, err := s.repo.Get(ctx, conversationID)
	if err != nil {
		// Without the stored prefix a Put would overwrite durable history
		// with a truncated one, so skip persistence and hand back the
		// in-memory exchange only.
		s.logger.Warn("append degraded to in-memory context",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return conv.History(turns).Trim(s.maxTurns),
			fmt.Errorf("failed to read conversation %s before append: %w", conversationID, err)
	}

	history = append(history, turns...).Trim(s.maxTurns)

	if err := s.repo.Put(ctx, conversationID, history); err != nil {
		return history, fmt.Errorf("failed to persist conversation %s: %w", conversationID, err)
	}

	return history, nil
}

// Clear resets the conversation to the empty sequence.
func (s *Service) Clear(ctx context.Context, conversationID string) error {
	unlock := s.lock(conversationID)
	defer unlock()

	if err := s.repo.Delete(ctx, conversationID); err != nil {
		return fmt.Errorf("failed to clear conversation %s: %w", conversationID, err)
	}
	return nil
}

// Stats reports message counts by role plus the backing driver name.
func (s *Service) Stats(ctx context.Context, conversationID string) (Stats, error) {
	history, err := s.repo.Get(ctx, conversationID)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read conversation %s: %w", conversationID, err)
	}

	stats := Stats{
		ConversationID: conversationID,
		MessageCount:   len(history),
		Storage:        s.repo.Name(),
	}
	for _, turn := range history {
		switch turn.Role {
		case conv.RoleUser:
			stats.UserTurns++
		case conv.RoleAssistant:
			stats.AssistantTurns++
		}
	}
	return stats, nil
}

// Storage names the active backing driver.
func (s *Service) Storage() string { return s.repo.Name() }

// Ping exercises the backing store with a throwaway read.
func (s *Service) Ping(ctx context.Context) error {
	_, err := s.repo.Get(ctx, "health-probe")
	return err
}

// Close releases the backing driver.
func (s *Service) Close() error { return s.repo.Close() }

// OpenRepository selects the configured backing driver. When a durable
// driver fails to open it logs a warning and falls back to memory; runtime
// failures of an opened driver degrade per-operation instead.
func OpenRepository(driver, path string, logger *zap.Logger) Repository {
	var (
		repo Repository
		err  error
	)

	switch driver {
	case "bolt":
		repo, err = NewBoltRepository(path)
	case "sqlite":
		repo, err = NewSQLiteRepository(path)
	default:
		return NewMemoryRepository()
	}

	if err != nil {
		logger.Warn("failed to open durable history driver, falling back to memory",
			zap.String("driver", driver),
			zap.String("path", path),
			zap.Error(err),
		)
		return NewMemoryRepository()
	}

	logger.Info("history driver ready", zap.String("driver", driver), zap.String("path", path))
	return repo
}
