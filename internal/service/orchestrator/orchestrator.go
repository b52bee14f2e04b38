// Package orchestrator coordinates one conversation turn: classify the
// inbound text, consult history, call the backend, persist the exchange and
// render the reply. Every turn starts fresh from persisted state and every
// failure is converted to a user-safe card at this boundary.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Actual-Reality/ai-master-engineer/internal/model/activity"
	"github.com/Actual-Reality/ai-master-engineer/internal/model/bot"
	"github.com/Actual-Reality/ai-master-engineer/internal/model/conv"
	"github.com/Actual-Reality/ai-master-engineer/internal/model/reply"
	"github.com/Actual-Reality/ai-master-engineer/internal/service/command"
	"github.com/Actual-Reality/ai-master-engineer/internal/service/format"
	"github.com/Actual-Reality/ai-master-engineer/internal/service/history"
	ragservice "github.com/Actual-Reality/ai-master-engineer/internal/service/rag"
)

// Service is the conversation orchestrator.
type Service struct {
	history *history.Service
	rag     *ragservice.Client
	profile bot.Profile
	logger  *zap.Logger
}

// New wires the orchestrator over its collaborators.
func New(historySvc *history.Service, ragClient *ragservice.Client, profile bot.Profile, logger *zap.Logger) *Service {
	return &Service{
		history: historySvc,
		rag:     ragClient,
		profile: profile,
		logger:  logger,
	}
}

// HandleTurn processes one inbound activity and always produces a reply
// card; no error escapes to the channel adapter.
func (s *Service) HandleTurn(ctx context.Context, act activity.Activity) (card reply.Card) {
	turnID := uuid.NewString()
	logger := s.logger.With(
		zap.String("turn_id", turnID),
		zap.String("conversation_id", act.ConversationID),
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while handling turn", zap.Any("panic", r))
			card = format.ErrorCard()
		}
	}()

	result := command.Classify(act.Text)
	switch result.Kind {
	case command.KindHelp:
		logger.Debug("handling help command")
		return format.HelpCard(s.profile)

	case command.KindClear:
		logger.Debug("handling clear command")
		if err := s.history.Clear(ctx, act.ConversationID); err != nil {
			// Availability over consistency: the confirmation still goes
			// out, operators see the failure in logs.
			logger.Warn("failed to clear history", zap.Error(err))
		}
		return format.ClearedCard()
	}

	if result.Text == "" {
		logger.Debug("empty query after mention stripping")
		return format.PromptCard()
	}

	return s.handleQuery(ctx, logger, act.ConversationID, result.Text)
}

func (s *Service) handleQuery(ctx context.Context, logger *zap.Logger, conversationID, query string) reply.Card {
	hist, err := s.history.Read(ctx, conversationID)
	if err != nil {
		// Degrade to stateless single-turn behavior.
		logger.Warn("failed to read history, proceeding without context", zap.Error(err))
		hist = nil
	}

	answer, err := s.rag.Ask(ctx, hist, query)
	if err != nil {
		// Failed calls skip persistence so no orphaned user turn lands in
		// history. Nothing is retried; the user re-asks.
		var statusErr *ragservice.StatusError
		switch {
		case errors.Is(err, ragservice.ErrUnavailable):
			logger.Warn("backend unavailable", zap.Error(err))
			return format.UnavailableCard()
		case errors.As(err, &statusErr):
			logger.Warn("backend returned error status",
				zap.Int("status", statusErr.Code),
				zap.String("body", statusErr.Body),
			)
			return format.UnavailableCard()
		case errors.Is(err, ragservice.ErrMalformed):
			logger.Error("backend response violated contract", zap.Error(err))
			return format.FailureCard()
		default:
			logger.Error("backend call failed", zap.Error(err))
			return format.FailureCard()
		}
	}

	now := time.Now().UTC()
	if _, err := s.history.Append(ctx, conversationID,
		conv.Turn{Role: conv.RoleUser, Content: query, Timestamp: now},
		conv.Turn{Role: conv.RoleAssistant, Content: answer.Text, Timestamp: now},
	); err != nil {
		logger.Warn("failed to persist exchange", zap.Error(err))
	}

	logger.Debug("turn complete",
		zap.Int("answer_len", len(answer.Text)),
		zap.Int("citations", len(answer.Citations)),
	)
	return format.Format(answer)
}
