package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Actual-Reality/ai-master-engineer/internal/model/conv"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestService(maxTurns int) *Service {
	return NewService(NewMemoryRepository(), maxTurns, zap.NewNop())
}

func userTurn(content string) conv.Turn {
	return conv.Turn{Role: conv.RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

func assistantTurn(content string) conv.Turn {
	return conv.Turn{Role: conv.RoleAssistant, Content: content, Timestamp: time.Now().UTC()}
}

func TestReadUnseenConversationIsEmpty(t *testing.T) {
	svc := newTestService(20)

	history, err := svc.Read(context.Background(), "unseen")
	if err != nil {
		t.Fatalf("Read err: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d turns", len(history))
	}
}

func TestAppendPairLandsInOrder(t *testing.T) {
	svc := newTestService(20)
	ctx := context.Background()

	history, err := svc.Append(ctx, "conv-1", userTurn("question"), assistantTurn("answer"))
	if err != nil {
		t.Fatalf("Append err: %v", err)
	}

	if len(history) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(history))
	}
	if history[0].Role != conv.RoleUser || history[1].Role != conv.RoleAssistant {
		t.Fatalf("unexpected role order: %s, %s", history[0].Role, history[1].Role)
	}
}

func TestAppendRejectsUnknownRole(t *testing.T) {
	svc := newTestService(20)

	_, err := svc.Append(context.Background(), "conv-1", conv.Turn{Role: "system", Content: "x"})
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestAppendEvictsOldestBeyondCap(t *testing.T) {
	svc := newTestService(20)
	ctx := context.Background()

	for i := 0; i < 21; i++ {
		question := fmt.Sprintf("question %d", i)
		if _, err := svc.Append(ctx, "conv-1", userTurn(question), assistantTurn(fmt.Sprintf("answer %d", i))); err != nil {
			t.Fatalf("Append %d err: %v", i, err)
		}
	}

	history, err := svc.Read(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Read err: %v", err)
	}

	if len(history) != 20 {
		t.Fatalf("expected history capped at 20, got %d", len(history))
	}
	if history[0].Content == "question 0" {
		t.Fatal("oldest turn should have been evicted")
	}
	if history[len(history)-1].Content != "answer 20" {
		t.Fatalf("most recent turn missing, got %q", history[len(history)-1].Content)
	}
}

func TestClearEmptiesHistory(t *testing.T) {
	svc := newTestService(20)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.Append(ctx, "conv-1", userTurn("q")); err != nil {
			t.Fatalf("Append err: %v", err)
		}
	}

	if err := svc.Clear(ctx, "conv-1"); err != nil {
		t.Fatalf("Clear err: %v", err)
	}

	history, err := svc.Read(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Read err: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history after clear, got %d turns", len(history))
	}
}

func TestStatsCountsRoles(t *testing.T) {
	svc := newTestService(20)
	ctx := context.Background()

	if _, err := svc.Append(ctx, "conv-1", userTurn("q1"), assistantTurn("a1")); err != nil {
		t.Fatalf("Append err: %v", err)
	}
	if _, err := svc.Append(ctx, "conv-1", userTurn("q2")); err != nil {
		t.Fatalf("Append err: %v", err)
	}

	stats, err := svc.Stats(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Stats err: %v", err)
	}

	if stats.MessageCount != 3 || stats.UserTurns != 2 || stats.AssistantTurns != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Storage != "memory" {
		t.Fatalf("unexpected storage name: %q", stats.Storage)
	}
}

func TestConcurrentAppendsStayCappedAndPaired(t *testing.T) {
	svc := newTestService(20)
	ctx := context.Background()

	var g errgroup.Group
	for conversation := 0; conversation < 4; conversation++ {
		id := fmt.Sprintf("conv-%d", conversation)
		for worker := 0; worker < 8; worker++ {
			g.Go(func() error {
				for i := 0; i < 10; i++ {
					if _, err := svc.Append(ctx, id, userTurn("q"), assistantTurn("a")); err != nil {
						return err
					}
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent append err: %v", err)
	}

	for conversation := 0; conversation < 4; conversation++ {
		id := fmt.Sprintf("conv-%d", conversation)
		history, err := svc.Read(ctx, id)
		if err != nil {
			t.Fatalf("Read err: %v", err)
		}
		if len(history) != 20 {
			t.Fatalf("%s: expected capped history, got %d turns", id, len(history))
		}
		for i, turn := range history {
			want := conv.RoleUser
			if i%2 == 1 {
				want = conv.RoleAssistant
			}
			if turn.Role != want {
				t.Fatalf("%s: interleaved append corrupted ordering at %d: %s", id, i, turn.Role)
			}
		}
	}

	svc.mu.Lock()
	remaining := len(svc.locks)
	svc.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("expected idle conversation locks to be collected, %d remain", remaining)
	}
}
