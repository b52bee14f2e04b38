package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Actual-Reality/ai-master-engineer/internal/model/conv"
)

// SQLiteRepository stores one row per turn, ordered by insertion id. Put
// replaces the row set for a conversation inside one transaction.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the SQLite database at path,
// ensuring the parent directory exists and the schema is in place.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite history at %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite history at %s: %w", path, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS conversation_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_history_conversation ON conversation_history(conversation_id, id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init sqlite history schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, conversationID string) (conv.History, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM conversation_history WHERE conversation_id = ? ORDER BY id`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read history for %s: %w", conversationID, err)
	}
	defer rows.Close()

	var history conv.History
	for rows.Next() {
		var (
			role      string
			content   string
			createdAt int64
		)
		if err := rows.Scan(&role, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row for %s: %w", conversationID, err)
		}
		history = append(history, conv.Turn{
			Role:      conv.Role(role),
			Content:   content,
			Timestamp: time.Unix(createdAt, 0).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows for %s: %w", conversationID, err)
	}
	return history, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, conversationID string, history conv.History) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history tx for %s: %w", conversationID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM conversation_history WHERE conversation_id = ?`, conversationID,
	); err != nil {
		return fmt.Errorf("failed to replace history for %s: %w", conversationID, err)
	}

	for _, turn := range history {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO conversation_history (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
			conversationID, string(turn.Role), turn.Content, turn.Timestamp.Unix(),
		); err != nil {
			return fmt.Errorf("failed to insert turn for %s: %w", conversationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history for %s: %w", conversationID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, conversationID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM conversation_history WHERE conversation_id = ?`, conversationID,
	); err != nil {
		return fmt.Errorf("failed to delete history for %s: %w", conversationID, err)
	}
	return nil
}

func (r *SQLiteRepository) Name() string { return "sqlite" }

func (r *SQLiteRepository) Close() error { return r.db.Close() }
