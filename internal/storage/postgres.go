package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/inboxpilot/scheduler/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PostgresStore persists thread states as JSONB documents alongside a
// write-once ledger and the mutation intent log.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(config DatabaseConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}
	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetThread(ctx context.Context, identity, threadID string) (*models.ThreadState, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM thread_states WHERE identity = $1 AND thread_id = $2`,
		identity, threadID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying thread state: %w", err)
	}

	var state models.ThreadState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("error decoding thread state %s: %w", threadID, err)
	}
	return &state, nil
}

func (s *PostgresStore) HasProcessed(ctx context.Context, identity, messageID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM processed_messages WHERE identity = $1 AND message_id = $2)`,
		identity, messageID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking ledger: %w", err)
	}
	return exists, nil
}

// Commit writes the thread state and the ledger record in a single
// transaction. The ledger insert ignores conflicts so re-marking an
// already processed message is a no-op.
func (s *PostgresStore) Commit(ctx context.Context, identity string, state *models.ThreadState, rec models.MessageRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning commit transaction: %w", err)
	}
	defer tx.Rollback()

	if state != nil {
		raw, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("error encoding thread state %s: %w", state.ThreadID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO thread_states (identity, thread_id, status, state, last_updated)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (identity, thread_id)
			DO UPDATE SET status = $3, state = $4, last_updated = $5`,
			identity, state.ThreadID, string(state.Status), raw, state.LastUpdated)
		if err != nil {
			return fmt.Errorf("error upserting thread state: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO processed_messages (identity, message_id, thread_id, outcome, processed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (identity, message_id) DO NOTHING`,
		identity, rec.MessageID, rec.ThreadID, string(rec.Outcome), rec.ProcessedAt)
	if err != nil {
		return fmt.Errorf("error inserting ledger record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing: %w", err)
	}
	return nil
}

func (s *PostgresStore) BeginMutation(ctx context.Context, identity string, intent models.PendingIntent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mutation_intents (id, identity, message_id, thread_id, op, event_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		intent.ID, identity, intent.MessageID, intent.ThreadID, string(intent.Op), intent.EventID, intent.CreatedAt)
	if err != nil {
		return fmt.Errorf("error recording mutation intent: %w", err)
	}
	return nil
}

func (s *PostgresStore) ResolveMutation(ctx context.Context, identity, intentID string, confirmed bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE mutation_intents
		SET confirmed = $3, resolved_at = $4
		WHERE id = $1 AND identity = $2`,
		intentID, identity, confirmed, time.Now())
	if err != nil {
		return fmt.Errorf("error resolving mutation intent: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("mutation intent %s not found", intentID)
	}
	return nil
}

func (s *PostgresStore) DanglingMutations(ctx context.Context, identity string) ([]models.PendingIntent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, thread_id, op, COALESCE(event_id, ''), created_at
		FROM mutation_intents
		WHERE identity = $1 AND resolved_at IS NULL
		ORDER BY created_at`,
		identity)
	if err != nil {
		return nil, fmt.Errorf("error querying dangling mutations: %w", err)
	}
	defer rows.Close()

	var out []models.PendingIntent
	for rows.Next() {
		var intent models.PendingIntent
		var op string
		if err := rows.Scan(&intent.ID, &intent.MessageID, &intent.ThreadID, &op, &intent.EventID, &intent.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning mutation intent: %w", err)
		}
		intent.Op = models.MutationOp(op)
		out = append(out, intent)
	}
	return out, rows.Err()
}

func (s *PostgresStore) PruneInactiveThreads(ctx context.Context, identity string, olderThan time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM thread_states WHERE identity = $1 AND last_updated < $2`,
		identity, olderThan)
	if err != nil {
		return 0, fmt.Errorf("error pruning threads: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error getting rows affected: %w", err)
	}
	return int(rows), nil
}

func (s *PostgresStore) Stats(ctx context.Context, identity string) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM thread_states WHERE identity = $1),
			(SELECT COUNT(*) FROM thread_states WHERE identity = $1 AND status = $2),
			(SELECT COUNT(*) FROM processed_messages WHERE identity = $1),
			(SELECT COUNT(*) FROM mutation_intents WHERE identity = $1 AND resolved_at IS NULL)`,
		identity, string(models.StatusScheduled),
	).Scan(&stats.Threads, &stats.ScheduledThreads, &stats.ProcessedMessages, &stats.PendingMutations)
	if err != nil {
		return Stats{}, fmt.Errorf("error querying stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
