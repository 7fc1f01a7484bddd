// Package archive persists completed relay exchanges to SQLite.
// All writes are append-only; the archive is an audit trail, not the
// request context (that stays in the in-memory conversation store).
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/parleybot/parley/internal/domain/relay"
	"github.com/parleybot/parley/internal/infra/eventbus"
	"github.com/parleybot/parley/pkg/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Service records exchanges and answers transcript/usage queries.
type Service struct {
	db *sql.DB
}

// NewService creates an archive Service backed by the given database.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Start subscribes to relay.completed and records each exchange.
// Runs in the calling goroutine; launch with: go svc.Start(ctx, bus)
// Stops when ctx is cancelled.
func (s *Service) Start(ctx context.Context, bus eventbus.EventBus) {
	ch := bus.Subscribe(relay.TopicCompleted)
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-ch:
			ex, ok := evt.Payload.(relay.Exchange)
			if !ok {
				continue
			}
			// Best-effort: a failed write must not stall the relay
			_, _ = s.Record(ctx, ex)
		}
	}
}

// Record writes one exchange as a transcript row plus a usage_log row,
// atomically. Returns the stored transcript.
func (s *Service) Record(ctx context.Context, ex relay.Exchange) (*Transcript, error) {
	createdAt := ex.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	item := &Transcript{
		ID:        uuid.NewV7().String(),
		ConvKey:   string(ex.Key),
		Model:     ex.Model,
		Prompt:    ex.Prompt,
		Reply:     ex.Reply,
		Persisted: ex.Persisted,
		CreatedAt: createdAt.UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("archive: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is a no-op
	}()

	persisted := 0
	if item.Persisted {
		persisted = 1
	}
	stamp := item.CreatedAt.Format(time.RFC3339)

	if _, execErr := tx.ExecContext(ctx, `
		INSERT INTO transcripts (id, conv_key, model, prompt, reply, persisted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.ConvKey, item.Model, item.Prompt, item.Reply, persisted, stamp); execErr != nil {
		return nil, fmt.Errorf("archive: insert transcript: %w", execErr)
	}

	if _, execErr := tx.ExecContext(ctx, `
		INSERT INTO usage_log (id, exchange_id, model, prompt_tokens, completion_tokens, total_tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewV7().String(), item.ID, item.Model,
		ex.Usage.PromptTokens, ex.Usage.CompletionTokens, ex.Usage.TotalTokens, stamp); execErr != nil {
		return nil, fmt.Errorf("archive: insert usage: %w", execErr)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("archive: commit: %w", err)
	}

	return item, nil
}

// ListByKey returns transcripts for one conversation, oldest first, plus the
// total row count for pagination. Limit is clamped to [1, 200]; 0 means the
// default page size of 50.
func (s *Service) ListByKey(ctx context.Context, key string, limit, offset int) ([]*Transcript, int, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transcripts WHERE conv_key = ?", key,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("archive: count transcripts: %w", err)
	}

	// rowid tiebreak keeps insertion order stable for same-second timestamps
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conv_key, model, prompt, reply, persisted, created_at
		FROM transcripts
		WHERE conv_key = ?
		ORDER BY created_at ASC, rowid ASC
		LIMIT ? OFFSET ?
	`, key, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("archive: list transcripts: %w", err)
	}
	defer rows.Close()

	out := make([]*Transcript, 0)
	for rows.Next() {
		item, scanErr := scanTranscript(rows)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

// UsageByModel aggregates token counts per model across all recorded exchanges.
func (s *Service) UsageByModel(ctx context.Context) ([]*ModelUsage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT model,
		       COUNT(*),
		       COALESCE(SUM(prompt_tokens), 0),
		       COALESCE(SUM(completion_tokens), 0),
		       COALESCE(SUM(total_tokens), 0)
		FROM usage_log
		GROUP BY model
		ORDER BY model ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("archive: usage by model: %w", err)
	}
	defer rows.Close()

	out := make([]*ModelUsage, 0)
	for rows.Next() {
		var u ModelUsage
		if scanErr := rows.Scan(&u.Model, &u.Exchanges, &u.PromptTokens, &u.CompletionTokens, &u.TotalTokens); scanErr != nil {
			return nil, scanErr
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

type transcriptScanner interface {
	Scan(dest ...any) error
}

func scanTranscript(scan transcriptScanner) (*Transcript, error) {
	var (
		item         Transcript
		persistedRaw int
		createdAtRaw string
	)

	if err := scan.Scan(
		&item.ID,
		&item.ConvKey,
		&item.Model,
		&item.Prompt,
		&item.Reply,
		&persistedRaw,
		&createdAtRaw,
	); err != nil {
		return nil, err
	}

	item.Persisted = persistedRaw != 0

	createdAt, err := time.Parse(time.RFC3339, createdAtRaw)
	if err != nil {
		return nil, fmt.Errorf("archive: parse created_at %q: %w", createdAtRaw, err)
	}
	item.CreatedAt = createdAt

	return &item, nil
}
