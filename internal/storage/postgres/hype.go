package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"vankino/internal/domain"
)

type HypeStore struct {
	db *sqlx.DB
}

func NewHypeStore(db *sqlx.DB) *HypeStore {
	return &HypeStore{db: db}
}

func (s *HypeStore) Increment(ctx context.Context, req domain.HypeRequest) (int, error) {
	query := `
		INSERT INTO event_hype (event_id, hype_count, last_title, last_theatre, updated_at)
		VALUES ($1, 1, $2, $3, NOW())
		ON CONFLICT (event_id) DO UPDATE SET
			hype_count = event_hype.hype_count + 1,
			last_title = COALESCE(EXCLUDED.last_title, event_hype.last_title),
			last_theatre = COALESCE(EXCLUDED.last_theatre, event_hype.last_theatre),
			updated_at = NOW()
		RETURNING hype_count`

	var count int
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		req.EventID,
		nullable(req.Title),
		nullable(req.Theatre),
	).Scan(&count)
	return count, err
}

// Decrement lowers the count without going below zero. Unknown ids stay absent.
func (s *HypeStore) Decrement(ctx context.Context, req domain.HypeRequest) (int, error) {
	query := `
		UPDATE event_hype SET
			hype_count = GREATEST(hype_count - 1, 0),
			last_title = COALESCE($2, last_title),
			last_theatre = COALESCE($3, last_theatre),
			updated_at = NOW()
		WHERE event_id = $1
		RETURNING hype_count`

	var count int
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		req.EventID,
		nullable(req.Title),
		nullable(req.Theatre),
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return count, err
}

// Counts returns stored counts for ids. Ids without a row are omitted.
func (s *HypeStore) Counts(ctx context.Context, ids []string) (map[string]int, error) {
	result := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT event_id, hype_count FROM event_hype WHERE event_id = ANY($1)`

	var rows []domain.HypeRecord
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, pq.Array(ids)); err != nil {
		return nil, err
	}

	for _, r := range rows {
		result[r.EventID] = r.HypeCount
	}
	return result, nil
}

func (s *HypeStore) Get(ctx context.Context, eventID string) (*domain.HypeRecord, error) {
	var rec domain.HypeRecord
	query := `
		SELECT event_id, hype_count, last_title, last_theatre, updated_at
		FROM event_hype
		WHERE event_id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &rec, query, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("event hype not found")
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
