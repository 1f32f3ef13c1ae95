package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"vankino/internal/domain"
)

type VenueStateStore struct {
	db *sqlx.DB
}

func NewVenueStateStore(db *sqlx.DB) *VenueStateStore {
	return &VenueStateStore{db: db}
}

func (s *VenueStateStore) Get(ctx context.Context, sourceID string) (*domain.VenueState, error) {
	var state domain.VenueState
	query := `
		SELECT source_id, last_fetched_at, last_succeeded_at, last_error,
			last_event_count, total_fetches, total_failures
		FROM venue_state
		WHERE source_id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, query, sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		// Return empty state for new sources
		return &domain.VenueState{SourceID: sourceID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *VenueStateStore) List(ctx context.Context) ([]domain.VenueState, error) {
	query := `
		SELECT source_id, last_fetched_at, last_succeeded_at, last_error,
			last_event_count, total_fetches, total_failures
		FROM venue_state
		ORDER BY source_id`

	var states []domain.VenueState
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &states, query); err != nil {
		return nil, err
	}
	return states, nil
}

func (s *VenueStateStore) Update(ctx context.Context, state *domain.VenueState) error {
	query := `
		INSERT INTO venue_state (source_id, last_fetched_at, last_succeeded_at, last_error,
			last_event_count, total_fetches, total_failures)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (source_id) DO UPDATE SET
			last_fetched_at = EXCLUDED.last_fetched_at,
			last_succeeded_at = EXCLUDED.last_succeeded_at,
			last_error = EXCLUDED.last_error,
			last_event_count = EXCLUDED.last_event_count,
			total_fetches = EXCLUDED.total_fetches,
			total_failures = EXCLUDED.total_failures`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		state.SourceID,
		state.LastFetchedAt,
		state.LastSucceededAt,
		state.LastError,
		state.LastEventCount,
		state.TotalFetches,
		state.TotalFailures,
	)
	return err
}
