package service

import (
	"context"
	"log/slog"
	"strings"

	"vankino/internal/domain"
	"vankino/internal/metrics"
	"vankino/internal/storage/memory"
)

const (
	backendPrimary  = "postgres"
	backendFallback = "memory"
)

// HypeService maintains per-event hype counters. When the primary store is
// missing or failing, counts are served from an in-process fallback.
type HypeService struct {
	primary   HypeStore
	fallback  HypeStore
	publisher Publisher
	logger    *slog.Logger
}

func NewHypeService(primary HypeStore, fallback HypeStore, publisher Publisher, logger *slog.Logger) *HypeService {
	if fallback == nil {
		fallback = memory.NewHypeStore()
	}
	return &HypeService{
		primary:   primary,
		fallback:  fallback,
		publisher: publisher,
		logger:    logger.With("component", "hype"),
	}
}

func (s *HypeService) Increment(ctx context.Context, req domain.HypeRequest) (domain.HypeResult, error) {
	return s.mutate(ctx, req, 1)
}

func (s *HypeService) Decrement(ctx context.Context, req domain.HypeRequest) (domain.HypeResult, error) {
	return s.mutate(ctx, req, -1)
}

// Counts returns a count for every distinct non-blank id; unknown ids map to 0.
func (s *HypeService) Counts(ctx context.Context, ids []string) (map[string]int, error) {
	ids = normalizeIDs(ids)
	result := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var (
		counts map[string]int
		err    error
	)
	if s.primary != nil {
		counts, err = s.primary.Counts(ctx, ids)
		if err != nil {
			s.logger.Warn("hype store unavailable, using memory", "op", "counts", "error", err)
		}
	}
	if s.primary == nil || err != nil {
		counts, err = s.fallback.Counts(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	for _, id := range ids {
		result[id] = counts[id]
	}
	return result, nil
}

func (s *HypeService) mutate(ctx context.Context, req domain.HypeRequest, delta int) (domain.HypeResult, error) {
	req.EventID = strings.TrimSpace(req.EventID)
	if req.EventID == "" {
		return domain.HypeResult{}, domain.ErrMissingEventID
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Theatre = strings.TrimSpace(req.Theatre)

	op := "increment"
	if delta < 0 {
		op = "decrement"
	}

	count, backend, err := s.apply(ctx, req, delta)
	if err != nil {
		return domain.HypeResult{}, err
	}
	metrics.RecordHypeOperation(op, backend)

	result := domain.HypeResult{EventID: req.EventID, HypeCount: count}

	if s.publisher != nil {
		if err := s.publisher.PublishHype(ctx, req, result, delta); err != nil {
			s.logger.Warn("publish hype failed", "event_id", req.EventID, "error", err)
		}
	}

	return result, nil
}

func (s *HypeService) apply(ctx context.Context, req domain.HypeRequest, delta int) (int, string, error) {
	if s.primary != nil {
		count, err := step(ctx, s.primary, req, delta)
		if err == nil {
			return count, backendPrimary, nil
		}
		s.logger.Warn("hype store unavailable, using memory",
			"event_id", req.EventID,
			"error", err,
		)
	}

	count, err := step(ctx, s.fallback, req, delta)
	if err != nil {
		return 0, "", err
	}
	return count, backendFallback, nil
}

func step(ctx context.Context, store HypeStore, req domain.HypeRequest, delta int) (int, error) {
	if delta < 0 {
		return store.Decrement(ctx, req)
	}
	return store.Increment(ctx, req)
}

func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
