package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"vankino/internal/domain"
	"vankino/internal/ics"
	"vankino/internal/marathon"
)

const maxBodyBytes = 64 << 10

type ListingService interface {
	GetEventsForDate(ctx context.Context, raw string) *domain.DayListing
	States(ctx context.Context) ([]domain.VenueState, error)
}

type HypeService interface {
	Increment(ctx context.Context, req domain.HypeRequest) (domain.HypeResult, error)
	Decrement(ctx context.Context, req domain.HypeRequest) (domain.HypeResult, error)
	Counts(ctx context.Context, ids []string) (map[string]int, error)
}

type Handler struct {
	listings ListingService
	hype     HypeService
	cacheTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewHandler(listings ListingService, hype HypeService, cacheTTL time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		listings: listings,
		hype:     hype,
		cacheTTL: cacheTTL,
		logger:   logger.With("component", "http"),
		now:      time.Now,
	}
}

type eventsRequest struct {
	Date string `json:"date"`
}

type countsRequest struct {
	EventIDs []string `json:"eventIds"`
}

type countsResponse struct {
	Counts map[string]int `json:"counts"`
}

type marathonResponse struct {
	DateKey string `json:"dateKey"`
	marathon.Plan
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Events serves the listing for ?date= (GET) or {"date"} (POST). A missing,
// malformed or unparsable date yields today's listing.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if r.Method == http.MethodPost {
		var body eventsRequest
		if err := decodeBody(r, &body); err != nil {
			h.logger.Debug("ignoring unreadable events body", "error", err)
		}
		raw = body.Date
	}

	listing := h.listings.GetEventsForDate(r.Context(), raw)

	h.setCacheHeader(w)
	JSON(w, http.StatusOK, listing)
}

func (h *Handler) EventsICS(w http.ResponseWriter, r *http.Request) {
	listing := h.listings.GetEventsForDate(r.Context(), r.URL.Query().Get("date"))

	h.setCacheHeader(w)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="vankino-%s.ics"`, listing.DateKey))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, ics.Export(listing, h.now()))
}

func (h *Handler) Marathon(w http.ResponseWriter, r *http.Request) {
	listing := h.listings.GetEventsForDate(r.Context(), r.URL.Query().Get("date"))

	h.setCacheHeader(w)
	JSON(w, http.StatusOK, marathonResponse{
		DateKey: listing.DateKey,
		Plan:    marathon.Build(listing.Events),
	})
}

func (h *Handler) Sources(w http.ResponseWriter, r *http.Request) {
	states, err := h.listings.States(r.Context())
	if err != nil {
		Err(w, r, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, states)
}

func (h *Handler) HypeCounts(w http.ResponseWriter, r *http.Request) {
	var body countsRequest
	if err := decodeBody(r, &body); err != nil {
		Err(w, r, h.logger, domain.ErrValidation("Invalid request body"))
		return
	}

	counts, err := h.hype.Counts(r.Context(), body.EventIDs)
	if err != nil {
		Err(w, r, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, countsResponse{Counts: counts})
}

func (h *Handler) HypeIncrement(w http.ResponseWriter, r *http.Request) {
	h.mutateHype(w, r, h.hype.Increment)
}

func (h *Handler) HypeDecrement(w http.ResponseWriter, r *http.Request) {
	h.mutateHype(w, r, h.hype.Decrement)
}

func (h *Handler) mutateHype(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.HypeRequest) (domain.HypeResult, error)) {
	var req domain.HypeRequest
	if err := decodeBody(r, &req); err != nil {
		Err(w, r, h.logger, domain.ErrValidation("Invalid request body"))
		return
	}

	result, err := op(r.Context(), req)
	if err != nil {
		Err(w, r, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, result)
}

func (h *Handler) setCacheHeader(w http.ResponseWriter) {
	if h.cacheTTL <= 0 {
		w.Header().Set("Cache-Control", "no-store")
		return
	}
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cacheTTL.Seconds())))
}

// decodeBody treats an empty body as an empty object.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
