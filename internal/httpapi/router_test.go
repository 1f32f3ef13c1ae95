package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vankino/internal/domain"
)

type fakeListings struct {
	mu       sync.Mutex
	requests []string
	states   []domain.VenueState
	err      error
}

func (f *fakeListings) GetEventsForDate(_ context.Context, raw string) *domain.DayListing {
	f.mu.Lock()
	f.requests = append(f.requests, raw)
	f.mu.Unlock()

	key := raw
	if key == "" || key == "garbage" {
		key = "2024-03-10"
	}
	start := time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC)
	return &domain.DayListing{
		DateKey: key,
		DateISO: "2024-03-10T19:00:00.000Z",
		Events: []domain.CalendarEvent{
			{Start: start, End: start.Add(2 * time.Hour), Title: "Jaws", ResourceID: "rio-theatre", VenueKey: domain.VenueRio, EventType: "Film"},
			{Start: start.Add(time.Hour), End: start.Add(3 * time.Hour), Title: "Alien", ResourceID: "rio-theatre", VenueKey: domain.VenueRio, EventType: "Film"},
		},
	}
}

func (f *fakeListings) States(context.Context) ([]domain.VenueState, error) {
	return f.states, f.err
}

func (f *fakeListings) lastRequest() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type fakeHype struct {
	counts map[string]int
	err    error
}

func (f *fakeHype) Increment(_ context.Context, req domain.HypeRequest) (domain.HypeResult, error) {
	if strings.TrimSpace(req.EventID) == "" {
		return domain.HypeResult{}, domain.ErrMissingEventID
	}
	if f.err != nil {
		return domain.HypeResult{}, f.err
	}
	f.counts[req.EventID]++
	return domain.HypeResult{EventID: req.EventID, HypeCount: f.counts[req.EventID]}, nil
}

func (f *fakeHype) Decrement(_ context.Context, req domain.HypeRequest) (domain.HypeResult, error) {
	if strings.TrimSpace(req.EventID) == "" {
		return domain.HypeResult{}, domain.ErrMissingEventID
	}
	if f.counts[req.EventID] > 0 {
		f.counts[req.EventID]--
	}
	return domain.HypeResult{EventID: req.EventID, HypeCount: f.counts[req.EventID]}, nil
}

func (f *fakeHype) Counts(_ context.Context, ids []string) (map[string]int, error) {
	out := map[string]int{}
	for _, id := range ids {
		out[id] = f.counts[id]
	}
	return out, nil
}

type testServer struct {
	listings *fakeListings
	hype     *fakeHype
	handler  http.Handler
}

func newTestServer(rateLimit int) *testServer {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	ts := &testServer{
		listings: &fakeListings{},
		hype:     &fakeHype{counts: map[string]int{}},
	}
	h := NewHandler(ts.listings, ts.hype, 15*time.Minute, logger)
	ts.handler = NewRouter(h, RouterConfig{
		HypeRateLimit: rateLimit,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	}, logger)
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestEvents_GetAndPost(t *testing.T) {
	ts := newTestServer(0)

	rec := ts.do(http.MethodGet, "/api/events?date=2024-03-12", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-03-12", ts.listings.lastRequest())
	assert.Equal(t, "public, max-age=900", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get(HeaderXRequestID))

	var listing domain.DayListing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Equal(t, "2024-03-12", listing.DateKey)
	assert.Len(t, listing.Events, 2)

	rec = ts.do(http.MethodPost, "/api/events", `{"date":"2024-03-13"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-03-13", ts.listings.lastRequest())

	rec = ts.do(http.MethodPost, "/api/events", `not json`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", ts.listings.lastRequest())

	rec = ts.do(http.MethodPost, "/api/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestEvents_RequestIDPropagates(t *testing.T) {
	ts := newTestServer(0)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set(HeaderXRequestID, "req-123")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(HeaderXRequestID))
}

func TestEventsICS(t *testing.T) {
	ts := newTestServer(0)

	rec := ts.do(http.MethodGet, "/api/events/ics?date=2024-03-10", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "vankino-2024-03-10.ics")
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
	assert.Equal(t, 2, strings.Count(rec.Body.String(), "BEGIN:VEVENT"))
}

func TestMarathon(t *testing.T) {
	ts := newTestServer(0)

	rec := ts.do(http.MethodGet, "/api/marathon?date=2024-03-10", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		DateKey  string                 `json:"dateKey"`
		Schedule []domain.CalendarEvent `json:"schedule"`
		Stats    struct {
			FilmCount int `json:"filmCount"`
		} `json:"stats"`
		ScreenTime string `json:"screenTime"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2024-03-10", body.DateKey)
	// the two screenings overlap
	assert.Equal(t, 1, body.Stats.FilmCount)
	assert.Equal(t, "2h", body.ScreenTime)
}

func TestHype_Flow(t *testing.T) {
	ts := newTestServer(0)

	rec := ts.do(http.MethodPost, "/api/hype/increment", `{"eventId":"abc","title":"Jaws","theatre":"rio"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"eventId":"abc","hypeCount":1}`, rec.Body.String())

	rec = ts.do(http.MethodPost, "/api/hype/counts", `{"eventIds":["abc","zzz"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"counts":{"abc":1,"zzz":0}}`, rec.Body.String())

	rec = ts.do(http.MethodPost, "/api/hype/decrement", `{"eventId":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"eventId":"abc","hypeCount":0}`, rec.Body.String())
}

func TestHype_MissingEventID(t *testing.T) {
	ts := newTestServer(0)

	for _, path := range []string{"/api/hype/increment", "/api/hype/decrement"} {
		rec := ts.do(http.MethodPost, path, `{"eventId":"   "}`)
		require.Equal(t, http.StatusBadRequest, rec.Code, path)

		var body ErrorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "validation_error", body.Error.Code)
		assert.Equal(t, "Missing eventId", body.Error.Message)
		assert.NotEmpty(t, body.Error.RequestID)
	}
}

func TestHype_InvalidBody(t *testing.T) {
	ts := newTestServer(0)

	rec := ts.do(http.MethodPost, "/api/hype/counts", `{"eventIds":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestHype_InternalErrorHidesDetails(t *testing.T) {
	ts := newTestServer(0)
	ts.hype.err = errors.New("pq: password authentication failed")

	rec := ts.do(http.MethodPost, "/api/hype/increment", `{"eventId":"abc"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestHype_RateLimited(t *testing.T) {
	ts := newTestServer(2)

	for i := 0; i < 2; i++ {
		rec := ts.do(http.MethodPost, "/api/hype/increment", `{"eventId":"abc"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := ts.do(http.MethodPost, "/api/hype/increment", `{"eventId":"abc"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = ts.do(http.MethodPost, "/api/hype/counts", `{"eventIds":["abc"]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSources(t *testing.T) {
	ts := newTestServer(0)
	ts.listings.states = []domain.VenueState{{SourceID: "rio", TotalFetches: 3}}

	rec := ts.do(http.MethodGet, "/api/sources", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sourceId":"rio"`)

	ts.listings.err = errors.New("db down")
	rec = ts.do(http.MethodGet, "/api/sources", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	ts := newTestServer(0)

	rec := ts.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())
}
