package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/studentaffairs/portal/internal/api/problem"
	"github.com/studentaffairs/portal/internal/domain/events"
)

func eventsMux(h *EventsHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/events", h.List)
	mux.HandleFunc("GET /api/v1/events.ics", h.Feed)
	mux.HandleFunc("GET /api/v1/events/{id}", h.Get)
	mux.HandleFunc("GET /api/v1/events/{id}/calendar", h.Calendar)
	mux.HandleFunc("GET /api/v1/events/{id}/ics", h.ICS)
	return mux
}

func seededEvents() *memoryRepo {
	return newMemoryRepo(
		eventRecord(1, "Freshman Orientation", "2025-03-01", "Academic"),
		eventRecord(2, "Varsity Finals", "2025-03-10", "Sports"),
		eventRecord(3, "Career Fair", "2025-03-20", "Career"),
		events.Record{"id": int64(4)},
	)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestEventsListFiltersAndSkipsMalformed(t *testing.T) {
	mux := eventsMux(NewEventsHandler(newEventsService(seededEvents()), "test"))

	rec := get(t, mux, "/api/v1/events")
	require.Equal(t, http.StatusOK, rec.Code)

	var listing events.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Equal(t, 3, listing.Count)
	require.Equal(t, []string{"All", "Academic", "Career", "Sports"}, listing.Categories)
	require.Equal(t, events.StatusPast, listing.Items[0].Status)
	require.Equal(t, events.StatusOngoing, listing.Items[1].Status)
	require.Equal(t, events.StatusUpcoming, listing.Items[2].Status)
	require.Equal(t, events.DefaultPlaceholderImage, listing.Items[0].ImageURL)

	rec = get(t, mux, "/api/v1/events?timeframe=upcoming&q=career")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Equal(t, 1, listing.Count)
	require.Equal(t, int64(3), listing.Items[0].Event.ID)

	rec = get(t, mux, "/api/v1/events?category=sports")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Equal(t, 1, listing.Count)
}

func TestEventsListRejectsUnknownTimeframe(t *testing.T) {
	mux := eventsMux(NewEventsHandler(newEventsService(seededEvents()), "test"))

	rec := get(t, mux, "/api/v1/events?timeframe=someday")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body problem.ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Errors, "timeframe")
}

func TestEventsListStorageFailure(t *testing.T) {
	repo := seededEvents()
	repo.listErr = errBoom
	mux := eventsMux(NewEventsHandler(newEventsService(repo), "production"))

	rec := get(t, mux, "/api/v1/events")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "boom")
}

func TestEventsGet(t *testing.T) {
	mux := eventsMux(NewEventsHandler(newEventsService(seededEvents()), "test"))

	rec := get(t, mux, "/api/v1/events/2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Event       events.Event  `json:"event"`
		Status      events.Status `json:"status"`
		ImageURL    string        `json:"image_url"`
		CalendarURL string        `json:"calendar_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Varsity Finals", body.Event.Title)
	require.Equal(t, events.StatusOngoing, body.Status)
	require.Contains(t, body.CalendarURL, "dates=20250310T060000Z%2F20250310T080000Z")

	require.Equal(t, http.StatusNotFound, get(t, mux, "/api/v1/events/99").Code)
	require.Equal(t, http.StatusBadRequest, get(t, mux, "/api/v1/events/abc").Code)
	require.Equal(t, http.StatusNotFound, get(t, mux, "/api/v1/events/4").Code, "malformed row")
}

func TestEventsCalendarRedirect(t *testing.T) {
	mux := eventsMux(NewEventsHandler(newEventsService(seededEvents()), "test"))

	rec := get(t, mux, "/api/v1/events/3/calendar")
	require.Equal(t, http.StatusFound, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Location"), "https://www.google.com/calendar/render?action=TEMPLATE"))
}

func TestEventsICS(t *testing.T) {
	mux := eventsMux(NewEventsHandler(newEventsService(seededEvents()), "test"))

	rec := get(t, mux, "/api/v1/events/1/ics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, calendarContentType, rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "event-1.ics")
	body := rec.Body.String()
	require.Contains(t, body, "BEGIN:VCALENDAR")
	require.Equal(t, 1, strings.Count(body, "BEGIN:VEVENT"))

	rec = get(t, mux, "/api/v1/events.ics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, strings.Count(rec.Body.String(), "BEGIN:VEVENT"))
}
