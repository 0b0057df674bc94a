package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"", "unmatched"},
		{"/api/v1/events", "/api/v1/events"},
		{"GET /api/v1/events/{id}/ics", "/api/v1/events/{id}/ics"},
		{"POST  /api/v1/reminders/test", "/api/v1/reminders/test"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, routeLabel(tt.pattern), tt.pattern)
	}
}

func TestHTTPMiddlewareLabelsByRoute(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/events/{id}/calendar", HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://calendar.google.com/", http.StatusFound)
	})))

	counter := HTTPRequestsTotal.WithLabelValues("/api/v1/events/{id}/calendar", http.MethodGet, "302")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/"+id+"/calendar", nil))
		require.Equal(t, http.StatusFound, rec.Code)
	}

	require.Equal(t, before+2, testutil.ToFloat64(counter))
	require.Zero(t, testutil.ToFloat64(HTTPRequestsInFlight))
}

func TestStatusRecorder(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	require.Equal(t, http.StatusOK, rec.code())

	_, err := rec.Write([]byte("BEGIN:VCALENDAR"))
	require.NoError(t, err)
	rec.WriteHeader(http.StatusTeapot)

	require.Equal(t, http.StatusOK, rec.code(), "first status wins")
	require.Equal(t, len("BEGIN:VCALENDAR"), rec.bytes)
}
