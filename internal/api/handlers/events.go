package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/studentaffairs/portal/internal/api/problem"
	"github.com/studentaffairs/portal/internal/domain/events"
)

const calendarContentType = "text/calendar; charset=utf-8"

type EventsHandler struct {
	Service *events.Service
	Env     string
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

type eventResponse struct {
	events.Listed
	CalendarURL string `json:"calendar_url"`
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := events.ParseListFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	listing, err := h.Service.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{Listed: item, CalendarURL: h.Service.CalendarURL(item.Event)})
}

// Calendar redirects to the external "add to calendar" page.
func (h *EventsHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}
	http.Redirect(w, r, h.Service.CalendarURL(item.Event), http.StatusFound)
}

// ICS serves a single event as an iCalendar attachment.
func (h *EventsHandler) ICS(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.writeCalendar(w, r, fmt.Sprintf("event-%d.ics", item.Event.ID), []events.Event{item.Event})
}

// Feed serves every event as one subscribable calendar.
func (h *EventsHandler) Feed(w http.ResponseWriter, r *http.Request) {
	all, err := h.Service.All(r.Context())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.writeCalendar(w, r, "events.ics", all)
}

func (h *EventsHandler) writeCalendar(w http.ResponseWriter, r *http.Request, filename string, items []events.Event) {
	var buf bytes.Buffer
	if err := h.Service.WriteCalendar(r.Context(), &buf, items); err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServer, "Server error", err, h.Env)
		return
	}
	w.Header().Set("Content-Type", calendarContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *EventsHandler) lookup(w http.ResponseWriter, r *http.Request) (events.Listed, bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.Env)
		return events.Listed{}, false
	}
	item, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.Env)
		return events.Listed{}, false
	}
	return item, true
}
