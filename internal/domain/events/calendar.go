package events

import (
	"net/url"
	"time"
)

const (
	googleCalendarTemplate = "https://www.google.com/calendar/render"
	googleCalendarFallback = "https://www.google.com/calendar"

	calendarStampLayout = "20060102T150405Z"
)

// GoogleCalendarURL builds an "add event" deep link. It falls back to the
// calendar home page when the event date cannot be read.
func GoogleCalendarURL(e Event, loc *time.Location) string {
	span, err := e.TimeRange(loc)
	if err != nil {
		return googleCalendarFallback
	}

	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", e.Title)
	params.Set("dates", span.Start.UTC().Format(calendarStampLayout)+"/"+span.End.UTC().Format(calendarStampLayout))
	params.Set("details", e.Details())
	params.Set("location", e.Location)

	return googleCalendarTemplate + "?" + params.Encode()
}
