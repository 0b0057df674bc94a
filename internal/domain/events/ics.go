package events

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/rs/zerolog"
)

const icsProductID = "-//Student Affairs//Event Portal//EN"

// WriteICS serializes events as a PUBLISH calendar. Events whose date cannot
// be read are skipped.
func WriteICS(w io.Writer, items []Event, loc *time.Location, now time.Time, host string, logger zerolog.Logger) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)

	for _, e := range items {
		span, err := e.TimeRange(loc)
		if err != nil {
			logger.Warn().Err(err).Int64("event_id", e.ID).Msg("skipping event in calendar export")
			continue
		}

		vevent := cal.AddEvent(fmt.Sprintf("event-%d@%s", e.ID, host))
		vevent.SetDtStampTime(now.UTC())
		if span.AllDay {
			vevent.SetAllDayStartAt(span.Start)
			vevent.SetAllDayEndAt(span.End)
		} else {
			vevent.SetStartAt(span.Start.UTC())
			vevent.SetEndAt(icsEnd(span).UTC())
		}
		vevent.SetSummary(e.Title)
		if details := e.Details(); details != "" {
			vevent.SetDescription(details)
		}
		if e.Location != "" {
			vevent.SetLocation(e.Location)
		}
		if e.Category.HasName() {
			vevent.AddProperty(ical.ComponentPropertyCategories, e.Category.Label())
		}
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	return nil
}

// icsEnd keeps DTEND after DTSTART. A range that wraps past midnight ends on
// the next day; an empty range lasts an hour.
func icsEnd(span TimeRange) time.Time {
	switch {
	case span.End.After(span.Start):
		return span.End
	case span.End.Equal(span.Start):
		return span.Start.Add(time.Hour)
	default:
		return span.End.AddDate(0, 0, 1)
	}
}
