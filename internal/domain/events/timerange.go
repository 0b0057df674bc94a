package events

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

const dateLayout = "2006-01-02"

// TimeRange is the concrete span derived from an event's date and free-text
// time. It is never persisted.
type TimeRange struct {
	Start  time.Time
	End    time.Time
	AllDay bool
}

var clockPattern = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)

var rangeSeparators = []string{"-", "–", "—"}

var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}`)

// ParseEventDate reads a date-only value in loc. A value that starts like
// YYYY-MM-DD must name a real calendar day; anything else goes through the
// natural-language parser.
func ParseEventDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if prefix := isoDatePrefix.FindString(value); prefix != "" {
		parsed, err := time.ParseInLocation("2006-1-2", prefix, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
		}
		return parsed, nil
	}

	parsed, err := dateparser.Parse(&dateparser.Configuration{DefaultTimezone: loc}, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	t := parsed.Time.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// ParseTimeRange places a free-text time of day on day. It never fails:
// missing or unreadable text yields the whole day.
func ParseTimeRange(day time.Time, text string) TimeRange {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	text = strings.TrimSpace(text)

	var start, end *time.Time
	if startText, endText, ok := splitRange(text); ok {
		if h, m, ok := parseClock(startText); ok {
			t := midnight.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
			start = &t
		}
		if h, m, ok := parseClock(endText); ok {
			t := midnight.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
			end = &t
		}
	} else if text != "" {
		if h, m, ok := parseClock(text); ok {
			t := midnight.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
			start = &t
		}
	}

	if start == nil {
		return TimeRange{Start: midnight, End: midnight.AddDate(0, 0, 1), AllDay: true}
	}
	if end == nil {
		t := start.Add(time.Hour)
		end = &t
	}
	return TimeRange{Start: *start, End: *end}
}

// TimeRange derives the event span in loc. The error is only about the date;
// the time of day degrades silently.
func (e Event) TimeRange(loc *time.Location) (TimeRange, error) {
	day, err := ParseEventDate(e.Date, loc)
	if err != nil {
		return TimeRange{}, err
	}
	return ParseTimeRange(day, e.Time), nil
}

func splitRange(text string) (string, string, bool) {
	for _, sep := range rangeSeparators {
		if before, after, found := strings.Cut(text, sep); found {
			return strings.TrimSpace(before), strings.TrimSpace(after), true
		}
	}
	return "", "", false
}

// parseClock reads H[:MM][ AM|PM]. Without a marker the hour is 24-hour.
func parseClock(text string) (int, int, bool) {
	match := clockPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, 0, false
	}
	minute := 0
	if match[2] != "" {
		minute, err = strconv.Atoi(match[2])
		if err != nil || minute > 59 {
			return 0, 0, false
		}
	}

	switch strings.ToLower(match[3]) {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, false
		}
	}
	return hour, minute, true
}
