package events

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// AllCategories is the neutral category selection.
const AllCategories = "All"

type Timeframe string

const (
	TimeframeAll      Timeframe = "all"
	TimeframeUpcoming Timeframe = "upcoming"
	TimeframeOngoing  Timeframe = "ongoing"
	TimeframePast     Timeframe = "past"
)

// ListFilter is the live filter state of a listing. The zero value matches
// everything.
type ListFilter struct {
	Search    string
	Category  string
	Timeframe Timeframe
}

// Listed is an event decorated with its read-time derivations.
type Listed struct {
	Event    Event  `json:"event"`
	ImageURL string `json:"image_url"`
	Status   Status `json:"status"`
}

// ParseListFilter reads q, category and timeframe query parameters.
func ParseListFilter(values url.Values) (ListFilter, error) {
	f := ListFilter{
		Search:   strings.TrimSpace(values.Get("q")),
		Category: strings.TrimSpace(values.Get("category")),
	}
	switch tf := Timeframe(strings.ToLower(strings.TrimSpace(values.Get("timeframe")))); tf {
	case "", TimeframeAll:
		f.Timeframe = TimeframeAll
	case TimeframeUpcoming, TimeframeOngoing, TimeframePast:
		f.Timeframe = tf
	default:
		return ListFilter{}, FilterError{Field: "timeframe", Message: "must be one of all, upcoming, ongoing, past"}
	}
	return f, nil
}

// Filter keeps the items matching search, category and timeframe together.
// Input order is preserved and the result never aliases items.
func Filter(items []Listed, f ListFilter, today time.Time) []Listed {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	category := strings.TrimSpace(f.Category)
	if strings.EqualFold(category, AllCategories) {
		category = ""
	}

	out := make([]Listed, 0, len(items))
	for _, item := range items {
		if category != "" && !strings.EqualFold(item.Event.Category.Label(), category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Event.Title), search) &&
			!strings.Contains(strings.ToLower(item.Event.Description), search) {
			continue
		}
		if f.Timeframe != "" && f.Timeframe != TimeframeAll {
			if Timeframe(StatusOn(item.Event.Date, today)) != f.Timeframe {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

// Categories lists "All" followed by the sorted distinct labels present.
func Categories(items []Listed) []string {
	seen := make(map[string]struct{})
	labels := make([]string, 0)
	for _, item := range items {
		if !item.Event.Category.HasName() {
			continue
		}
		label := item.Event.Category.Label()
		key := strings.ToLower(label)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		labels = append(labels, label)
	}
	sort.SliceStable(labels, func(i, j int) bool {
		return strings.ToLower(labels[i]) < strings.ToLower(labels[j])
	})
	return append([]string{AllCategories}, labels...)
}

// SortByDate orders events ascending by date in place. Unreadable dates sort
// last and keep their relative order.
func SortByDate(items []Event, loc *time.Location) {
	type keyed struct {
		event Event
		day   time.Time
		ok    bool
	}
	rows := make([]keyed, len(items))
	for i, e := range items {
		day, err := ParseEventDate(e.Date, loc)
		rows[i] = keyed{event: e, day: day, ok: err == nil}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ok != rows[j].ok {
			return rows[i].ok
		}
		return rows[i].ok && rows[i].day.Before(rows[j].day)
	})
	for i := range rows {
		items[i] = rows[i].event
	}
}
