package events

import (
	"time"
)

// Event is a normalized campus event. Date is date-only (YYYY-MM-DD) and
// Time is free text; neither is combined until TimeRange is asked for.
type Event struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	LongDescription string    `json:"long_description,omitempty"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	Location        string    `json:"location"`
	Category        Category  `json:"category"`
	ImageFilename   string    `json:"image_filename,omitempty"`
	LegacyImageID   string    `json:"img_id,omitempty"`
	Requirements    []string  `json:"requirements"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// Details is the long description when present, else the short one.
func (e Event) Details() string {
	if e.LongDescription != "" {
		return e.LongDescription
	}
	return e.Description
}

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOngoing  Status = "ongoing"
	StatusPast     Status = "past"
)

// StatusOn compares the event date with today at day granularity. Dates that
// cannot be read count as upcoming so they stay visible.
func StatusOn(date string, today time.Time) Status {
	day, err := ParseEventDate(date, today.Location())
	if err != nil {
		return StatusUpcoming
	}
	y, m, d := today.Date()
	todayMidnight := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	switch {
	case day.Equal(todayMidnight):
		return StatusOngoing
	case day.After(todayMidnight):
		return StatusUpcoming
	default:
		return StatusPast
	}
}
