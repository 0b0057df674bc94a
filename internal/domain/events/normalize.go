package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is an untyped row as read from storage.
type Record map[string]any

// NormalizeRecord shapes a stored row into an Event. Missing optional fields
// default; a row without a usable id or title is rejected so read paths can
// log and skip it.
func NormalizeRecord(raw Record) (Event, error) {
	var verrs ValidationErrors

	id, err := int64Field(raw["id"])
	if err != nil {
		verrs = append(verrs, ValidationError{Field: "id", Message: err.Error()})
	}

	e := Event{
		ID:              id,
		Title:           stringField(raw["title"]),
		Description:     stringField(raw["description"]),
		LongDescription: stringField(raw["long_description"]),
		Date:            dateField(raw["date"]),
		Time:            stringField(raw["time"]),
		Location:        stringField(raw["location"]),
		Category:        CategoryFromAny(raw["category"]),
		ImageFilename:   stringField(raw["image_filename"]),
		LegacyImageID:   stringField(raw["img_id"]),
		Requirements:    requirementsField(raw["requirements"]),
		CreatedAt:       timeField(raw["created_at"]),
		UpdatedAt:       timeField(raw["updated_at"]),
	}
	if e.Title == "" {
		verrs = append(verrs, ValidationError{Field: "title", Message: "missing"})
	}
	if len(verrs) > 0 {
		return Event{}, verrs
	}
	return e, nil
}

func int64Field(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return positive(n)
	case int32:
		return positive(int64(n))
	case int:
		return positive(int64(n))
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("not an integer")
		}
		return positive(int64(n))
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("not an integer")
		}
		return positive(parsed)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer")
		}
		return positive(parsed)
	case nil:
		return 0, fmt.Errorf("missing")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func positive(n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return n, nil
}

func stringField(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case *string:
		if s == nil {
			return ""
		}
		return strings.TrimSpace(*s)
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	default:
		return ""
	}
}

func dateField(v any) string {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return ""
		}
		return d.Format(dateLayout)
	case *time.Time:
		if d == nil || d.IsZero() {
			return ""
		}
		return d.Format(dateLayout)
	default:
		return stringField(v)
	}
}

func timeField(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func requirementsField(v any) []string {
	out := make([]string, 0)
	switch list := v.(type) {
	case []string:
		for _, item := range list {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					out = append(out, trimmed)
				}
			}
		}
	}
	return out
}
