package events

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/studentaffairs/portal/internal/sanitize"
)

// Payload is an admin create/update request body.
type Payload struct {
	Title           string   `json:"title" validate:"min=3"`
	Description     string   `json:"description" validate:"min=10"`
	LongDescription string   `json:"long_description,omitempty"`
	Date            string   `json:"date" validate:"required,eventdate"`
	Time            string   `json:"time" validate:"required"`
	Location        string   `json:"location" validate:"required"`
	Category        string   `json:"category,omitempty"`
	ImageFilename   string   `json:"image_filename,omitempty"`
	Requirements    []string `json:"requirements"`
}

var fieldMessages = map[string]string{
	"title.min":         "Title must be at least 3 characters.",
	"description.min":   "Description must be at least 10 characters.",
	"date.required":     "Date is required.",
	"date.eventdate":    "Date must be a valid calendar date.",
	"time.required":     "Time is required.",
	"location.required": "Location is required.",
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func payloadValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("eventdate", func(fl validator.FieldLevel) bool {
			_, err := ParseEventDate(fl.Field().String(), time.UTC)
			return err == nil
		})
		validate = v
	})
	return validate
}

// Normalize strips markup, trims, validates, and canonicalizes the date to
// YYYY-MM-DD. Every failing field is reported in ValidationErrors.
func (p Payload) Normalize() (Payload, error) {
	out := Payload{
		Title:           sanitize.PlainText(p.Title),
		Description:     sanitize.PlainText(p.Description),
		LongDescription: sanitize.PlainText(p.LongDescription),
		Date:            strings.TrimSpace(p.Date),
		Time:            sanitize.PlainText(p.Time),
		Location:        sanitize.PlainText(p.Location),
		Category:        sanitize.PlainText(p.Category),
		ImageFilename:   strings.TrimSpace(p.ImageFilename),
		Requirements:    sanitize.TextSlice(p.Requirements),
	}

	if err := payloadValidator().Struct(out); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Payload{}, err
		}
		verrs := make(ValidationErrors, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			verrs = append(verrs, ValidationError{Field: fe.Field(), Message: messageFor(fe)})
		}
		return Payload{}, verrs.sorted()
	}

	if strings.Contains(out.ImageFilename, "..") || strings.HasPrefix(out.ImageFilename, "/") {
		return Payload{}, ValidationErrors{{Field: "image_filename", Message: "Image filename must be a relative object path."}}
	}

	day, _ := ParseEventDate(out.Date, time.UTC)
	out.Date = day.Format(dateLayout)
	return out, nil
}

func messageFor(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fe.Field() + " failed " + fe.Tag()
}
