// Package reminders decides whether an event starts tomorrow and, if so,
// sends a single reminder email.
package reminders

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/studentaffairs/portal/internal/clock"
	"github.com/studentaffairs/portal/internal/domain/events"
	"github.com/studentaffairs/portal/internal/email"
	"github.com/studentaffairs/portal/internal/metrics"
	"github.com/studentaffairs/portal/internal/telemetry"
)

type Reason string

const (
	ReasonNoUserEmail         Reason = "no_user_email"
	ReasonNoStartDate         Reason = "no_start_date"
	ReasonNotTomorrow         Reason = "not_tomorrow"
	ReasonResendNotConfigured Reason = "resend_not_configured"
	ReasonResendError         Reason = "resend_error"
	ReasonResendFetchError    Reason = "resend_fetch_error"
)

// Result is either Sent or carries the reason nothing was sent.
type Result struct {
	Sent   bool   `json:"sent"`
	Reason Reason `json:"reason,omitempty"`
	Status int    `json:"status,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (r Result) outcome() string {
	if r.Sent {
		return "sent"
	}
	return string(r.Reason)
}

// Sender delivers one message. *email.Service satisfies it.
type Sender interface {
	Send(ctx context.Context, msg email.Message) error
}

// Evaluator is safe for concurrent use. A nil sender means the transport
// is not configured.
type Evaluator struct {
	sender Sender
	from   string
	clock  clock.Clock
	loc    *time.Location
	logger zerolog.Logger
}

func NewEvaluator(sender Sender, from string, clk clock.Clock, loc *time.Location, logger zerolog.Logger) *Evaluator {
	if clk == nil {
		clk = clock.System()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Evaluator{
		sender: sender,
		from:   from,
		clock:  clk,
		loc:    loc,
		logger: logger.With().Str("component", "reminders").Logger(),
	}
}

// Evaluate checks recipient, start date, tomorrow and transport in that
// order, then makes at most one send attempt.
func (ev *Evaluator) Evaluate(ctx context.Context, e events.Event, recipient string) Result {
	ctx, span := telemetry.StartSpan(ctx, "reminders.Evaluate", attribute.Int64("event.id", e.ID))
	result := ev.evaluate(ctx, e, strings.TrimSpace(recipient))
	span.SetAttributes(attribute.String("reminder.outcome", result.outcome()))
	telemetry.EndSpan(span, nil)

	metrics.RemindersTotal.WithLabelValues(result.outcome()).Inc()
	return result
}

func (ev *Evaluator) evaluate(ctx context.Context, e events.Event, recipient string) Result {
	if recipient == "" {
		return Result{Reason: ReasonNoUserEmail}
	}

	span, err := e.TimeRange(ev.loc)
	if err != nil {
		return Result{Reason: ReasonNoStartDate}
	}

	if !IsTomorrow(span.Start, ev.clock.Now(), ev.loc) {
		return Result{Reason: ReasonNotTomorrow}
	}

	msg, err := Compose(e, span, ev.from)
	if err != nil {
		return Result{Reason: ReasonResendError, Detail: err.Error()}
	}
	msg.To = recipient

	if ev.sender == nil {
		ev.logger.Info().
			Str("to", recipient).
			Str("subject", msg.Subject).
			Msg("email transport not configured, reminder not sent")
		return Result{Reason: ReasonResendNotConfigured}
	}

	if err := ev.sender.Send(ctx, msg); err != nil {
		if errors.Is(err, email.ErrNotConfigured) {
			return Result{Reason: ReasonResendNotConfigured}
		}
		var delivery *email.DeliveryError
		if errors.As(err, &delivery) && delivery.Status != 0 {
			ev.logger.Error().Int("status", delivery.Status).Str("detail", delivery.Detail).Int64("event_id", e.ID).Msg("reminder rejected by transport")
			return Result{Reason: ReasonResendError, Status: delivery.Status, Detail: delivery.Detail}
		}
		ev.logger.Error().Err(err).Int64("event_id", e.ID).Msg("reminder send failed")
		return Result{Reason: ReasonResendFetchError, Detail: err.Error()}
	}

	return Result{Sent: true}
}

// IsTomorrow reports whether start falls on the calendar day after now,
// both read in loc.
func IsTomorrow(start, now time.Time, loc *time.Location) bool {
	y, m, d := now.In(loc).Date()
	tomorrow := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	sy, sm, sd := start.In(loc).Date()
	ty, tm, td := tomorrow.Date()
	return sy == ty && sm == tm && sd == td
}

const startLayout = "Monday, January 2, 2006 at 3:04 PM"

var htmlBody = template.Must(template.New("reminder").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333; margin-bottom: 20px;">Event Reminder</h2>
  <div style="background-color: #f5f5f5; padding: 15px; border-radius: 8px; margin-bottom: 20px;">
    <p style="margin: 0 0 10px 0;"><strong>Event:</strong> {{.Title}}</p>
    <p style="margin: 0 0 10px 0;"><strong>Date &amp; Time:</strong> {{.Start}}</p>
    <p style="margin: 0;"><strong>Location:</strong> {{.Location}}</p>
  </div>
</div>
`))

type bodyData struct {
	Title    string
	Start    string
	Location string
	Details  string
}

// Compose renders the reminder. Interpolated values are HTML-escaped in the
// HTML part; the subject has line breaks removed.
func Compose(e events.Event, span events.TimeRange, from string) (email.Message, error) {
	data := bodyData{
		Title:    e.Title,
		Start:    span.Start.Format(startLayout),
		Location: e.Location,
		Details:  e.Details(),
	}
	if data.Title == "" {
		data.Title = "Event"
	}
	if data.Location == "" {
		data.Location = "TBA"
	}
	if span.AllDay {
		data.Start = span.Start.Format("Monday, January 2, 2006") + " (all day)"
	}

	var html bytes.Buffer
	if err := htmlBody.Execute(&html, data); err != nil {
		return email.Message{}, fmt.Errorf("render reminder: %w", err)
	}

	subject := fmt.Sprintf("Reminder: %s starts tomorrow", strings.Join(strings.Fields(data.Title), " "))
	text := fmt.Sprintf("Reminder: %s starts on %s\n\nLocation: %s\n\n%s", data.Title, data.Start, data.Location, data.Details)

	return email.Message{
		From:    from,
		Subject: subject,
		HTML:    html.String(),
		Text:    text,
	}, nil
}
