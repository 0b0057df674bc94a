package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/resend/resend-go/v2"
)

type statusKey struct{}

// statusTransport records the provider's HTTP status into the request
// context so failures can report it; the SDK only surfaces a message.
type statusTransport struct {
	next http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if holder, ok := req.Context().Value(statusKey{}).(*int); ok && resp != nil {
		*holder = resp.StatusCode
	}
	return resp, err
}

// Send hands the message to Resend. Rate limits are reported, not retried.
func (s *Service) Send(ctx context.Context, msg Message) error {
	if s == nil || s.client == nil {
		return ErrNotConfigured
	}
	if err := validateEmailAddress(msg.To); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	from := msg.From
	if from == "" {
		from = s.from
	}
	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: strings.NewReplacer("\r", " ", "\n", " ").Replace(msg.Subject),
		Html:    msg.HTML,
		Text:    msg.Text,
	}

	var status int
	sent, err := s.client.Emails.SendWithContext(context.WithValue(ctx, statusKey{}, &status), params)
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			s.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("remaining", rateLimitErr.Remaining).
				Str("reset", rateLimitErr.Reset).
				Msg("resend rate limit exceeded")
			return &DeliveryError{
				Status: http.StatusTooManyRequests,
				Detail: fmt.Sprintf("rate limit exceeded (limit: %s, resets in: %s seconds)", rateLimitErr.Limit, rateLimitErr.Reset),
				Err:    err,
			}
		}
		s.logger.Error().Err(err).Int("status", status).Msg("resend API error")
		return &DeliveryError{Status: status, Detail: err.Error(), Err: err}
	}

	s.logger.Info().
		Str("email_id", sent.Id).
		Str("to", msg.To).
		Msg("email sent via Resend")
	return nil
}
