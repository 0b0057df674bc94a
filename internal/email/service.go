package email

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/studentaffairs/portal/internal/config"
)

// ErrNotConfigured is returned by NewService when no API key is set.
var ErrNotConfigured = errors.New("email transport not configured")

// Message is one transactional email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// DeliveryError describes a failed hand-off to the transport. Status is the
// HTTP status from the provider, or 0 when no response arrived.
type DeliveryError struct {
	Status int
	Detail string
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("email delivery failed: %s", e.Detail)
	}
	return fmt.Sprintf("email delivery failed with status %d: %s", e.Status, e.Detail)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Service sends email through Resend. It performs exactly one request per
// Send and never retries.
type Service struct {
	client *resend.Client
	from   string
	logger zerolog.Logger
}

// NewService builds a Resend-backed sender. Without an API key it returns
// ErrNotConfigured, which callers treat as a valid "disabled" state.
func NewService(cfg config.EmailConfig, defaultFrom string, logger zerolog.Logger) (*Service, error) {
	if strings.TrimSpace(cfg.ResendAPIKey) == "" {
		return nil, ErrNotConfigured
	}

	from := cfg.From
	if from == "" {
		from = defaultFrom
	}
	if err := validateEmailAddress(from); err != nil {
		return nil, fmt.Errorf("invalid sender email in config: %w", err)
	}

	httpClient := &http.Client{
		Timeout:   15 * time.Second,
		Transport: statusTransport{next: http.DefaultTransport},
	}
	client := resend.NewCustomClient(httpClient, cfg.ResendAPIKey)
	if cfg.ResendBaseURL != "" {
		baseURL, err := url.Parse(strings.TrimRight(cfg.ResendBaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid resend base url: %w", err)
		}
		client.BaseURL = baseURL
	}

	return &Service{
		client: client,
		from:   from,
		logger: logger.With().Str("component", "email").Logger(),
	}, nil
}

// From is the sender address used when a message leaves From empty.
func (s *Service) From() string { return s.from }

// DefaultFrom derives no-reply@<host> from the public base URL.
func DefaultFrom(baseURL string) string {
	host := "localhost"
	if u, err := url.Parse(baseURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	return "no-reply@" + host
}

// validateEmailAddress validates an email address for format and header injection attempts
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}
