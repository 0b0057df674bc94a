// Package audit records admin mutations as structured log entries.
package audit

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Entry is one admin action.
type Entry struct {
	Timestamp    time.Time         `json:"timestamp"`
	Action       string            `json:"action"`
	Actor        string            `json:"actor"`
	ResourceType string            `json:"resource_type,omitempty"`
	ResourceID   string            `json:"resource_id,omitempty"`
	IPAddress    string            `json:"ip_address,omitempty"`
	Status       Status            `json:"status"`
	Details      map[string]string `json:"details,omitempty"`
}

// Logger writes entries under the "audit" key. A nil *Logger discards.
type Logger struct {
	logger zerolog.Logger
	now    func() time.Time
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{
		logger: logger.With().Str("component", "audit").Logger(),
		now:    time.Now,
	}
}

func (l *Logger) Log(ctx context.Context, entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}
	if entry.Actor == "" {
		entry.Actor = "unknown"
	}

	logger := l.logger
	if ctxLogger := zerolog.Ctx(ctx); ctxLogger.GetLevel() != zerolog.Disabled {
		logger = ctxLogger.With().Str("component", "audit").Logger()
	}

	level := zerolog.InfoLevel
	if entry.Status == StatusFailure {
		level = zerolog.WarnLevel
	}
	logger.WithLevel(level).Interface("audit", entry).Msg(entry.Action)
}

// LogRequest fills the client address from r and logs the entry.
func (l *Logger) LogRequest(r *http.Request, entry Entry) {
	if entry.IPAddress == "" {
		entry.IPAddress = clientIP(r)
	}
	l.Log(r.Context(), entry)
}

// clientIP reads RemoteAddr only. Forwarded headers are resolved by the rate
// limiter, which knows the trusted proxies.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
