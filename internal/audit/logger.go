package audit

import (
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Entry represents a single audit log entry with structured fields
type Entry struct {
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Status       string // "success" or "failure"
	Details      map[string]string
}

// Logger records destructive operations on a dedicated zerolog stream
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a new audit logger
func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger.With().Str("component", "audit").Logger()}
}

func (l *Logger) log(base zerolog.Logger, entry Entry) {
	event := base.Info()
	if entry.Status == "failure" {
		event = base.Warn()
	}
	event = event.
		Bool("audit", true).
		Str("action", entry.Action).
		Str("status", entry.Status).
		Str("ip_address", entry.IPAddress)
	if entry.ResourceType != "" {
		event = event.Str("resource_type", entry.ResourceType)
	}
	if entry.ResourceID != "" {
		event = event.Str("resource_id", entry.ResourceID)
	}
	if len(entry.Details) > 0 {
		dict := zerolog.Dict()
		for k, v := range entry.Details {
			dict = dict.Str(k, v)
		}
		event = event.Dict("details", dict)
	}
	event.Msg("audit")
}

// Log writes an audit entry to the log output
func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	l.log(l.logger, entry)
}

// LogFromRequest logs an action taken by the client of r. When the request
// carries a logger (see middleware.CorrelationID) the entry is written
// through it so that it shares the request_id field.
func (l *Logger) LogFromRequest(r *http.Request, action, resourceType, resourceID, status string, details map[string]string) {
	if l == nil {
		return
	}
	base := l.logger
	if reqLogger := zerolog.Ctx(r.Context()); reqLogger.GetLevel() != zerolog.Disabled {
		base = reqLogger.With().Str("component", "audit").Logger()
	}
	l.log(base, Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    extractClientIP(r),
		Status:       status,
		Details:      details,
	})
}

// extractClientIP gets the client IP from request headers or RemoteAddr
func extractClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
