package audit

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"benchbook.org/internal/auth"
	"benchbook.org/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// requestIDFromContext extracts the audit request id from context if present.
func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit entry enriched with request and user context.
// The event name doubles as the log message; extra fields are grouped under
// "fields" so log pipelines can filter on type=audit.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	attrs := []slog.Attr{
		slog.String("type", "audit"),
		slog.String("event", event),
	}
	if rid := requestIDFromContext(ctx); rid != "" {
		attrs = append(attrs, slog.String("request_id", rid))
	}
	if userID, ok := auth.UserIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String("user_id", userID))
	}
	if len(fields) > 0 {
		group := make([]any, 0, len(fields))
		for k, v := range fields {
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("fields", group...))
	}
	obs.Logger().LogAttrs(ctx, slog.LevelInfo, event, attrs...)
	return nil
}
