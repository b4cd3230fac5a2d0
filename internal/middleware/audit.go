package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"arkive/internal/model"
)

type auditRecorder interface {
	Record(entry model.AuditEntry)
}

// Audit records one entry per request after the response is written. The
// action is the matched route pattern, e.g. "POST /api/v1/auth/login".
func Audit(recorder auditRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			slot := &principalSlot{}
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), principalSlotKey, slot)))

			principal := slot.get()
			entry := model.AuditEntry{
				OccurredAt:  started.UTC(),
				UserID:      principal.UserID,
				Username:    principal.Username,
				HTTPMethod:  r.Method,
				RequestURI:  r.URL.Path,
				QueryString: r.URL.RawQuery,
				Action:      routeAction(r),
				StatusCode:  wrapped.status,
				IPAddress:   ClientIP(r),
				UserAgent:   r.UserAgent(),
				DurationMS:  time.Since(started).Milliseconds(),
				Success:     wrapped.status < http.StatusBadRequest,
			}
			if parsed, ok := parseErrorBody(wrapped.body.Bytes()); ok {
				entry.ErrorCode = parsed.Errors.Code
			}

			recorder.Record(entry)
		})
	}
}

func routeAction(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.Method + " " + r.URL.Path
	}
	pattern := rctx.RoutePattern()
	if pattern == "" {
		pattern = r.URL.Path
	}
	return r.Method + " " + pattern
}
