package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

const auditWriteTimeout = 5 * time.Second

// AuditService persists request audit entries off the request path. Record
// never blocks: a full queue drops the entry. Write failures are logged only.
type AuditService struct {
	store  auditStore
	queue  chan model.AuditEntry
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAuditService(store auditStore, queueSize int) *AuditService {
	if queueSize <= 0 {
		queueSize = 1
	}

	s := &AuditService{
		store: store,
		queue: make(chan model.AuditEntry, queueSize),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *AuditService) Record(entry model.AuditEntry) {
	if s == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	select {
	case s.queue <- entry:
	default:
		slog.Warn("audit queue full; dropping entry", "uri", entry.RequestURI, "user_id", entry.UserID)
	}
}

func (s *AuditService) run() {
	defer close(s.done)

	for entry := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
		if err := s.store.Log(ctx, entry); err != nil {
			slog.Warn("audit write failed", "uri", entry.RequestURI, "error", err)
		}
		cancel()
	}
}

// Close stops accepting entries and waits for the queue to drain or ctx to end.
func (s *AuditService) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if _, err := parseOptionalAuditTime(query.From); err != nil {
		return nil, model.Meta{}, apierror.BadRequest.WithDetails("invalid 'from' datetime format")
	}
	if _, err := parseOptionalAuditTime(query.To); err != nil {
		return nil, model.Meta{}, apierror.BadRequest.WithDetails("invalid 'to' datetime format")
	}

	return s.store.Query(ctx, query)
}

func parseOptionalAuditTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}

	if value, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return value.UTC(), nil
	}

	value, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, err
	}
	return value.UTC(), nil
}
