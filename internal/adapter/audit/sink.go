package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/user/tenant-guard/internal/adapter/metrics"
	"github.com/user/tenant-guard/internal/domain"
)

const writeTimeout = 5 * time.Second

// Sink is an asynchronous, append-only recorder of security events.
// Recording never blocks the caller and never fails the guarded
// operation: on a full buffer or a store failure the event is dropped,
// logged locally, and counted. Auditability must not become an
// availability hazard.
type Sink struct {
	store   domain.AuditStore
	logger  *slog.Logger
	metrics *metrics.SecurityMetrics
	events  chan domain.SecurityEvent
	wg      sync.WaitGroup
	once    sync.Once
}

// NewSink creates a Sink with the given buffer size and starts its
// background writer. The metrics handle may be nil.
func NewSink(store domain.AuditStore, logger *slog.Logger, bufferSize int, m *metrics.SecurityMetrics) *Sink {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	s := &Sink{
		store:   store,
		logger:  logger.With("component", "audit_sink"),
		metrics: m,
		events:  make(chan domain.SecurityEvent, bufferSize),
	}
	s.wg.Add(1)
	go s.writeLoop()
	return s
}

// Record enqueues a security event. The request context is not used for
// the write itself; the event outlives the request.
func (s *Sink) Record(ctx context.Context, event domain.SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case s.events <- event:
	default:
		s.logger.Warn("audit buffer full, dropping event", "event_type", event.Type)
		if s.metrics != nil {
			s.metrics.AuditEventsDropped.Inc()
		}
	}
}

func (s *Sink) writeLoop() {
	defer s.wg.Done()
	for event := range s.events {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := s.store.Append(ctx, event)
		cancel()
		if err != nil {
			s.logger.Error("failed to append audit event", "error", err, "event_type", event.Type)
			if s.metrics != nil {
				s.metrics.AuditEventsDropped.Inc()
			}
			continue
		}
		if s.metrics != nil {
			s.metrics.AuditEventsWritten.Inc()
		}
	}
}

// Close drains the buffer and stops the writer. Safe to call more than
// once.
func (s *Sink) Close() {
	s.once.Do(func() {
		close(s.events)
	})
	s.wg.Wait()
}
