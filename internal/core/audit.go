package core

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ocralab/ocra/internal/model"
	"github.com/ocralab/ocra/internal/store"
)

// AuditRecorder appends login/logout events asynchronously. Recording is
// fire-and-forget: a full buffer or a storage failure is logged and never
// surfaces to the flow that triggered it.
type AuditRecorder struct {
	audit  store.AuditStore
	logger zerolog.Logger
	ch     chan model.AuthEvent
	done   chan struct{}
}

func NewAuditRecorder(audit store.AuditStore, logger zerolog.Logger) *AuditRecorder {
	r := &AuditRecorder{
		audit:  audit,
		logger: logger,
		ch:     make(chan model.AuthEvent, 1024),
		done:   make(chan struct{}),
	}
	go r.drain()
	return r
}

func (r *AuditRecorder) drain() {
	defer close(r.done)
	for event := range r.ch {
		// context.Background since writes outlive the triggering request.
		if err := r.audit.Insert(context.Background(), &event); err != nil {
			r.logger.Error().Err(err).Str("event_type", event.EventType).Msg("failed to write auth event")
		}
	}
}

// Record queues an event for persistence, assigning an event id if unset.
func (r *AuditRecorder) Record(event model.AuthEvent) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	select {
	case r.ch <- event:
	default:
		r.logger.Warn().Msg("audit buffer full, dropping auth event")
	}
}

// Close flushes queued events and stops the writer.
func (r *AuditRecorder) Close() {
	close(r.ch)
	<-r.done
}

// List returns recorded events matching the filter, newest first.
func (r *AuditRecorder) List(ctx context.Context, filter store.AuditFilter) ([]model.AuthEvent, error) {
	return r.audit.List(ctx, filter)
}
