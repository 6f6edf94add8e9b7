package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/greenmark/notes-service/internal/events"
	"github.com/greenmark/notes-service/internal/observability"
)

// ActivityService records note domain events into logs and metrics.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *ActivityService {
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventNoteCreated, a.handleEvent)
	a.dispatcher.Subscribe(events.EventNoteUpdated, a.handleEvent)
	a.dispatcher.Subscribe(events.EventNoteDeleted, a.handleEvent)
	a.dispatcher.Subscribe(events.EventNotePinToggled, a.handleEvent)
}

func (a *ActivityService) handleEvent(_ context.Context, event events.Event) error {
	a.logger.Info("note activity",
		zap.String("event", string(event.Type)),
		zap.String("note_id", event.NoteID),
		zap.String("owner_id", event.OwnerID),
		zap.Any("payload", event.Payload))
	a.metrics.RecordNoteEvent(string(event.Type))
	return nil
}
