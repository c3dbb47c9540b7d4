package events

import (
	"context"

	"github.com/orfevre/attendance-backend/pkg/logger"
	"github.com/orfevre/attendance-backend/pkg/messaging"
)

// AttendanceEventPublisher publishes attendance events. Publication failures
// are logged and never fail the write that triggered them.
type AttendanceEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewAttendanceEventPublisher declares the attendance exchange on rmq
func NewAttendanceEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*AttendanceEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeAttendanceEvents, "attendance-service", log)
	if err != nil {
		return nil, err
	}
	return NewPublisherWith(publisher, log), nil
}

// NewPublisherWith wraps any EventPublisher, e.g. messaging.NopPublisher when no broker is configured
func NewPublisherWith(publisher messaging.EventPublisher, log *logger.Logger) *AttendanceEventPublisher {
	return &AttendanceEventPublisher{
		publisher: publisher,
		logger:    log,
	}
}

// PublishMonthSynced publishes a month synced event
func (p *AttendanceEventPublisher) PublishMonthSynced(ctx context.Context, data messaging.MonthSyncedEvent) {
	if err := p.publisher.Publish(ctx, messaging.EventMonthSynced, data); err != nil {
		p.logger.Error().Err(err).Int64("employee_id", data.EmployeeID).Msg("failed to publish month synced event")
	}
}

// PublishDayOverridden publishes a day overridden event
func (p *AttendanceEventPublisher) PublishDayOverridden(ctx context.Context, data messaging.DayOverriddenEvent) {
	if err := p.publisher.Publish(ctx, messaging.EventDayOverridden, data); err != nil {
		p.logger.Error().Err(err).Int64("employee_id", data.EmployeeID).Msg("failed to publish day overridden event")
	}
}

// PublishMonthMissingSaved publishes a monthly missing minutes event
func (p *AttendanceEventPublisher) PublishMonthMissingSaved(ctx context.Context, data messaging.MonthMissingSavedEvent) {
	if err := p.publisher.Publish(ctx, messaging.EventMonthMissingSaved, data); err != nil {
		p.logger.Error().Err(err).Int64("employee_id", data.EmployeeID).Msg("failed to publish missing minutes event")
	}
}
