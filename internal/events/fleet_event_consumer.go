package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/karibu-hire/service-rental/internal/pkg/kafka"
)

// BookingCompleter completes a booking when its vehicle is returned. The
// application layer's BookingService satisfies this.
type BookingCompleter interface {
	CompleteFromReturn(ctx context.Context, bookingID uuid.UUID) error
}

// FleetEventConsumer listens to fleet events and closes out bookings
// whose vehicle has been checked back in.
type FleetEventConsumer struct {
	consumer *kafka.Consumer
	service  BookingCompleter
	logger   *zap.Logger
}

// NewFleetEventConsumer creates a new FleetEventConsumer.
func NewFleetEventConsumer(
	brokers []string,
	groupID string,
	service BookingCompleter,
	logger *zap.Logger,
) *FleetEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicFleetEvents, logger)
	return &FleetEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming fleet events. This blocks until the context is
// cancelled.
func (c *FleetEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *FleetEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *FleetEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from fleet topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case FleetVehicleReturned:
		return c.handleVehicleReturned(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled fleet event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *FleetEventConsumer) handleVehicleReturned(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt VehicleReturnedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse VehicleReturnedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing vehicle returned event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("vehicle_id", evt.VehicleID.String()),
	)

	if err := c.service.CompleteFromReturn(ctx, evt.BookingID); err != nil {
		c.logger.Error("failed to complete booking after vehicle return",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("booking completed after vehicle return",
		zap.String("booking_id", evt.BookingID.String()),
	)
	return nil
}
