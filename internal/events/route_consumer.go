package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/tripseat/service-booking/internal/application"
	"github.com/tripseat/service-booking/internal/platform/apperr"
	"github.com/tripseat/service-booking/internal/platform/kafka"
	"github.com/tripseat/service-booking/internal/proto/events"
)

// RouteUpserter applies a route definition. *application.RouteService satisfies it.
type RouteUpserter interface {
	UpsertRoute(ctx context.Context, id uuid.UUID, req application.CreateRouteRequest) (*application.RouteDTO, bool, error)
}

// RouteEventConsumer keeps the local route catalog in step with the
// upstream catalog service.
type RouteEventConsumer struct {
	consumer *kafka.Consumer
	routes   RouteUpserter
	logger   *zap.Logger
}

// NewRouteEventConsumer creates a new RouteEventConsumer.
func NewRouteEventConsumer(
	brokers []string,
	groupID string,
	routes RouteUpserter,
	logger *zap.Logger,
) *RouteEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicRouteEvents, logger)
	return &RouteEventConsumer{
		consumer: consumer,
		routes:   routes,
		logger:   logger,
	}
}

// Start begins consuming route events. This blocks until the context is cancelled.
func (c *RouteEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *RouteEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *RouteEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from route topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.RouteUpserted:
		return c.handleRouteUpserted(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled route event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *RouteEventConsumer) handleRouteUpserted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.RouteUpsertedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse RouteUpsertedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	_, created, err := c.routes.UpsertRoute(ctx, evt.RouteID, application.CreateRouteRequest{
		Name:                 evt.Name,
		Mode:                 evt.Mode,
		Stops:                evt.Stops,
		PricePerSegmentCents: evt.PricePerSegmentCents,
		Currency:             evt.Currency,
		TotalCapacity:        evt.TotalCapacity,
		DepartureTime:        evt.DepartureTime,
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			c.logger.Warn("discarding invalid route definition",
				zap.String("route_id", evt.RouteID.String()),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to apply route event",
			zap.String("route_id", evt.RouteID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("route event applied",
		zap.String("route_id", evt.RouteID.String()),
		zap.Bool("created", created),
	)
	return nil
}
