package events

import (
	"context"

	"github.com/rideinzw/dispatch/pkg/broker"
	"github.com/rideinzw/dispatch/pkg/logger"
	"github.com/rideinzw/dispatch/pkg/realtime"
)

// Publisher is what services use to emit events. Delivery is
// best-effort; a failed or absent publisher never fails the operation
// that produced the event.
type Publisher interface {
	Publish(ctx context.Context, topic string, eventType Type, data interface{})
}

// Fanout delivers each event to WebSocket subscribers and, when a
// broker is connected, mirrors it onto the AMQP exchange
type Fanout struct {
	hub    *realtime.Hub
	broker *broker.Publisher
	logger *logger.Logger
}

// NewFanout creates a Fanout. Either sink may be nil.
func NewFanout(hub *realtime.Hub, broker *broker.Publisher, log *logger.Logger) *Fanout {
	return &Fanout{
		hub:    hub,
		broker: broker,
		logger: log,
	}
}

// Publish delivers the event to all sinks
func (f *Fanout) Publish(ctx context.Context, topic string, eventType Type, data interface{}) {
	if f.hub != nil {
		f.hub.Publish(topic, realtime.Message{
			Type:  string(eventType),
			Topic: topic,
			Data:  data,
		})
	}

	if f.broker != nil && f.broker.IsEnabled() {
		payload := map[string]interface{}{
			"type":  string(eventType),
			"topic": topic,
			"data":  data,
		}
		if err := f.broker.Publish(ctx, RoutingKey(topic), payload); err != nil {
			f.logger.Warn("Failed to mirror event to broker",
				logger.String("topic", topic),
				logger.String("event_type", string(eventType)),
				logger.Err(err),
			)
		}
	}
}

// Noop is a Publisher that drops everything, for tests and tools
type Noop struct{}

// Publish implements Publisher
func (Noop) Publish(ctx context.Context, topic string, eventType Type, data interface{}) {}
