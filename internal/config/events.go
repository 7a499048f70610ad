package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/SAP-F-2025/competency-assessment/internal/events"
)

// EventConfig selects where engine events are published.
type EventConfig struct {
	Enabled bool
	// Publisher is kafka, gochannel (in-process, single node) or mock.
	Publisher         string
	KafkaBrokers      string
	NotificationTopic string
}

func (c *EventConfig) GetKafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// CreateEventPublisher builds the configured publisher. Disabled publishing
// logs events through the mock publisher.
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled {
		logger.Info("Event publishing disabled, using mock publisher")
		return events.NewMockEventPublisher(logger), nil
	}

	switch c.Publisher {
	case "kafka":
		brokers := c.GetKafkaBrokers()
		if len(brokers) == 0 {
			return nil, fmt.Errorf("kafka publisher needs at least one broker")
		}
		logger.Info("Creating Kafka event publisher", "brokers", brokers, "topic", c.NotificationTopic)
		return events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: brokers,
			TopicName:    c.NotificationTopic,
			Logger:       logger,
		})
	case "gochannel":
		logger.Info("Creating in-process event publisher", "topic", c.NotificationTopic)
		pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))
		return events.NewWatermillEventPublisher(pubSub, c.NotificationTopic, logger), nil
	case "mock":
		return events.NewMockEventPublisher(logger), nil
	default:
		return nil, fmt.Errorf("unknown event publisher %q", c.Publisher)
	}
}
