package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/gblms/roadmap-service/internal/models"
)

// TopicRoadmaps carries roadmap lifecycle events.
const TopicRoadmaps = "roadmap.events"

const (
	EventRoadmapCreated = "roadmap.created"
	EventRoadmapUpdated = "roadmap.updated"
)

// RoadmapEvent is the payload published on every roadmap write.
type RoadmapEvent struct {
	Type       string    `json:"type"`
	RoadmapID  string    `json:"roadmap_id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Bus is an in-process pub/sub for roadmap lifecycle events.
type Bus struct {
	pubSub *gochannel.GoChannel
	logger *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger)),
		logger: logger,
	}
}

// PublishRoadmapEvent emits a lifecycle event. Publishing failures are logged
// and swallowed — events are advisory, never part of the request outcome.
func (b *Bus) PublishRoadmapEvent(ctx context.Context, eventType string, roadmap *models.Roadmap) {
	event := RoadmapEvent{
		Type:       eventType,
		RoadmapID:  roadmap.ID,
		UserID:     roadmap.UserID,
		Title:      roadmap.Title,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to encode roadmap event", "error", err)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubSub.Publish(TopicRoadmaps, msg); err != nil {
		b.logger.ErrorContext(ctx, "failed to publish roadmap event",
			"error", err,
			"event_type", eventType,
			"roadmap_id", roadmap.ID)
	}
}

// Subscribe returns a channel of roadmap event messages.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, TopicRoadmaps)
}

// StartAuditLog consumes roadmap events and writes them to the service log
// until ctx is cancelled.
func (b *Bus) StartAuditLog(ctx context.Context) error {
	messages, err := b.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var event RoadmapEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				b.logger.Error("unreadable roadmap event", "error", err)
				msg.Ack()
				continue
			}
			b.logger.Info("roadmap event",
				"event_type", event.Type,
				"roadmap_id", event.RoadmapID,
				"user_id", event.UserID)
			msg.Ack()
		}
	}()

	return nil
}

// Close shuts the pub/sub down, ending all subscriptions.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}
