package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"wellagora/contexts/community-impact/impact-validation-service/ports"
)

// OutboxNotifier queues completion notifications through the outbox so
// delivery rides the same at-least-once relay as the domain events.
type OutboxNotifier struct {
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func NewOutboxNotifier(outbox ports.OutboxWriter, clock ports.Clock, idGen ports.IDGenerator, logger *slog.Logger) *OutboxNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxNotifier{Outbox: outbox, Clock: clock, IDGen: idGen, Logger: logger}
}

func (n *OutboxNotifier) Notify(ctx context.Context, notification ports.Notification) error {
	eventID, err := n.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"user_id": notification.UserID,
		"type":    notification.Type,
		"title":   notification.Title,
		"message": notification.Message,
		"data":    notification.Data,
	})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if n.Clock != nil {
		now = n.Clock.Now().UTC()
	}
	envelope := ports.EventEnvelope{
		EventID:          eventID,
		EventType:        "notification.requested",
		OccurredAt:       now,
		SourceService:    "impact-validation-service",
		SchemaVersion:    1,
		PartitionKeyPath: "user_id",
		PartitionKey:     notification.UserID,
		Data:             payload,
	}
	if err := n.Outbox.AppendOutbox(ctx, envelope); err != nil {
		return err
	}

	n.Logger.Info("notification queued",
		"event", "notification_queued",
		"module", "community-impact/impact-validation-service",
		"layer", "adapter",
		"user_id", notification.UserID,
		"notification_type", notification.Type,
	)
	return nil
}
