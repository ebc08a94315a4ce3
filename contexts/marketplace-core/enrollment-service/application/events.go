package application

import (
	"encoding/json"
	"time"

	"wellagora/contexts/marketplace-core/enrollment-service/ports"
)

func newEnrollmentEnvelope(
	eventID string,
	eventType string,
	programID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "enrollment-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "program_id",
		PartitionKey:     programID,
		Data:             payload,
	}, nil
}
