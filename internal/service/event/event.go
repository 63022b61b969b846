// Package event builds outbox rows for domain events. Services persist
// these inside the same transaction as the state change they describe.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
)

// New marshals payload and wraps it as a pending outbox event.
func New(eventType string, payload any) (*model.OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   body,
		Status:    model.OutboxStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}
