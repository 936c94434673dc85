package model

import (
	"time"

	"github.com/google/uuid"
)

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryExhausted DeliveryStatus = "exhausted"
)

// WebhookDelivery records one notification's delivery attempt sequence.
type WebhookDelivery struct {
	ID          uuid.UUID      `json:"id"`
	PartnerID   uuid.UUID      `json:"partner_id"`
	EventID     string         `json:"event_id"`
	EventType   string         `json:"event_type"`
	TargetURL   string         `json:"target_url"`
	Payload     []byte         `json:"payload"`
	Attempts    int            `json:"attempts"`
	Status      DeliveryStatus `json:"status"`
	StatusCode  *int           `json:"status_code,omitempty"`
	LastError   string         `json:"last_error,omitempty"`
	NextRetryAt *time.Time     `json:"next_retry_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
