package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types pushed to partner callback URLs.
const (
	EventPaymentStatus  = "payment.status"
	EventQuoteStatus    = "quote.status"
	EventReversalStatus = "reversal.status"
)

// Event is a typed notification payload that knows how to serialize itself
// into the envelope's data field.
type Event interface {
	EventType() string
}

// PaymentEvent reports the outcome of a payment mutation.
type PaymentEvent struct {
	PolicyRef  string `json:"policy_ref"`
	PaymentRef string `json:"payment_ref"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
}

func (PaymentEvent) EventType() string { return EventPaymentStatus }

// QuoteEvent reports the outcome of a quote mutation.
type QuoteEvent struct {
	QuoteRef string `json:"quote_ref"`
	Product  string `json:"product"`
	Premium  string `json:"premium"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

func (QuoteEvent) EventType() string { return EventQuoteStatus }

// ReversalEvent reports the outcome of a payment reversal.
type ReversalEvent struct {
	PaymentRef  string `json:"payment_ref"`
	ReversalRef string `json:"reversal_ref"`
	Reason      string `json:"reason,omitempty"`
	Status      string `json:"status"`
}

func (ReversalEvent) EventType() string { return EventReversalStatus }

// Envelope is the JSON body delivered to partner callback URLs.
type Envelope struct {
	EventType string          `json:"eventType"`
	EventID   string          `json:"eventId"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEnvelope wraps a typed event into a delivery envelope with a fresh id.
func NewEnvelope(event Event) (*Envelope, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", event.EventType(), err)
	}
	return &Envelope{
		EventType: event.EventType(),
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}
