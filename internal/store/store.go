package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/partner-gateway-service/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// PartnerStore defines the principal-store boundary the trust layer consumes.
type PartnerStore interface {
	CreatePartner(ctx context.Context, partner *model.Partner) error
	GetPartnerByKeyHash(ctx context.Context, keyHash string) (*model.Partner, error)
	GetPartnerByCode(ctx context.Context, code string) (*model.Partner, error)
	GetPartnerByID(ctx context.Context, id uuid.UUID) (*model.Partner, error)
	ListPartners(ctx context.Context, page, perPage int) ([]*model.Partner, int, error)
	CountPartners(ctx context.Context) (int, error)
	UpdatePartnerStatus(ctx context.Context, id uuid.UUID, status model.PartnerStatus) error
}

// DeliveryLogStore records webhook delivery outcomes for audit and
// dead-letter inspection.
type DeliveryLogStore interface {
	CreateDelivery(ctx context.Context, delivery *model.WebhookDelivery) error
	UpdateDeliveryOutcome(ctx context.Context, delivery *model.WebhookDelivery) error
	ListDeliveriesByPartner(ctx context.Context, partnerID uuid.UUID, page, perPage int) ([]*model.WebhookDelivery, int, error)
}

// Store combines both PartnerStore and DeliveryLogStore.
type Store interface {
	PartnerStore
	DeliveryLogStore
}
