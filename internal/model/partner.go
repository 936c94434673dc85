package model

import (
	"time"

	"github.com/google/uuid"
)

type PartnerStatus string

const (
	PartnerActive    PartnerStatus = "active"
	PartnerSuspended PartnerStatus = "suspended"
	PartnerRevoked   PartnerStatus = "revoked"
)

type PartnerCategory string

const (
	CategoryInsurance  PartnerCategory = "insurance"
	CategoryBanking    PartnerCategory = "banking"
	CategoryAggregator PartnerCategory = "aggregator"
)

// Partner is the stored integration record for one external partner.
type Partner struct {
	ID               uuid.UUID       `json:"id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Category         PartnerCategory `json:"category"`
	KeyHash          string          `json:"-"`
	KeyPrefix        string          `json:"key_prefix"`
	Roles            []string        `json:"roles"`
	CallbackURL      string          `json:"callback_url,omitempty"`
	CallbackSecret   string          `json:"-"`
	SettlementSecret string          `json:"-"`
	Status           PartnerStatus   `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Principal derives the request identity a partner record authenticates as.
func (p *Partner) Principal(method AuthMethod) *Principal {
	roles := p.Roles
	if len(roles) == 0 {
		roles = []string{RolePartner}
	}
	return &Principal{
		PartnerID:   p.ID.String(),
		PartnerCode: p.Code,
		Name:        p.Name,
		Category:    p.Category,
		Roles:       roles,
		Method:      method,
	}
}
