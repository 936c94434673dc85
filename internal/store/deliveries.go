package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/partner-gateway-service/internal/model"
)

func (p *Postgres) CreateDelivery(ctx context.Context, d *model.WebhookDelivery) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO webhook_deliveries (
			partner_id, event_id, event_type, target_url, payload,
			attempts, status, status_code, last_error, next_retry_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`,
		d.PartnerID, d.EventID, d.EventType, d.TargetURL, d.Payload,
		d.Attempts, d.Status, d.StatusCode, nullableString(d.LastError), d.NextRetryAt,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert webhook_delivery: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateDeliveryOutcome(ctx context.Context, d *model.WebhookDelivery) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE webhook_deliveries
		SET attempts = $1, status = $2, status_code = $3, last_error = $4,
		    next_retry_at = $5, updated_at = NOW()
		WHERE id = $6
	`, d.Attempts, d.Status, d.StatusCode, nullableString(d.LastError), d.NextRetryAt, d.ID)
	if err != nil {
		return fmt.Errorf("update webhook_delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const deliveryColumns = `id, partner_id, event_id, event_type, target_url, payload,
	attempts, status, status_code, last_error, next_retry_at, created_at, updated_at`

func (p *Postgres) ListDeliveriesByPartner(ctx context.Context, partnerID uuid.UUID, page, perPage int) ([]*model.WebhookDelivery, int, error) {
	var total int
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM webhook_deliveries WHERE partner_id = $1
	`, partnerID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count webhook_deliveries: %w", err)
	}

	offset := (page - 1) * perPage
	rows, err := p.pool.Query(ctx, `
		SELECT `+deliveryColumns+` FROM webhook_deliveries
		WHERE partner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, partnerID, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list webhook_deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*model.WebhookDelivery
	for rows.Next() {
		d, err := scanDeliveryFromRow(rows)
		if err != nil {
			return nil, 0, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, total, nil
}

func scanDeliveryFromRow(row pgx.Row) (*model.WebhookDelivery, error) {
	var d model.WebhookDelivery
	var lastError *string

	err := row.Scan(
		&d.ID, &d.PartnerID, &d.EventID, &d.EventType, &d.TargetURL, &d.Payload,
		&d.Attempts, &d.Status, &d.StatusCode, &lastError, &d.NextRetryAt,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan webhook_delivery: %w", err)
	}
	if lastError != nil {
		d.LastError = *lastError
	}
	return &d, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
