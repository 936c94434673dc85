package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/partner-gateway-service/internal/model"
)

func (p *Postgres) CreatePartner(ctx context.Context, partner *model.Partner) error {
	roles, err := json.Marshal(partner.Roles)
	if err != nil {
		return fmt.Errorf("marshal roles: %w", err)
	}

	// callback_url is nullable — pass nil when empty
	var callbackURL interface{}
	if partner.CallbackURL != "" {
		callbackURL = partner.CallbackURL
	}

	err = p.pool.QueryRow(ctx, `
		INSERT INTO partners (
			code, name, category, key_hash, key_prefix, roles,
			callback_url, callback_secret, settlement_secret, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`,
		partner.Code, partner.Name, partner.Category, partner.KeyHash, partner.KeyPrefix, roles,
		callbackURL, partner.CallbackSecret, partner.SettlementSecret, partner.Status,
	).Scan(&partner.ID, &partner.CreatedAt, &partner.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert partner: %w", err)
	}
	return nil
}

const partnerColumns = `id, code, name, category, key_hash, key_prefix, roles,
	callback_url, callback_secret, settlement_secret, status, created_at, updated_at`

func (p *Postgres) GetPartnerByKeyHash(ctx context.Context, keyHash string) (*model.Partner, error) {
	return p.scanPartner(ctx, `SELECT `+partnerColumns+` FROM partners WHERE key_hash = $1`, keyHash)
}

func (p *Postgres) GetPartnerByCode(ctx context.Context, code string) (*model.Partner, error) {
	return p.scanPartner(ctx, `SELECT `+partnerColumns+` FROM partners WHERE code = $1`, code)
}

func (p *Postgres) GetPartnerByID(ctx context.Context, id uuid.UUID) (*model.Partner, error) {
	return p.scanPartner(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = $1`, id)
}

func (p *Postgres) ListPartners(ctx context.Context, page, perPage int) ([]*model.Partner, int, error) {
	var total int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM partners`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count partners: %w", err)
	}

	offset := (page - 1) * perPage
	rows, err := p.pool.Query(ctx, `
		SELECT `+partnerColumns+` FROM partners ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list partners: %w", err)
	}
	defer rows.Close()

	var partners []*model.Partner
	for rows.Next() {
		partner, err := scanPartnerFromRow(rows)
		if err != nil {
			return nil, 0, err
		}
		partners = append(partners, partner)
	}
	return partners, total, nil
}

func (p *Postgres) CountPartners(ctx context.Context) (int, error) {
	var count int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM partners`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count partners: %w", err)
	}
	return count, nil
}

func (p *Postgres) UpdatePartnerStatus(ctx context.Context, id uuid.UUID, status model.PartnerStatus) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE partners SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("update partner status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) scanPartner(ctx context.Context, query string, args ...interface{}) (*model.Partner, error) {
	row := p.pool.QueryRow(ctx, query, args...)
	partner, err := scanPartnerFromRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return partner, nil
}

func scanPartnerFromRow(row pgx.Row) (*model.Partner, error) {
	var partner model.Partner
	var roles []byte
	var callbackURL *string

	err := row.Scan(
		&partner.ID, &partner.Code, &partner.Name, &partner.Category,
		&partner.KeyHash, &partner.KeyPrefix, &roles,
		&callbackURL, &partner.CallbackSecret, &partner.SettlementSecret,
		&partner.Status, &partner.CreatedAt, &partner.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan partner: %w", err)
	}

	if len(roles) > 0 {
		if err := json.Unmarshal(roles, &partner.Roles); err != nil {
			return nil, fmt.Errorf("unmarshal roles: %w", err)
		}
	}
	if callbackURL != nil {
		partner.CallbackURL = *callbackURL
	}
	return &partner, nil
}
