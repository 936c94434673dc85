package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store over a pgx connection pool. Partner records and
// the webhook delivery log share the pool; schema lives in migrations/.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}
