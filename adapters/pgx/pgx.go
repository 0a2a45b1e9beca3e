package pgx

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmarcial/passage/core"
)

type Adapter struct {
	pool *pgxpool.Pool
}

var _ core.UserStorage = (*Adapter)(nil)

func New(pool *pgxpool.Pool) *Adapter {
	return &Adapter{
		pool: pool,
	}
}
