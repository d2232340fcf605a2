/*
Package store implements the persistence gateways consumed by the dispatch
core and the REST layer, backed by PostgreSQL through pgx.

Store satisfies chat.MessageStore and chat.BilanResolver, and additionally
exposes the user and bilan queries the REST handlers need.
*/
package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"bilanchat/internal/pkg/logx"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store runs all SQL queries of the application over one shared pool.
type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// New constructs a Store over an initialized connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:   pool,
		logger: logx.Logger().With().Str("component", "store").Logger(),
	}
}
