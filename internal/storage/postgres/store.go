package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"yieldScope/internal/model"
)

// Store provides Postgres persistence for portfolio holdings.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutHoldings inserts or updates holding records, keyed on the owning
// account and the contract the balance lives in.
func (s *Store) PutHoldings(ctx context.Context, holdings []model.HoldingRecord) error {
	if len(holdings) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, holding := range holdings {
		batch.Queue(`
			INSERT INTO holdings (
				chain_id, owner, kind, address, symbol, balance, decimals, formatted, captured_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
			ON CONFLICT (chain_id, owner, kind, address)
			DO UPDATE SET
				symbol = EXCLUDED.symbol,
				balance = EXCLUDED.balance,
				decimals = EXCLUDED.decimals,
				formatted = EXCLUDED.formatted,
				captured_at = EXCLUDED.captured_at,
				updated_at = now()
		`,
			int64(holding.ChainID),
			holding.Owner,
			string(holding.Kind),
			holding.Address,
			holding.Symbol,
			holding.Balance,
			int16(holding.Decimals),
			holding.Formatted,
			holding.CapturedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range holdings {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
