package storage

import (
	"context"

	"yieldScope/internal/model"
)

// Storage defines a sink for portfolio holding records.
type Storage interface {
	PutHoldings(ctx context.Context, holdings []model.HoldingRecord) error
}
