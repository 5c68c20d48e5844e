package model

// HoldingKind classifies where a balance lives.
type HoldingKind string

const (
	HoldingToken HoldingKind = "token"
	HoldingVault HoldingKind = "vault"
	HoldingPool  HoldingKind = "pool"
)

// HoldingRecord is the normalized representation of one positive balance
// found during a portfolio scan, for storage.
type HoldingRecord struct {
	ChainID    uint64      `json:"chain_id"`
	Owner      string      `json:"owner"`
	Kind       HoldingKind `json:"kind"`
	Address    string      `json:"address"`
	Symbol     string      `json:"symbol"`
	Balance    string      `json:"balance"`
	Decimals   uint8       `json:"decimals"`
	Formatted  string      `json:"formatted"`
	CapturedAt string      `json:"captured_at"`
}
