package registry

import (
	"encoding/json"
	"strconv"
)

// AddressList decodes a metadata address field that is either one address
// or a list of addresses. A multi-address list marks a
// concentrated-liquidity position rather than a single spendable token.
type AddressList []string

// UnmarshalJSON accepts both `"0x.."` and `["0x..", "0x.."]`.
func (a *AddressList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*a = nil
		} else {
			*a = AddressList{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*a = AddressList(many)
	return nil
}

// ChainRef decodes a metadata chain field that arrives as a string or a
// number.
type ChainRef uint64

// UnmarshalJSON accepts both `"1"` and `1`.
func (c *ChainRef) UnmarshalJSON(data []byte) error {
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		parsed, err := num.Int64()
		if err == nil && parsed >= 0 {
			*c = ChainRef(parsed)
			return nil
		}
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		// Unparseable chain fields are treated as chain 0 so the entry is
		// filtered, matching the silent-filter policy for malformed entries.
		*c = 0
		return nil
	}
	*c = ChainRef(parsed)
	return nil
}

// TokenEntry is one raw record of the token/vault metadata map.
type TokenEntry struct {
	Chain        ChainRef    `json:"chain"`
	TokenAddress AddressList `json:"tokenAddress"`
	Decimals     uint8       `json:"decimals"`
	Symbol       string      `json:"symbol"`
	VaultAddress string      `json:"vaultAddress"`
}

// PoolEntry is one raw record of the pool metadata map.
type PoolEntry struct {
	Chain             ChainRef `json:"chain"`
	ContractAddress   string   `json:"contractAddress"`
	CollateralAddress string   `json:"collateralAddress"`
	ID                string   `json:"id"`
	RewardTokens      []string `json:"rewardTokens"`
}
