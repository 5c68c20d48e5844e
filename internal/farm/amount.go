package farm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenAmount pairs a token address with a magnitude. It is used to express
// per-asset amounts for range vaults and is never persisted.
type TokenAmount struct {
	Token  common.Address
	Amount *big.Int
}

// Amounts expresses a deposit or approval amount: either one magnitude that
// applies to every underlying token, or an explicit per-token list. Tokens
// absent from a per-token list resolve to zero.
type Amounts struct {
	single   *big.Int
	perToken []TokenAmount
}

// Single wraps one magnitude that applies to every underlying token.
func Single(amount *big.Int) Amounts {
	return Amounts{single: amount}
}

// PerToken wraps an explicit per-token amount list.
func PerToken(amounts ...TokenAmount) Amounts {
	return Amounts{perToken: amounts}
}

// ForToken resolves the portion of the amount that applies to one token.
func (a Amounts) ForToken(token common.Address) *big.Int {
	if a.single != nil {
		return new(big.Int).Set(a.single)
	}
	for _, entry := range a.perToken {
		if entry.Token == token && entry.Amount != nil {
			return new(big.Int).Set(entry.Amount)
		}
	}
	return new(big.Int)
}

// List returns the amounts as an explicit per-token list for the given
// underlying token set.
func (a Amounts) List(tokens []common.Address) []TokenAmount {
	out := make([]TokenAmount, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, TokenAmount{Token: token, Amount: a.ForToken(token)})
	}
	return out
}
