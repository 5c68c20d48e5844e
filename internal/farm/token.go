package farm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Token wraps a single fungible-asset contract. Instances are built once
// during catalog construction and are immutable afterwards; balances are
// always live remote reads.
type Token struct {
	backend Backend

	ChainID  uint64
	Address  common.Address
	Decimals uint8
	Symbol   string
	Name     string
}

// NewToken builds a token bound to a backend.
func NewToken(backend Backend, chainID uint64, address common.Address, decimals uint8, symbol, name string) *Token {
	return &Token{
		backend:  backend,
		ChainID:  chainID,
		Address:  address,
		Decimals: decimals,
		Symbol:   symbol,
		Name:     name,
	}
}

// BalanceOf returns the token balance of an address. Any remote failure is
// treated as a zero balance: the catalog may carry stale or placeholder
// addresses, and a balance read must never fail the caller's flow.
func (t *Token) BalanceOf(ctx context.Context, owner common.Address) *big.Int {
	parsed, err := Erc20ABI()
	if err != nil {
		return new(big.Int)
	}
	values, err := callMethod(ctx, t.backend, t.Address, parsed, "balanceOf", owner)
	if err != nil || len(values) == 0 {
		return new(big.Int)
	}
	balance, err := asBigInt(values[0])
	if err != nil {
		return new(big.Int)
	}
	return balance
}

// Allowance returns the amount the spender may move on behalf of owner.
// Unlike BalanceOf, remote failures propagate to the caller.
func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	parsed, err := Erc20ABI()
	if err != nil {
		return nil, err
	}
	values, err := callMethod(ctx, t.backend, t.Address, parsed, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// Approve authorises the spender to move the given amount and waits for the
// transaction to be mined.
func (t *Token) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	parsed, err := Erc20ABI()
	if err != nil {
		return nil, err
	}
	return transactMethod(ctx, t.backend, t.Address, parsed, "approve", spender, amount)
}

// Tokens is an indexed token catalog for one chain. Symbol and address
// lookups are case-insensitive.
type Tokens struct {
	tokens    []*Token
	bySymbol  map[string]*Token
	byAddress map[string]*Token
}

// NewTokens indexes the given tokens. The first token wins when two share a
// symbol.
func NewTokens(tokens []*Token) *Tokens {
	t := &Tokens{
		tokens:    tokens,
		bySymbol:  make(map[string]*Token, len(tokens)),
		byAddress: make(map[string]*Token, len(tokens)),
	}
	for _, token := range tokens {
		if token.Symbol != "" {
			key := strings.ToLower(token.Symbol)
			if _, ok := t.bySymbol[key]; !ok {
				t.bySymbol[key] = token
			}
		}
		key := strings.ToLower(token.Address.Hex())
		if _, ok := t.byAddress[key]; !ok {
			t.byAddress[key] = token
		}
	}
	return t
}

// All returns every token in the catalog.
func (t *Tokens) All() []*Token {
	return t.tokens
}

// FindBySymbol looks a token up by symbol, case-insensitively.
func (t *Tokens) FindBySymbol(symbol string) (*Token, error) {
	if token, ok := t.bySymbol[strings.ToLower(symbol)]; ok {
		return token, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTokenSymbolNotFound, symbol)
}

// FindByAddress looks a token up by contract address.
func (t *Tokens) FindByAddress(address common.Address) (*Token, error) {
	if token, ok := t.byAddress[strings.ToLower(address.Hex())]; ok {
		return token, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTokenAddressNotFound, address.Hex())
}
