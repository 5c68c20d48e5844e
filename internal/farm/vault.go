package farm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// sharePriceScale is the fixed-point scale of getPricePerFullShare.
var sharePriceScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Vault is a yield-bearing wrapper contract around one or more underlying
// tokens. A vault with a single underlying uses the direct deposit/withdraw
// entry points; a vault with more than one underlying is treated as a
// concentrated-liquidity range position and uses the parameterized entry
// points. The strategy pair is fixed at construction.
type Vault struct {
	backend Backend

	ChainID  uint64
	Address  common.Address
	Decimals uint8
	Name     string
	// Tokens is the ordered underlying token set.
	Tokens []common.Address

	deposits    DepositStrategy
	withdrawals WithdrawalStrategy
}

// NewVault builds a vault and binds its strategy pair from the cardinality
// of the underlying token set.
func NewVault(backend Backend, chainID uint64, address common.Address, decimals uint8, tokens []common.Address, name string) *Vault {
	v := &Vault{
		backend:  backend,
		ChainID:  chainID,
		Address:  address,
		Decimals: decimals,
		Name:     name,
		Tokens:   tokens,
	}
	if len(tokens) > 1 {
		v.deposits = newRangeVaultDeposits(backend, address)
		v.withdrawals = newRangeVaultWithdrawals(backend, address)
	} else {
		v.deposits = newVaultDeposits(backend, address)
		v.withdrawals = newVaultWithdrawals(backend, address)
	}
	return v
}

// IsRange reports whether the vault wraps a dual-asset range position.
func (v *Vault) IsRange() bool {
	return len(v.Tokens) > 1
}

// BalanceOf returns the share balance of an address, zero on any remote
// failure (same policy as Token.BalanceOf).
func (v *Vault) BalanceOf(ctx context.Context, owner common.Address) *big.Int {
	parsed, err := VaultABI()
	if err != nil {
		return new(big.Int)
	}
	values, err := callMethod(ctx, v.backend, v.Address, parsed, "balanceOf", owner)
	if err != nil || len(values) == 0 {
		return new(big.Int)
	}
	balance, err := asBigInt(values[0])
	if err != nil {
		return new(big.Int)
	}
	return balance
}

// Approve authorises a spender (typically a reward pool) to move the
// vault's own share token. This is distinct from approving an underlying
// token to the vault.
func (v *Vault) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	parsed, err := VaultABI()
	if err != nil {
		return nil, err
	}
	return transactMethod(ctx, v.backend, v.Address, parsed, "approve", spender, amount)
}

// Deposit enters the vault's underlying position via the bound strategy.
func (v *Vault) Deposit(ctx context.Context, amounts []TokenAmount) (*types.Receipt, error) {
	return v.deposits.Deposit(ctx, amounts)
}

// Withdraw exits a share quantity via the bound strategy.
func (v *Vault) Withdraw(ctx context.Context, amount *big.Int) (*types.Receipt, error) {
	return v.withdrawals.Withdraw(ctx, amount)
}

// SharePrice returns the redemption ratio between shares and underlying,
// scaled by 1e18.
func (v *Vault) SharePrice(ctx context.Context) (*big.Int, error) {
	parsed, err := VaultABI()
	if err != nil {
		return nil, err
	}
	values, err := callMethod(ctx, v.backend, v.Address, parsed, "getPricePerFullShare")
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// Redeemable converts a share balance into the underlying amount it
// currently redeems for: floor(shares * sharePrice / 1e18).
func (v *Vault) Redeemable(ctx context.Context, shares *big.Int) (*big.Int, error) {
	price, err := v.SharePrice(ctx)
	if err != nil {
		return nil, err
	}
	out := new(big.Int).Mul(shares, price)
	return out.Div(out, sharePriceScale), nil
}

// Vaults is an indexed vault catalog for one chain.
type Vaults struct {
	vaults []*Vault
}

// NewVaults wraps a vault list in catalog lookups.
func NewVaults(vaults []*Vault) *Vaults {
	return &Vaults{vaults: vaults}
}

// All returns every vault in the catalog.
func (v *Vaults) All() []*Vault {
	return v.vaults
}

// FindByName looks a vault up by display name, case-insensitively. Several
// vault variants may share a name; the first match wins.
func (v *Vaults) FindByName(name string) (*Vault, error) {
	lowered := strings.ToLower(name)
	for _, vault := range v.vaults {
		if strings.ToLower(vault.Name) == lowered {
			return vault, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrVaultNameNotFound, name)
}

// FindByAddress looks a vault up by contract address.
func (v *Vaults) FindByAddress(address common.Address) (*Vault, error) {
	for _, vault := range v.vaults {
		if vault.Address == address {
			return vault, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrVaultAddressNotFound, address.Hex())
}

// FindByTokens returns the vaults whose underlying token set equals the
// given set, ignoring order. Cardinality must match exactly.
func (v *Vaults) FindByTokens(tokens ...common.Address) ([]*Vault, error) {
	wanted := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		wanted[strings.ToLower(token.Hex())] = struct{}{}
	}

	var matches []*Vault
	for _, vault := range v.vaults {
		if len(vault.Tokens) != len(tokens) {
			continue
		}
		covered := 0
		for _, token := range vault.Tokens {
			if _, ok := wanted[strings.ToLower(token.Hex())]; ok {
				covered++
			}
		}
		if covered == len(tokens) {
			matches = append(matches, vault)
		}
	}
	if len(matches) == 0 {
		parts := make([]string, 0, len(tokens))
		for _, token := range tokens {
			parts = append(parts, token.Hex())
		}
		return nil, fmt.Errorf("%w: %s", ErrVaultTokensNotFound, strings.Join(parts, ","))
	}
	return matches, nil
}

// FindByPool returns the vault whose share token the pool accepts as
// collateral.
func (v *Vaults) FindByPool(pool *Pool) (*Vault, error) {
	for _, vault := range v.vaults {
		if vault.Address == pool.CollateralAddress {
			return vault, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrVaultPoolNotFound, pool.Address.Hex())
}
