package farm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DepositStrategy implements the mechanics of entering a vault's underlying
// position. The strategy is chosen once, at vault construction, from the
// shape of the underlying token set; callers never branch on vault kind.
type DepositStrategy interface {
	Deposit(ctx context.Context, amounts []TokenAmount) (*types.Receipt, error)
}

// WithdrawalStrategy implements the mechanics of exiting a vault position.
// The amount is always a share quantity, regardless of vault shape.
type WithdrawalStrategy interface {
	Withdraw(ctx context.Context, amount *big.Int) (*types.Receipt, error)
}

// Fixed placeholders passed to range-vault entry points.
// TODO: bound the withdrawal tolerance so large positions are not exposed
// to unlimited slippage.
var (
	rangeDepositPrecision   = big.NewInt(10)
	rangeWithdrawTolerance  = big.NewInt(1)
	rangeDepositZapFlag     = false
	rangeWithdrawBothAssets = true
)

// vaultDeposits is the single-asset strategy: one magnitude, one direct
// deposit call.
type vaultDeposits struct {
	backend Backend
	address common.Address
}

func newVaultDeposits(backend Backend, address common.Address) *vaultDeposits {
	return &vaultDeposits{backend: backend, address: address}
}

func (s *vaultDeposits) Deposit(ctx context.Context, amounts []TokenAmount) (*types.Receipt, error) {
	if len(amounts) != 1 {
		return nil, fmt.Errorf("%w: single-asset vault takes exactly one amount, got %d", ErrInvalidTokenAmounts, len(amounts))
	}
	parsed, err := VaultABI()
	if err != nil {
		return nil, err
	}
	return transactMethod(ctx, s.backend, s.address, parsed, "deposit", amounts[0].Amount)
}

type vaultWithdrawals struct {
	backend Backend
	address common.Address
}

func newVaultWithdrawals(backend Backend, address common.Address) *vaultWithdrawals {
	return &vaultWithdrawals{backend: backend, address: address}
}

func (s *vaultWithdrawals) Withdraw(ctx context.Context, amount *big.Int) (*types.Receipt, error) {
	parsed, err := VaultABI()
	if err != nil {
		return nil, err
	}
	return transactMethod(ctx, s.backend, s.address, parsed, "withdraw", amount)
}

// rangeVaultDeposits is the dual-asset strategy for concentrated-liquidity
// range vaults. A deposit must specify an amount for both configured assets;
// a one-sided deposit into a two-sided position is not well-defined.
type rangeVaultDeposits struct {
	backend Backend
	address common.Address
}

func newRangeVaultDeposits(backend Backend, address common.Address) *rangeVaultDeposits {
	return &rangeVaultDeposits{backend: backend, address: address}
}

func (s *rangeVaultDeposits) Deposit(ctx context.Context, amounts []TokenAmount) (*types.Receipt, error) {
	parsed, err := RangeVaultABI()
	if err != nil {
		return nil, err
	}

	token0, err := rangeVaultToken(ctx, s.backend, s.address, "token0")
	if err != nil {
		return nil, err
	}
	token1, err := rangeVaultToken(ctx, s.backend, s.address, "token1")
	if err != nil {
		return nil, err
	}

	byToken := make(map[string]*big.Int, len(amounts))
	for _, entry := range amounts {
		if entry.Amount == nil {
			continue
		}
		byToken[strings.ToLower(entry.Token.Hex())] = entry.Amount
	}

	amount0, ok0 := byToken[strings.ToLower(token0.Hex())]
	amount1, ok1 := byToken[strings.ToLower(token1.Hex())]
	if !ok0 || !ok1 {
		return nil, fmt.Errorf("%w: range vault %s needs amounts for both %s and %s",
			ErrInvalidTokenAmounts, s.address.Hex(), token0.Hex(), token1.Hex())
	}

	sqrtPrice, err := rangeVaultSqrtPrice(ctx, s.backend, s.address)
	if err != nil {
		return nil, err
	}

	return transactMethod(ctx, s.backend, s.address, parsed, "deposit",
		amount0, amount1, rangeDepositZapFlag, rangeDepositZapFlag, sqrtPrice, rangeDepositPrecision)
}

type rangeVaultWithdrawals struct {
	backend Backend
	address common.Address
}

func newRangeVaultWithdrawals(backend Backend, address common.Address) *rangeVaultWithdrawals {
	return &rangeVaultWithdrawals{backend: backend, address: address}
}

func (s *rangeVaultWithdrawals) Withdraw(ctx context.Context, amount *big.Int) (*types.Receipt, error) {
	parsed, err := RangeVaultABI()
	if err != nil {
		return nil, err
	}

	sqrtPrice, err := rangeVaultSqrtPrice(ctx, s.backend, s.address)
	if err != nil {
		return nil, err
	}

	return transactMethod(ctx, s.backend, s.address, parsed, "withdraw",
		amount, rangeWithdrawBothAssets, rangeWithdrawBothAssets, sqrtPrice, rangeWithdrawTolerance)
}

func rangeVaultToken(ctx context.Context, backend Backend, vault common.Address, method string) (common.Address, error) {
	parsed, err := RangeVaultABI()
	if err != nil {
		return common.Address{}, err
	}
	values, err := callMethod(ctx, backend, vault, parsed, method)
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

func rangeVaultSqrtPrice(ctx context.Context, backend Backend, vault common.Address) (*big.Int, error) {
	parsed, err := RangeVaultABI()
	if err != nil {
		return nil, err
	}
	values, err := callMethod(ctx, backend, vault, parsed, "getSqrtPriceX96")
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}
