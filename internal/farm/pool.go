package farm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Pool is a staking contract that accepts a vault's share token as
// collateral and emits a reward token over time.
type Pool struct {
	backend Backend

	ChainID uint64
	Address common.Address
	// CollateralAddress is the vault share token the pool accepts.
	CollateralAddress common.Address
	Name              string
	RewardTokens      []common.Address
}

// EarnedAmount pairs an unclaimed reward magnitude with its token.
type EarnedAmount struct {
	Token  *Token
	Amount *big.Int
}

// NewPool builds a pool bound to a backend.
func NewPool(backend Backend, chainID uint64, address, collateral common.Address, name string, rewards []common.Address) *Pool {
	return &Pool{
		backend:           backend,
		ChainID:           chainID,
		Address:           address,
		CollateralAddress: collateral,
		Name:              name,
		RewardTokens:      rewards,
	}
}

// BalanceOf returns the staked balance of an address, zero on any remote
// failure.
func (p *Pool) BalanceOf(ctx context.Context, owner common.Address) *big.Int {
	parsed, err := PoolABI()
	if err != nil {
		return new(big.Int)
	}
	values, err := callMethod(ctx, p.backend, p.Address, parsed, "balanceOf", owner)
	if err != nil || len(values) == 0 {
		return new(big.Int)
	}
	balance, err := asBigInt(values[0])
	if err != nil {
		return new(big.Int)
	}
	return balance
}

// Stake submits a stake of vault shares and waits for it to be mined. The
// pool must already be approved to move the shares.
func (p *Pool) Stake(ctx context.Context, amount *big.Int) (*types.Receipt, error) {
	parsed, err := PoolABI()
	if err != nil {
		return nil, err
	}
	return transactMethod(ctx, p.backend, p.Address, parsed, "stake", amount)
}

// Withdraw unstakes an amount of vault shares and waits for the transaction
// to be mined.
func (p *Pool) Withdraw(ctx context.Context, amount *big.Int) (*types.Receipt, error) {
	parsed, err := PoolABI()
	if err != nil {
		return nil, err
	}
	return transactMethod(ctx, p.backend, p.Address, parsed, "withdraw", amount)
}

// ClaimRewards claims the accrued reward and returns the reward token. The
// reward token address is re-read after the claim since it can differ from
// any cached value.
func (p *Pool) ClaimRewards(ctx context.Context) (*Token, error) {
	parsed, err := PoolABI()
	if err != nil {
		return nil, err
	}
	if _, err := transactMethod(ctx, p.backend, p.Address, parsed, "getReward"); err != nil {
		return nil, err
	}
	return p.rewardToken(ctx)
}

// Earned returns the unclaimed reward magnitude for an address together
// with the reward token. A zero owner defaults to the signer's address.
func (p *Pool) Earned(ctx context.Context, owner common.Address) (EarnedAmount, error) {
	if owner == (common.Address{}) {
		from, err := p.backend.From()
		if err != nil {
			return EarnedAmount{}, fmt.Errorf("%w: supply an address or a signing key", ErrNoSigner)
		}
		owner = from
	}

	parsed, err := PoolABI()
	if err != nil {
		return EarnedAmount{}, err
	}

	token, err := p.rewardToken(ctx)
	if err != nil {
		return EarnedAmount{}, err
	}

	values, err := callMethod(ctx, p.backend, p.Address, parsed, "earned", owner)
	if err != nil {
		return EarnedAmount{}, err
	}
	amount, err := asBigInt(values[0])
	if err != nil {
		return EarnedAmount{}, err
	}

	return EarnedAmount{Token: token, Amount: amount}, nil
}

func (p *Pool) rewardToken(ctx context.Context) (*Token, error) {
	parsed, err := PoolABI()
	if err != nil {
		return nil, err
	}
	values, err := callMethod(ctx, p.backend, p.Address, parsed, "rewardToken")
	if err != nil {
		return nil, err
	}
	address, err := asAddress(values[0])
	if err != nil {
		return nil, err
	}

	erc20, err := Erc20ABI()
	if err != nil {
		return nil, err
	}
	values, err = callMethod(ctx, p.backend, address, erc20, "decimals")
	if err != nil {
		return nil, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return nil, err
	}

	symbol := ""
	if values, err := callMethod(ctx, p.backend, address, erc20, "symbol"); err == nil {
		if s, ok := values[0].(string); ok {
			symbol = s
		}
	}

	return NewToken(p.backend, p.ChainID, address, decimals, symbol, symbol), nil
}

// Pools is an indexed pool catalog for one chain.
type Pools struct {
	pools []*Pool
}

// NewPools wraps a pool list in catalog lookups.
func NewPools(pools []*Pool) *Pools {
	return &Pools{pools: pools}
}

// All returns every pool in the catalog.
func (p *Pools) All() []*Pool {
	return p.pools
}

// FindByName looks a pool up by identifying name, case-insensitively.
func (p *Pools) FindByName(name string) (*Pool, error) {
	lowered := strings.ToLower(name)
	for _, pool := range p.pools {
		if strings.ToLower(pool.Name) == lowered {
			return pool, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPoolNameNotFound, name)
}

// FindByVault returns the pool that accepts the vault's share token as
// collateral.
func (p *Pools) FindByVault(vault *Vault) (*Pool, error) {
	for _, pool := range p.pools {
		if pool.CollateralAddress == vault.Address {
			return pool, nil
		}
	}
	return nil, fmt.Errorf("%w: %s (%s)", ErrPoolVaultNotFound, vault.Name, vault.Address.Hex())
}
