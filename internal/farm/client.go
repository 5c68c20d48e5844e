package farm

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CatalogSource supplies the three catalogs for one chain, typically from
// the protocol's remote metadata endpoints.
type CatalogSource interface {
	Tokens(ctx context.Context, backend Backend, chainID uint64) (*Tokens, error)
	Vaults(ctx context.Context, backend Backend, chainID uint64) (*Vaults, error)
	Pools(ctx context.Context, backend Backend, chainID uint64) (*Pools, error)
}

// ClientConfig wires a client's collaborators.
type ClientConfig struct {
	// Backend is the connection/credential handle.
	Backend Backend
	// Source supplies catalog metadata.
	Source CatalogSource
	// ChainID scopes the catalogs. Zero means "ask the backend".
	ChainID uint64
	Logger  *zap.Logger
}

// Client is the workflow engine. It composes the three catalogs, enforces
// preconditions before every fund-moving call, and chains the primitive
// operations into compound workflows. It holds no workflow state between
// calls; every compound workflow re-validates from scratch.
//
// Catalogs are built lazily on first access and cached for the lifetime of
// the client. There is no invalidation; build a new client to observe
// catalog changes.
type Client struct {
	backend Backend
	source  CatalogSource
	chainID uint64
	logger  *zap.Logger

	mu     sync.Mutex
	tokens *Tokens
	vaults *Vaults
	pools  *Pools
}

// TokenBalance, VaultBalance and PoolBalance are portfolio scan results.
type TokenBalance struct {
	Token  *Token
	Amount *big.Int
}

type VaultBalance struct {
	Vault  *Vault
	Amount *big.Int
}

type PoolBalance struct {
	Pool   *Pool
	Amount *big.Int
}

// ExitResult is what an unstake-and-withdraw leaves the caller holding.
type ExitResult struct {
	// Tokens are the vault's underlying tokens whose balances changed.
	Tokens []*Token
	// Reward is the pool's reward token claimed on the way out.
	Reward *Token
}

// NewClient validates the configuration and builds a client. Either an
// explicit chain id or a backend able to report one must be supplied.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.ChainID == 0 && cfg.Backend == nil {
		return nil, ErrMissingConfiguration
	}
	if cfg.Backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("catalog source is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		backend: cfg.Backend,
		source:  cfg.Source,
		chainID: cfg.ChainID,
		logger:  logger,
	}, nil
}

func (c *Client) resolveChainID(ctx context.Context) (uint64, error) {
	if c.chainID != 0 {
		return c.chainID, nil
	}
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve chain id: %w", err)
	}
	c.chainID = id.Uint64()
	return c.chainID, nil
}

// Tokens returns the token catalog, building it on first access.
func (c *Client) Tokens(ctx context.Context) (*Tokens, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens != nil {
		return c.tokens, nil
	}
	chainID, err := c.resolveChainID(ctx)
	if err != nil {
		return nil, err
	}
	tokens, err := c.source.Tokens(ctx, c.backend, chainID)
	if err != nil {
		return nil, err
	}
	c.tokens = tokens
	c.logger.Debug("token catalog built", zap.Uint64("chain_id", chainID), zap.Int("tokens", len(tokens.All())))
	return c.tokens, nil
}

// Vaults returns the vault catalog, building it on first access.
func (c *Client) Vaults(ctx context.Context) (*Vaults, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vaults != nil {
		return c.vaults, nil
	}
	chainID, err := c.resolveChainID(ctx)
	if err != nil {
		return nil, err
	}
	vaults, err := c.source.Vaults(ctx, c.backend, chainID)
	if err != nil {
		return nil, err
	}
	c.vaults = vaults
	c.logger.Debug("vault catalog built", zap.Uint64("chain_id", chainID), zap.Int("vaults", len(vaults.All())))
	return c.vaults, nil
}

// Pools returns the pool catalog, building it on first access.
func (c *Client) Pools(ctx context.Context) (*Pools, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pools != nil {
		return c.pools, nil
	}
	chainID, err := c.resolveChainID(ctx)
	if err != nil {
		return nil, err
	}
	pools, err := c.source.Pools(ctx, c.backend, chainID)
	if err != nil {
		return nil, err
	}
	c.pools = pools
	c.logger.Debug("pool catalog built", zap.Uint64("chain_id", chainID), zap.Int("pools", len(pools.All())))
	return c.pools, nil
}

// owner resolves an explicit address, falling back to the bound signer.
func (c *Client) owner(explicit common.Address) (common.Address, error) {
	if explicit != (common.Address{}) {
		return explicit, nil
	}
	from, err := c.backend.From()
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: supply an address or a signing key", ErrNoSigner)
	}
	return from, nil
}

// tokenFor resolves a catalog token by address, or builds a bare handle
// when the address is not in the catalog.
func (c *Client) tokenFor(ctx context.Context, address common.Address) *Token {
	if tokens, err := c.Tokens(ctx); err == nil {
		if token, err := tokens.FindByAddress(address); err == nil {
			return token
		}
	}
	return NewToken(c.backend, c.chainID, address, 0, "", "")
}

// Approve authorises the vault to spend each underlying token's portion of
// the amount, after verifying the caller holds at least that portion. The
// per-token checks and approvals run concurrently; there is no rollback if
// one branch fails after a sibling already approved.
func (c *Client) Approve(ctx context.Context, vault *Vault, amounts Amounts) error {
	owner, err := c.owner(common.Address{})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, entry := range amounts.List(vault.Tokens) {
		entry := entry
		g.Go(func() error {
			if entry.Amount == nil || entry.Amount.Sign() <= 0 {
				return fmt.Errorf("%w: approval for %s must be positive", ErrInvalidAmount, entry.Token.Hex())
			}
			token := c.tokenFor(gctx, entry.Token)
			balance := token.BalanceOf(gctx, owner)
			if balance.Cmp(entry.Amount) < 0 {
				return fmt.Errorf("%w: have %s of %s, want %s",
					ErrInsufficientBalance, balance, entry.Token.Hex(), entry.Amount)
			}
			_, err := token.Approve(gctx, vault.Address, entry.Amount)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.logger.Info("approved vault spend", zap.String("vault", vault.Name), zap.String("address", vault.Address.Hex()))
	return nil
}

// Deposit moves the amount into the vault after re-verifying, per token,
// that the caller's balance and the vault's allowance both cover the
// portion. Only when every token passes is the deposit submitted.
func (c *Client) Deposit(ctx context.Context, vault *Vault, amounts Amounts) (*types.Receipt, error) {
	owner, err := c.owner(common.Address{})
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, entry := range amounts.List(vault.Tokens) {
		entry := entry
		g.Go(func() error {
			if entry.Amount == nil || entry.Amount.Sign() <= 0 {
				return fmt.Errorf("%w: deposit for %s must be positive", ErrInvalidAmount, entry.Token.Hex())
			}
			token := c.tokenFor(gctx, entry.Token)
			balance := token.BalanceOf(gctx, owner)
			if balance.Cmp(entry.Amount) < 0 {
				return fmt.Errorf("%w: have %s of %s, want %s",
					ErrInsufficientBalance, balance, entry.Token.Hex(), entry.Amount)
			}
			allowance, err := token.Allowance(gctx, owner, vault.Address)
			if err != nil {
				return err
			}
			if allowance.Cmp(entry.Amount) < 0 {
				return fmt.Errorf("%w: approved %s of %s, want %s",
					ErrInsufficientApproval, allowance, entry.Token.Hex(), entry.Amount)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	receipt, err := vault.Deposit(ctx, amounts.List(vault.Tokens))
	if err != nil {
		return nil, err
	}
	c.logger.Info("deposited into vault", zap.String("vault", vault.Name), zap.String("address", vault.Address.Hex()))
	return receipt, nil
}

// Withdraw redeems a share quantity from the vault and returns the
// underlying tokens whose balances the caller should re-check.
func (c *Client) Withdraw(ctx context.Context, vault *Vault, amount *big.Int) ([]*Token, error) {
	owner, err := c.owner(common.Address{})
	if err != nil {
		return nil, err
	}

	balance := vault.BalanceOf(ctx, owner)
	if amount == nil || amount.Sign() <= 0 || balance.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: vault %s share balance is %s, requested %s",
			ErrInvalidAmount, vault.Name, balance, amount)
	}

	if _, err := vault.Withdraw(ctx, amount); err != nil {
		return nil, err
	}
	c.logger.Info("withdrew from vault", zap.String("vault", vault.Name), zap.String("amount", amount.String()))

	tokens := make([]*Token, 0, len(vault.Tokens))
	for _, address := range vault.Tokens {
		tokens = append(tokens, c.tokenFor(ctx, address))
	}
	return tokens, nil
}

// Stake moves vault shares into the pool. The pool must already be approved
// to spend the shares.
func (c *Client) Stake(ctx context.Context, pool *Pool, amount *big.Int) (*types.Receipt, error) {
	owner, err := c.owner(common.Address{})
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: stake amount must be positive", ErrInvalidAmount)
	}

	vault, err := c.vaultForPool(ctx, pool)
	if err != nil {
		return nil, err
	}
	shares := vault.BalanceOf(ctx, owner)
	if shares.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: vault %s (%s) holds %s, requested %s",
			ErrInsufficientVaultBalance, vault.Name, vault.Address.Hex(), shares, amount)
	}

	receipt, err := pool.Stake(ctx, amount)
	if err != nil {
		return nil, err
	}
	c.logger.Info("staked into pool", zap.String("pool", pool.Name), zap.String("amount", amount.String()))
	return receipt, nil
}

// Unstake withdraws staked shares from the pool and returns the vault the
// shares belong to.
func (c *Client) Unstake(ctx context.Context, pool *Pool, amount *big.Int) (*Vault, error) {
	owner, err := c.owner(common.Address{})
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: unstake amount must be positive", ErrInvalidAmount)
	}

	staked := pool.BalanceOf(ctx, owner)
	if staked.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: pool %s holds %s, requested %s",
			ErrInsufficientPoolBalance, pool.Address.Hex(), staked, amount)
	}

	if _, err := pool.Withdraw(ctx, amount); err != nil {
		return nil, err
	}
	c.logger.Info("unstaked from pool", zap.String("pool", pool.Name), zap.String("amount", amount.String()))

	return c.vaultForPool(ctx, pool)
}

// DepositAndStake chains approve, deposit, pool approval, and stake into
// one sequence. Each stage waits for the prior stage's confirmation; there
// is no rollback, so a failure at stage N leaves stages 1..N-1 in effect
// on-chain.
func (c *Client) DepositAndStake(ctx context.Context, vault *Vault, amounts Amounts) (*Pool, error) {
	owner, err := c.owner(common.Address{})
	if err != nil {
		return nil, err
	}

	if err := c.Approve(ctx, vault, amounts); err != nil {
		return nil, err
	}
	if _, err := c.Deposit(ctx, vault, amounts); err != nil {
		return nil, err
	}

	shares := vault.BalanceOf(ctx, owner)

	pools, err := c.Pools(ctx)
	if err != nil {
		return nil, err
	}
	pool, err := pools.FindByVault(vault)
	if err != nil {
		return nil, err
	}

	if _, err := vault.Approve(ctx, pool.Address, shares); err != nil {
		return nil, err
	}
	if _, err := c.Stake(ctx, pool, shares); err != nil {
		return nil, err
	}
	return pool, nil
}

// UnstakeAndWithdraw chains unstake, reward claim, and withdrawal. The
// withdrawal covers the vault's entire current share balance, not only the
// freshly unstaked amount: a caller holding a separate unstaked balance
// will see it withdrawn too.
func (c *Client) UnstakeAndWithdraw(ctx context.Context, pool *Pool, amount *big.Int) (ExitResult, error) {
	owner, err := c.owner(common.Address{})
	if err != nil {
		return ExitResult{}, err
	}

	vault, err := c.Unstake(ctx, pool, amount)
	if err != nil {
		return ExitResult{}, err
	}

	reward, err := pool.ClaimRewards(ctx)
	if err != nil {
		return ExitResult{}, err
	}

	shares := vault.BalanceOf(ctx, owner)
	tokens, err := c.Withdraw(ctx, vault, shares)
	if err != nil {
		return ExitResult{}, err
	}

	return ExitResult{Tokens: tokens, Reward: reward}, nil
}

// MyTokens returns every catalog token the owner holds a positive balance
// of. A zero owner defaults to the signer's address.
func (c *Client) MyTokens(ctx context.Context, owner common.Address) ([]TokenBalance, error) {
	owner, err := c.owner(owner)
	if err != nil {
		return nil, err
	}
	tokens, err := c.Tokens(ctx)
	if err != nil {
		return nil, err
	}

	all := tokens.All()
	balances := make([]*big.Int, len(all))
	g, gctx := errgroup.WithContext(ctx)
	for i, token := range all {
		i, token := i, token
		g.Go(func() error {
			balances[i] = token.BalanceOf(gctx, owner)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]TokenBalance, 0)
	for i, token := range all {
		if balances[i].Sign() > 0 {
			out = append(out, TokenBalance{Token: token, Amount: balances[i]})
		}
	}
	return out, nil
}

// MyVaults returns every vault the owner holds shares in.
func (c *Client) MyVaults(ctx context.Context, owner common.Address) ([]VaultBalance, error) {
	owner, err := c.owner(owner)
	if err != nil {
		return nil, err
	}
	vaults, err := c.Vaults(ctx)
	if err != nil {
		return nil, err
	}

	all := vaults.All()
	balances := make([]*big.Int, len(all))
	g, gctx := errgroup.WithContext(ctx)
	for i, vault := range all {
		i, vault := i, vault
		g.Go(func() error {
			balances[i] = vault.BalanceOf(gctx, owner)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]VaultBalance, 0)
	for i, vault := range all {
		if balances[i].Sign() > 0 {
			out = append(out, VaultBalance{Vault: vault, Amount: balances[i]})
		}
	}
	return out, nil
}

// MyPools returns every pool the owner has a positive staked balance in.
func (c *Client) MyPools(ctx context.Context, owner common.Address) ([]PoolBalance, error) {
	owner, err := c.owner(owner)
	if err != nil {
		return nil, err
	}
	pools, err := c.Pools(ctx)
	if err != nil {
		return nil, err
	}

	all := pools.All()
	balances := make([]*big.Int, len(all))
	g, gctx := errgroup.WithContext(ctx)
	for i, pool := range all {
		i, pool := i, pool
		g.Go(func() error {
			balances[i] = pool.BalanceOf(gctx, owner)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]PoolBalance, 0)
	for i, pool := range all {
		if balances[i].Sign() > 0 {
			out = append(out, PoolBalance{Pool: pool, Amount: balances[i]})
		}
	}
	return out, nil
}

// vaultForPool resolves the pool's collateral vault from the catalog,
// falling back to a bare vault handle when the catalog has no entry for the
// collateral address.
func (c *Client) vaultForPool(ctx context.Context, pool *Pool) (*Vault, error) {
	vaults, err := c.Vaults(ctx)
	if err != nil {
		return nil, err
	}
	if vault, err := vaults.FindByPool(pool); err == nil {
		return vault, nil
	}
	return NewVault(c.backend, pool.ChainID, pool.CollateralAddress, 0, nil, ""), nil
}
