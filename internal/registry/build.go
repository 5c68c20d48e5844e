package registry

import (
	"context"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"yieldScope/internal/farm"
)

// sortedNames fixes the catalog order; maps iterate randomly and the
// catalogs promise a stable first-match-wins order.
func sortedNames[E any](entries map[string]E) []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tokens fetches the token metadata and builds the token catalog for one
// chain. Entries on other chains, entries without an address, and
// multi-address composites (concentrated-liquidity position markers, which
// have no single spendable balance) are filtered out.
func (s *Source) Tokens(ctx context.Context, backend farm.Backend, chainID uint64) (*farm.Tokens, error) {
	entries, err := s.fetchTokenEntries(ctx)
	if err != nil {
		return nil, err
	}

	tokens := make([]*farm.Token, 0, len(entries))
	skipped := 0
	for _, name := range sortedNames(entries) {
		entry := entries[name]
		if uint64(entry.Chain) != chainID {
			continue
		}
		if len(entry.TokenAddress) != 1 {
			skipped++
			continue
		}
		tokens = append(tokens, farm.NewToken(
			backend,
			chainID,
			common.HexToAddress(entry.TokenAddress[0]),
			entry.Decimals,
			entry.Symbol,
			name,
		))
	}

	s.logger.Debug("token entries built",
		zap.Uint64("chain_id", chainID),
		zap.Int("tokens", len(tokens)),
		zap.Int("skipped", skipped),
	)
	return farm.NewTokens(tokens), nil
}

// Vaults fetches the token metadata and builds the vault catalog: every
// entry on the chain that carries a vault address. Entries with more than
// one underlying address come out as range vaults.
func (s *Source) Vaults(ctx context.Context, backend farm.Backend, chainID uint64) (*farm.Vaults, error) {
	entries, err := s.fetchTokenEntries(ctx)
	if err != nil {
		return nil, err
	}

	vaults := make([]*farm.Vault, 0, len(entries))
	for _, name := range sortedNames(entries) {
		entry := entries[name]
		if uint64(entry.Chain) != chainID {
			continue
		}
		if entry.VaultAddress == "" || len(entry.TokenAddress) == 0 {
			continue
		}
		underlying := make([]common.Address, 0, len(entry.TokenAddress))
		for _, address := range entry.TokenAddress {
			underlying = append(underlying, common.HexToAddress(address))
		}
		vaults = append(vaults, farm.NewVault(
			backend,
			chainID,
			common.HexToAddress(entry.VaultAddress),
			entry.Decimals,
			underlying,
			name,
		))
	}

	s.logger.Debug("vault entries built", zap.Uint64("chain_id", chainID), zap.Int("vaults", len(vaults)))
	return farm.NewVaults(vaults), nil
}

// Pools fetches the pool metadata and builds the pool catalog for one
// chain. Entries without a contract address are silently filtered.
func (s *Source) Pools(ctx context.Context, backend farm.Backend, chainID uint64) (*farm.Pools, error) {
	entries, err := s.fetchPoolEntries(ctx)
	if err != nil {
		return nil, err
	}

	pools := make([]*farm.Pool, 0, len(entries))
	for _, name := range sortedNames(entries) {
		entry := entries[name]
		if uint64(entry.Chain) != chainID {
			continue
		}
		if entry.ContractAddress == "" {
			continue
		}
		rewards := make([]common.Address, 0, len(entry.RewardTokens))
		for _, address := range entry.RewardTokens {
			rewards = append(rewards, common.HexToAddress(address))
		}
		poolName := entry.ID
		if poolName == "" {
			poolName = name
		}
		pools = append(pools, farm.NewPool(
			backend,
			chainID,
			common.HexToAddress(entry.ContractAddress),
			common.HexToAddress(entry.CollateralAddress),
			poolName,
			rewards,
		))
	}

	s.logger.Debug("pool entries built", zap.Uint64("chain_id", chainID), zap.Int("pools", len(pools)))
	return farm.NewPools(pools), nil
}
