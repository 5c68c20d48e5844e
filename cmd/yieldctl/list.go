package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yieldScope/internal/farm"
	"yieldScope/internal/model"
	"yieldScope/internal/storage"
	"yieldScope/internal/storage/postgres"
)

func newListCommands() []*cobra.Command {
	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "List the token catalog",
		RunE:  runTokens,
	}

	vaultsCmd := &cobra.Command{
		Use:   "vaults",
		Short: "List the vault catalog",
		RunE:  runVaults,
	}

	poolsCmd := &cobra.Command{
		Use:   "pools",
		Short: "List the pool catalog",
		RunE:  runPools,
	}

	portfolioCmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Show every token, vault, and pool the account holds a balance in",
		RunE:  runPortfolio,
	}
	portfolioCmd.Flags().String("address", "", "account to scan (defaults to the signing key's address)")
	portfolioCmd.Flags().String("out", "", "append holdings to this JSONL file")
	portfolioCmd.Flags().String("pg-dsn", "", "upsert holdings into this Postgres database")

	return []*cobra.Command{tokensCmd, vaultsCmd, poolsCmd, portfolioCmd}
}

func runTokens(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, cleanup, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	tokens, err := app.client.Tokens(ctx)
	if err != nil {
		return err
	}
	for _, token := range tokens.All() {
		fmt.Printf("%-24s %s decimals=%d\n", token.Symbol, token.Address.Hex(), token.Decimals)
	}
	return nil
}

func runVaults(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, cleanup, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	vaults, err := app.client.Vaults(ctx)
	if err != nil {
		return err
	}
	for _, vault := range vaults.All() {
		kind := "single"
		if vault.IsRange() {
			kind = "range"
		}
		fmt.Printf("%-32s %s %s underlying=%d\n", vault.Name, vault.Address.Hex(), kind, len(vault.Tokens))
	}
	return nil
}

func runPools(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, cleanup, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	pools, err := app.client.Pools(ctx)
	if err != nil {
		return err
	}
	for _, pool := range pools.All() {
		fmt.Printf("%-32s %s collateral=%s\n", pool.Name, pool.Address.Hex(), pool.CollateralAddress.Hex())
	}
	return nil
}

func runPortfolio(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, cleanup, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var owner common.Address
	if raw, _ := cmd.Flags().GetString("address"); raw != "" {
		if !common.IsHexAddress(raw) {
			return fmt.Errorf("invalid address: %s", raw)
		}
		owner = common.HexToAddress(raw)
	} else if from, err := app.session.From(); err == nil {
		owner = from
	}

	tokens, err := app.client.MyTokens(ctx, owner)
	if err != nil {
		return err
	}
	vaults, err := app.client.MyVaults(ctx, owner)
	if err != nil {
		return err
	}
	pools, err := app.client.MyPools(ctx, owner)
	if err != nil {
		return err
	}

	capturedAt := time.Now().UTC().Format(time.RFC3339)
	holdings := make([]model.HoldingRecord, 0, len(tokens)+len(vaults)+len(pools))

	for _, entry := range tokens {
		formatted := farm.FormatUnits(entry.Amount, entry.Token.Decimals)
		fmt.Printf("token %-24s %s\n", entry.Token.Symbol, formatted)
		holdings = append(holdings, model.HoldingRecord{
			ChainID:    entry.Token.ChainID,
			Owner:      owner.Hex(),
			Kind:       model.HoldingToken,
			Address:    entry.Token.Address.Hex(),
			Symbol:     entry.Token.Symbol,
			Balance:    entry.Amount.String(),
			Decimals:   entry.Token.Decimals,
			Formatted:  formatted,
			CapturedAt: capturedAt,
		})
	}
	for _, entry := range vaults {
		formatted := farm.FormatUnits(entry.Amount, entry.Vault.Decimals)
		fmt.Printf("vault %-24s %s\n", entry.Vault.Name, formatted)
		holdings = append(holdings, model.HoldingRecord{
			ChainID:    entry.Vault.ChainID,
			Owner:      owner.Hex(),
			Kind:       model.HoldingVault,
			Address:    entry.Vault.Address.Hex(),
			Symbol:     entry.Vault.Name,
			Balance:    entry.Amount.String(),
			Decimals:   entry.Vault.Decimals,
			Formatted:  formatted,
			CapturedAt: capturedAt,
		})
	}
	for _, entry := range pools {
		fmt.Printf("pool  %-24s %s\n", entry.Pool.Name, entry.Amount.String())
		holdings = append(holdings, model.HoldingRecord{
			ChainID:    entry.Pool.ChainID,
			Owner:      owner.Hex(),
			Kind:       model.HoldingPool,
			Address:    entry.Pool.Address.Hex(),
			Symbol:     entry.Pool.Name,
			Balance:    entry.Amount.String(),
			CapturedAt: capturedAt,
		})
	}

	return sinkHoldings(ctx, cmd, app.logger, holdings)
}

func sinkHoldings(ctx context.Context, cmd *cobra.Command, logger *zap.Logger, holdings []model.HoldingRecord) error {
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		sink := storage.NewJsonlStorage(out)
		if err := sink.PutHoldings(ctx, holdings); err != nil {
			return err
		}
		logger.Info("holdings written", zap.String("out", out), zap.Int("count", len(holdings)))
	}
	if dsn, _ := cmd.Flags().GetString("pg-dsn"); dsn != "" {
		store, err := postgres.NewStore(ctx, dsn)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.PutHoldings(ctx, holdings); err != nil {
			return err
		}
		logger.Info("holdings upserted", zap.Int("count", len(holdings)))
	}
	return nil
}
