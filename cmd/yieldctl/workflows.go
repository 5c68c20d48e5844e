package main

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"yieldScope/internal/farm"
)

func newWorkflowCommands() []*cobra.Command {
	approveCmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve a vault to spend the underlying tokens",
		RunE:  runApprove,
	}

	depositCmd := &cobra.Command{
		Use:   "deposit",
		Short: "Deposit into a vault",
		RunE:  runDeposit,
	}

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw shares from a vault",
		RunE:  runWithdraw,
	}

	stakeCmd := &cobra.Command{
		Use:   "stake",
		Short: "Stake vault shares into a reward pool",
		RunE:  runStake,
	}

	unstakeCmd := &cobra.Command{
		Use:   "unstake",
		Short: "Unstake vault shares from a reward pool",
		RunE:  runUnstake,
	}

	depositStakeCmd := &cobra.Command{
		Use:   "deposit-stake",
		Short: "Approve, deposit, and stake in one sequence",
		RunE:  runDepositStake,
	}

	exitCmd := &cobra.Command{
		Use:   "exit",
		Short: "Unstake, claim rewards, and withdraw everything",
		RunE:  runExit,
	}

	for _, cmd := range []*cobra.Command{approveCmd, depositCmd, depositStakeCmd} {
		cmd.Flags().String("vault", "", "vault name or address")
		cmd.Flags().String("amount", "", "amount in raw units (single-asset vaults)")
		cmd.Flags().StringSlice("token-amount", nil, "per-token amount as address=rawUnits (range vaults)")
	}
	withdrawCmd.Flags().String("vault", "", "vault name or address")
	withdrawCmd.Flags().String("amount", "", "share amount in raw units")
	for _, cmd := range []*cobra.Command{stakeCmd, unstakeCmd, exitCmd} {
		cmd.Flags().String("pool", "", "pool name or address")
		cmd.Flags().String("amount", "", "share amount in raw units")
	}

	return []*cobra.Command{approveCmd, depositCmd, withdrawCmd, stakeCmd, unstakeCmd, depositStakeCmd, exitCmd}
}

func runApprove(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, cleanup, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	vault, err := selectVault(ctx, app, cmd)
	if err != nil {
		return err
	}
	amounts, err := flagAmounts(cmd)
	if err != nil {
		return err
	}
	return app.client.Approve(ctx, vault, amounts)
}

func runDeposit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, cleanup, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	vault, err := selectVault(ctx, app, cmd)
	if err != nil {
		return err
	}
	amounts, err := flagAmounts(cmd)
	if err != nil {
		return err
	}
	receipt, err := app.client.Deposit(ctx, vault, amounts)
	if err != nil {
		return err
	}
	fmt.Printf("deposited, tx %s\n", receipt.TxHash.Hex())
	return nil
}

func runWithdraw(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, cleanup, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	vault, err := selectVault(ctx, app, cmd)
	if err != nil {
		return err
	}
	amount, err := flagAmount(cmd)
	if err != nil {
		return err
	}
	tokens, err := app.client.Withdraw(ctx, vault, amount)
	if err != nil {
		return err
	}
	for _, token := range tokens {
		fmt.Printf("check balance of %s (%s)\n", token.Symbol, token.Address.Hex())
	}
	return nil
}

func runStake(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, cleanup, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	pool, err := selectPool(ctx, app, cmd)
	if err != nil {
		return err
	}
	amount, err := flagAmount(cmd)
	if err != nil {
		return err
	}
	receipt, err := app.client.Stake(ctx, pool, amount)
	if err != nil {
		return err
	}
	fmt.Printf("staked, tx %s\n", receipt.TxHash.Hex())
	return nil
}

func runUnstake(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, cleanup, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	pool, err := selectPool(ctx, app, cmd)
	if err != nil {
		return err
	}
	amount, err := flagAmount(cmd)
	if err != nil {
		return err
	}
	vault, err := app.client.Unstake(ctx, pool, amount)
	if err != nil {
		return err
	}
	fmt.Printf("unstaked into vault %s (%s)\n", vault.Name, vault.Address.Hex())
	return nil
}

func runDepositStake(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, cleanup, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	vault, err := selectVault(ctx, app, cmd)
	if err != nil {
		return err
	}
	amounts, err := flagAmounts(cmd)
	if err != nil {
		return err
	}
	pool, err := app.client.DepositAndStake(ctx, vault, amounts)
	if err != nil {
		return err
	}
	fmt.Printf("staked into pool %s (%s)\n", pool.Name, pool.Address.Hex())
	return nil
}

func runExit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, cleanup, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	pool, err := selectPool(ctx, app, cmd)
	if err != nil {
		return err
	}
	amount, err := flagAmount(cmd)
	if err != nil {
		return err
	}
	result, err := app.client.UnstakeAndWithdraw(ctx, pool, amount)
	if err != nil {
		return err
	}
	for _, token := range result.Tokens {
		fmt.Printf("check balance of %s (%s)\n", token.Symbol, token.Address.Hex())
	}
	if result.Reward != nil {
		fmt.Printf("claimed reward token %s (%s)\n", result.Reward.Symbol, result.Reward.Address.Hex())
	}
	return nil
}

func selectVault(ctx context.Context, app *app, cmd *cobra.Command) (*farm.Vault, error) {
	selector, _ := cmd.Flags().GetString("vault")
	if selector == "" {
		return nil, fmt.Errorf("vault name or address is required")
	}
	vaults, err := app.client.Vaults(ctx)
	if err != nil {
		return nil, err
	}
	return findVault(vaults, selector)
}

func findVault(vaults *farm.Vaults, selector string) (*farm.Vault, error) {
	if common.IsHexAddress(selector) {
		return vaults.FindByAddress(common.HexToAddress(selector))
	}
	return vaults.FindByName(selector)
}

func selectPool(ctx context.Context, app *app, cmd *cobra.Command) (*farm.Pool, error) {
	selector, _ := cmd.Flags().GetString("pool")
	if selector == "" {
		return nil, fmt.Errorf("pool name or address is required")
	}
	pools, err := app.client.Pools(ctx)
	if err != nil {
		return nil, err
	}
	return findPool(pools, selector)
}

func findPool(pools *farm.Pools, selector string) (*farm.Pool, error) {
	if common.IsHexAddress(selector) {
		address := common.HexToAddress(selector)
		for _, pool := range pools.All() {
			if pool.Address == address {
				return pool, nil
			}
		}
		return nil, fmt.Errorf("no pool at address %s", address.Hex())
	}
	return pools.FindByName(selector)
}

func flagAmount(cmd *cobra.Command) (*big.Int, error) {
	raw, _ := cmd.Flags().GetString("amount")
	if raw == "" {
		return nil, fmt.Errorf("amount is required")
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", raw)
	}
	return amount, nil
}

// flagAmounts builds the amount union: --amount for single-asset vaults,
// repeated --token-amount address=rawUnits for range vaults.
func flagAmounts(cmd *cobra.Command) (farm.Amounts, error) {
	pairs, _ := cmd.Flags().GetStringSlice("token-amount")
	if len(pairs) == 0 {
		amount, err := flagAmount(cmd)
		if err != nil {
			return farm.Amounts{}, err
		}
		return farm.Single(amount), nil
	}

	entries := make([]farm.TokenAmount, 0, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || !common.IsHexAddress(parts[0]) {
			return farm.Amounts{}, fmt.Errorf("invalid token-amount: %s", pair)
		}
		amount, ok := new(big.Int).SetString(parts[1], 10)
		if !ok {
			return farm.Amounts{}, fmt.Errorf("invalid token-amount: %s", pair)
		}
		entries = append(entries, farm.TokenAmount{
			Token:  common.HexToAddress(parts[0]),
			Amount: amount,
		})
	}
	return farm.PerToken(entries...), nil
}
