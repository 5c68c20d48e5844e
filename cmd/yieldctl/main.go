package main

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"yieldScope/internal/chain"
	"yieldScope/internal/config"
	"yieldScope/internal/farm"
	"yieldScope/internal/registry"
)

func main() {
	root := &cobra.Command{
		Use:          "yieldctl",
		Short:        "Yield-farming vault and pool client",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("rpc", "", "chain RPC URL")
	root.PersistentFlags().Uint64("chain-id", 0, "chain id (0 means ask the node)")
	root.PersistentFlags().String("private-key", "", "hex private key (omit for read-only)")
	root.PersistentFlags().String("tokens-url", "", "token metadata endpoint override")
	root.PersistentFlags().String("pools-url", "", "pool metadata endpoint override")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newListCommands()...)
	root.AddCommand(newWorkflowCommands()...)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wired collaborators a command handler needs.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	session *chain.Session
	client  *farm.Client
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, func(), error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	if cfg.RPCURL == "" {
		logger.Sync()
		return nil, nil, fmt.Errorf("rpc url is required")
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		logger.Sync()
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}

	cleanup := func() {
		chainClient.Close()
		logger.Sync()
	}

	var signer *chain.Signer
	if cfg.PrivateKey != "" {
		chainID := new(big.Int).SetUint64(cfg.ChainID)
		if cfg.ChainID == 0 {
			chainID, err = chainClient.ChainID(ctx)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("resolve chain id: %w", err)
			}
		}
		signer, err = chain.NewSignerFromHex(cfg.PrivateKey, chainID)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	session := chain.NewSession(chainClient, signer)
	source := registry.NewSource(registry.SourceConfig{
		TokensURL: cfg.TokensURL,
		PoolsURL:  cfg.PoolsURL,
		Logger:    logger,
	})

	client, err := farm.NewClient(farm.ClientConfig{
		Backend: session,
		Source:  source,
		ChainID: cfg.ChainID,
		Logger:  logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &app{cfg: cfg, logger: logger, session: session, client: client}, cleanup, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
