package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cykura/sdk/clmm"
	"github.com/cykura/sdk/clmm/calculator"
)

func main() {
	root := &cobra.Command{
		Use:          "quoter",
		Short:        "Off-chain swap quoter for concentrated-liquidity pools",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against a pool snapshot",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("pool", "", "pool snapshot JSON path")
	quoteCmd.Flags().String("amount-in", "", "exact input amount")
	quoteCmd.Flags().String("amount-out", "", "exact output amount")
	quoteCmd.Flags().Uint64("token-in", 0, "input token identifier")
	quoteCmd.Flags().String("price-limit", "", "sqrt price limit (Q32.32), empty for none")
	quoteCmd.Flags().Int("step-budget", 0, "swap step budget, 0 for the default")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)
	root.AddCommand(newPriceCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type quoteResult struct {
	AmountIn     string         `json:"amountIn"`
	AmountOut    string         `json:"amountOut"`
	Tick         int64          `json:"tick"`
	SqrtPriceX32 string         `json:"sqrtPriceX32"`
	Liquidity    string         `json:"liquidity"`
	Touched      []clmm.Locator `json:"touched"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.PoolPath == "" {
		return fmt.Errorf("pool snapshot path is required")
	}
	if (cfg.AmountIn == "") == (cfg.AmountOut == "") {
		return fmt.Errorf("exactly one of amount-in and amount-out is required")
	}

	pool, err := loadPool(cfg.PoolPath, cfg.StepBudget)
	if err != nil {
		return err
	}

	priceLimit, err := parseOptionalInt(cfg.PriceLimit)
	if err != nil {
		return fmt.Errorf("parse price limit: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("quote",
		zap.Uint64("pool", pool.ID),
		zap.Uint64("token_in", cfg.TokenIn),
		zap.String("amount_in", cfg.AmountIn),
		zap.String("amount_out", cfg.AmountOut),
		zap.Int64("tick", pool.Tick),
	)

	var result quoteResult
	if cfg.AmountIn != "" {
		amountIn, ok := sdkmath.NewIntFromString(cfg.AmountIn)
		if !ok {
			return fmt.Errorf("invalid amount-in %q", cfg.AmountIn)
		}
		amountOut, next, touched, err := calculator.QuoteExactInput(ctx, amountIn.BigInt(), priceLimit, cfg.TokenIn, pool)
		if err != nil {
			return err
		}
		result = quoteResult{
			AmountIn:     amountIn.String(),
			AmountOut:    amountOut.String(),
			Tick:         next.Tick,
			SqrtPriceX32: next.SqrtPriceX32.String(),
			Liquidity:    next.Liquidity.String(),
			Touched:      touched,
		}
	} else {
		amountOut, ok := sdkmath.NewIntFromString(cfg.AmountOut)
		if !ok {
			return fmt.Errorf("invalid amount-out %q", cfg.AmountOut)
		}
		// The engine expects a negative amount for an exact-output swap.
		amountIn, next, touched, err := calculator.QuoteExactOutput(ctx, amountOut.Neg().BigInt(), priceLimit, cfg.TokenIn, pool)
		if err != nil {
			return err
		}
		result = quoteResult{
			AmountIn:     amountIn.String(),
			AmountOut:    amountOut.String(),
			Tick:         next.Tick,
			SqrtPriceX32: next.SqrtPriceX32.String(),
			Liquidity:    next.Liquidity.String(),
			Touched:      touched,
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
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
