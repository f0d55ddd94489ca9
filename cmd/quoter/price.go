package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cykura/sdk/clmm/calculator"
)

func newPriceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Report a pool's spot price and virtual reserves",
		RunE:  runPrice,
	}

	cmd.Flags().String("pool", "", "pool snapshot JSON path")
	cmd.Flags().Uint64("token-in", 0, "input token identifier")
	cmd.Flags().Uint64("token-out", 0, "output token identifier")
	cmd.Flags().Uint("decimals-in", 0, "input token decimals")
	cmd.Flags().Uint("decimals-out", 0, "output token decimals")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

type priceResult struct {
	SpotPrice  string `json:"spotPrice"`
	ReserveIn  string `json:"reserveIn"`
	ReserveOut string `json:"reserveOut"`
}

func runPrice(cmd *cobra.Command, _ []string) error {
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

	pool, err := loadPool(cfg.PoolPath, 0)
	if err != nil {
		return err
	}

	spot, err := calculator.GetSpotPrice(cfg.TokenIn, cfg.TokenOut, cfg.DecimalsIn, cfg.DecimalsOut, pool)
	if err != nil {
		return err
	}

	reserveIn, reserveOut, err := calculator.GetVirtualReserves(cfg.TokenIn, cfg.TokenOut, pool)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(priceResult{
		SpotPrice:  spot.String(),
		ReserveIn:  reserveIn.String(),
		ReserveOut: reserveOut.String(),
	})
}
