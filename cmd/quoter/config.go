package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cykura/sdk/clmm"
)

// config holds values merged from flags, environment variables, and an
// optional config file.
type config struct {
	PoolPath   string
	AmountIn   string
	AmountOut  string
	TokenIn    uint64
	PriceLimit string
	StepBudget int
	LogLevel   string

	TokenOut    uint64
	DecimalsIn  uint8
	DecimalsOut uint8
}

func loadConfig(cfgFile string, flags *pflag.FlagSet) (config, error) {
	v := viper.New()
	v.SetEnvPrefix("QUOTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("quoter")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return config{
		PoolPath:    v.GetString("pool"),
		AmountIn:    v.GetString("amount-in"),
		AmountOut:   v.GetString("amount-out"),
		TokenIn:     v.GetUint64("token-in"),
		PriceLimit:  v.GetString("price-limit"),
		StepBudget:  v.GetInt("step-budget"),
		LogLevel:    v.GetString("log-level"),
		TokenOut:    v.GetUint64("token-out"),
		DecimalsIn:  uint8(v.GetUint("decimals-in")),
		DecimalsOut: uint8(v.GetUint("decimals-out")),
	}, nil
}

// poolSnapshot is the on-disk form of a pool: its scalar state plus the full
// list of initialized ticks.
type poolSnapshot struct {
	Pool  clmm.PoolView   `json:"pool"`
	Ticks []clmm.TickInfo `json:"ticks"`
}

func loadPool(path string, stepBudget int) (clmm.Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return clmm.Pool{}, fmt.Errorf("read pool snapshot: %w", err)
	}

	var snap poolSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return clmm.Pool{}, fmt.Errorf("parse pool snapshot: %w", err)
	}

	dir, err := clmm.NewTickListDirectory(snap.Ticks, snap.Pool.TickSpacing)
	if err != nil {
		return clmm.Pool{}, fmt.Errorf("index ticks: %w", err)
	}

	if stepBudget > 0 {
		snap.Pool.StepBudget = stepBudget
	}

	pool, err := clmm.NewPool(snap.Pool, dir)
	if err != nil {
		return clmm.Pool{}, fmt.Errorf("validate pool: %w", err)
	}
	return pool, nil
}

func parseOptionalInt(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a base-10 integer: %q", s)
	}
	return n, nil
}
