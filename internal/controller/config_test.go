package controller

import (
	"errors"
	"math/big"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		MaxPricePerUnit:   big.NewInt(1_000_000_000_000_000),
		MaxMintAmount:     big.NewInt(100),
		MinMintAmount:     big.NewInt(1),
		AutoMiningEnabled: true,
		CooldownPeriod:    300 * time.Second,
		MaxGasPrice:       big.NewInt(100_000_000_000),
	}
}

func TestConfigValidate_Accepts(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) {},
		func(c *Config) { c.MaxMintAmount = big.NewInt(1) }, // equal bounds
		func(c *Config) { c.CooldownPeriod = 0 },
		func(c *Config) { c.CooldownPeriod = MaxCooldownPeriod }, // boundary
		func(c *Config) { c.MaxGasPrice = big.NewInt(1) },
		func(c *Config) { c.AutoMiningEnabled = false },
		func(c *Config) { c.MinProfitMargin = -100 }, // informational, unvalidated
	}
	for i, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err != nil {
			t.Fatalf("case %d: unexpected error: %v", i, err)
		}
	}
}

func TestConfigValidate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"max below min", func(c *Config) { c.MaxMintAmount, c.MinMintAmount = big.NewInt(1), big.NewInt(10) }},
		{"nil max amount", func(c *Config) { c.MaxMintAmount = nil }},
		{"nil min amount", func(c *Config) { c.MinMintAmount = nil }},
		{"cooldown above one day", func(c *Config) { c.CooldownPeriod = MaxCooldownPeriod + time.Second }},
		{"negative cooldown", func(c *Config) { c.CooldownPeriod = -time.Second }},
		{"zero gas price", func(c *Config) { c.MaxGasPrice = big.NewInt(0) }},
		{"nil gas price", func(c *Config) { c.MaxGasPrice = nil }},
		{"nil price ceiling", func(c *Config) { c.MaxPricePerUnit = nil }},
	}
	for _, tc := range cases {
		cfg := validConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", tc.name, err)
		}
	}
}

func TestConfigClone_Isolated(t *testing.T) {
	cfg := validConfig()
	snap := cfg.clone()

	cfg.MaxPricePerUnit.SetInt64(7)
	if snap.MaxPricePerUnit.Int64() == 7 {
		t.Fatalf("clone shares MaxPricePerUnit storage")
	}
}
