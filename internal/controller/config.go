package controller

import (
	"fmt"
	"math/big"
	"time"
)

// MaxCooldownPeriod bounds how far apart an owner can force mints.
const MaxCooldownPeriod = 24 * time.Hour

// Config is the controller's mining policy. It is treated as an immutable
// snapshot: UpdateConfig replaces the whole value atomically, and accessors
// hand out deep copies, so a caller never observes a torn intermediate state.
type Config struct {
	// MaxPricePerUnit is the profitability ceiling in wei per unit.
	MaxPricePerUnit *big.Int

	// MinProfitMargin is a basis-point margin target. Stored and reported,
	// but not applied by any decision path; only MaxPricePerUnit gates
	// mining.
	MinProfitMargin int64

	// Mint quantity bounds per attempt.
	MaxMintAmount *big.Int
	MinMintAmount *big.Int

	// AutoMiningEnabled gates ExecuteMint entirely.
	AutoMiningEnabled bool

	// CooldownPeriod is the minimum spacing between successful mints.
	CooldownPeriod time.Duration

	// MaxGasPrice caps the effective gas price a mint submission may carry.
	MaxGasPrice *big.Int
}

// Validate enforces the configuration invariants UpdateConfig requires.
func (c Config) Validate() error {
	if c.MaxMintAmount == nil || c.MinMintAmount == nil {
		return fmt.Errorf("%w: mint amount bounds required", ErrInvalidConfig)
	}
	if c.MaxMintAmount.Cmp(c.MinMintAmount) < 0 {
		return fmt.Errorf("%w: maxMintAmount %s < minMintAmount %s",
			ErrInvalidConfig, c.MaxMintAmount, c.MinMintAmount)
	}
	if c.CooldownPeriod < 0 || c.CooldownPeriod > MaxCooldownPeriod {
		return fmt.Errorf("%w: cooldownPeriod %s outside [0, %s]",
			ErrInvalidConfig, c.CooldownPeriod, MaxCooldownPeriod)
	}
	if c.MaxGasPrice == nil || c.MaxGasPrice.Sign() <= 0 {
		return fmt.Errorf("%w: maxGasPrice must be positive", ErrInvalidConfig)
	}
	if c.MaxPricePerUnit == nil {
		return fmt.Errorf("%w: maxPricePerUnit required", ErrInvalidConfig)
	}
	return nil
}

// clone deep-copies the big.Int fields so the stored snapshot can never be
// mutated through a caller's retained pointers.
func (c Config) clone() Config {
	out := c
	out.MaxPricePerUnit = copyBig(c.MaxPricePerUnit)
	out.MaxMintAmount = copyBig(c.MaxMintAmount)
	out.MinMintAmount = copyBig(c.MinMintAmount)
	out.MaxGasPrice = copyBig(c.MaxGasPrice)
	return out
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
