// Package controller implements the guarded custodial state machine that
// fronts the rig. It holds the funds, the mining policy, and the two
// authorization sets, and it re-validates every precondition itself on each
// mutating call — the off-chain monitor's profitability check is advisory,
// the checks here are authoritative.
package controller

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"rig-mintbot/internal/ethutil"
	"rig-mintbot/internal/mintlog"
	"rig-mintbot/internal/rig"
)

// Call identifies who is making a mutating call and on what submission
// terms, the analog of msg.sender / tx.gasprice for the in-process state
// machine.
type Call struct {
	Caller   common.Address
	GasPrice *big.Int // effective gas price of the submission; nil means zero
}

// Profitability is the advisory read ExecuteMint's own recheck mirrors.
type Profitability struct {
	Profitable        bool
	CurrentPrice      *big.Int
	RecommendedAmount *big.Int
}

// MiningStatus aggregates the live view an operator or monitor polls.
type MiningStatus struct {
	Enabled          bool
	CanMintNow       bool
	CurrentPrice     *big.Int
	NextMintTime     time.Time
	AvailableBalance *big.Int
	CurrentEpoch     uint64
}

// Controller is safe for concurrent use. Mutating operations hold the write
// lock for their entire execution, including the outbound rig call, so state
// transitions are atomic and at most one mutation is mid-flight at a time.
// Reads snapshot state under the read lock and never hold it across I/O.
type Controller struct {
	mu sync.RWMutex

	addr     common.Address
	rig      rig.Rig
	owners   map[common.Address]struct{}
	managers map[common.Address]struct{}

	cfg      Config
	balance  *big.Int
	assets   map[common.Address]*big.Int
	lastMint time.Time

	now func() time.Time
}

// Option adjusts controller construction.
type Option func(*Controller)

// WithClock replaces the time source. Tests use this to drive the cooldown.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New builds a controller custodied at addr, fronting r, with the given
// authorization sets and initial policy. The owner and manager sets are fixed
// at construction and may overlap.
func New(addr common.Address, r rig.Rig, owners, managers []common.Address, cfg Config, opts ...Option) (*Controller, error) {
	if r == nil {
		return nil, fmt.Errorf("rig required")
	}
	if len(owners) == 0 {
		return nil, fmt.Errorf("at least one owner required")
	}
	if len(managers) == 0 {
		return nil, fmt.Errorf("at least one manager required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		addr:     addr,
		rig:      r,
		owners:   ethutil.AddressSet(owners),
		managers: ethutil.AddressSet(managers),
		cfg:      cfg.clone(),
		balance:  new(big.Int),
		assets:   make(map[common.Address]*big.Int),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Address is the controller's custody identity; its emitted logs carry it.
func (c *Controller) Address() common.Address { return c.addr }

// RigAddress identifies the rig this controller fronts.
func (c *Controller) RigAddress() common.Address { return c.rig.Address() }

// Deposit credits amount wei to custody. Anyone may fund the controller.
func (c *Controller) Deposit(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("deposit amount must be positive")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balance.Add(c.balance, amount)
	return nil
}

// DepositAsset credits amount of the given asset to custody.
func (c *Controller) DepositAsset(asset common.Address, amount *big.Int) error {
	if (asset == common.Address{}) {
		return fmt.Errorf("asset address missing")
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("deposit amount must be positive")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.assets[asset] == nil {
		c.assets[asset] = new(big.Int)
	}
	c.assets[asset].Add(c.assets[asset], amount)
	return nil
}

// Balance returns the available custody balance in wei.
func (c *Controller) Balance() *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return new(big.Int).Set(c.balance)
}

// AssetBalance returns the custody balance of one asset.
func (c *Controller) AssetBalance(asset common.Address) *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if b := c.assets[asset]; b != nil {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// Config returns a snapshot of the current policy.
func (c *Controller) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.clone()
}

// LastMintTime is when the last successful mint landed; zero means never.
func (c *Controller) LastMintTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastMint
}

// CheckProfitability fetches the rig's live spot price and applies the
// policy: profitable iff price ≤ maxPricePerUnit, recommending the full
// maxMintAmount when it is. Pure read, safe at any frequency.
func (c *Controller) CheckProfitability(ctx context.Context) (Profitability, error) {
	c.mu.RLock()
	cfg := c.cfg.clone()
	c.mu.RUnlock()

	price, err := c.rig.SpotPrice(ctx)
	if err != nil {
		return Profitability{}, fmt.Errorf("spot price: %w", err)
	}

	if price.Cmp(cfg.MaxPricePerUnit) > 0 {
		return Profitability{
			Profitable:        false,
			CurrentPrice:      price,
			RecommendedAmount: new(big.Int),
		}, nil
	}
	return Profitability{
		Profitable:        true,
		CurrentPrice:      price,
		RecommendedAmount: cfg.MaxMintAmount,
	}, nil
}

// MiningStatus combines live rig state with the cooldown timer and enabled
// flag. It mirrors, but does not replace, the checks inside ExecuteMint.
func (c *Controller) MiningStatus(ctx context.Context) (MiningStatus, error) {
	c.mu.RLock()
	cfg := c.cfg.clone()
	lastMint := c.lastMint
	balance := new(big.Int).Set(c.balance)
	c.mu.RUnlock()

	price, err := c.rig.SpotPrice(ctx)
	if err != nil {
		return MiningStatus{}, fmt.Errorf("spot price: %w", err)
	}
	epoch, err := c.rig.CurrentEpoch(ctx)
	if err != nil {
		return MiningStatus{}, fmt.Errorf("current epoch: %w", err)
	}

	var next time.Time
	if !lastMint.IsZero() {
		next = lastMint.Add(cfg.CooldownPeriod)
	}
	now := c.now()
	cooled := lastMint.IsZero() || !now.Before(next)

	return MiningStatus{
		Enabled:          cfg.AutoMiningEnabled,
		CanMintNow:       price.Cmp(cfg.MaxPricePerUnit) <= 0 && cooled,
		CurrentPrice:     price,
		NextMintTime:     next,
		AvailableBalance: balance,
		CurrentEpoch:     epoch,
	}, nil
}

// ExecuteMint forwards a mint to the rig after every guard passes. Guards run
// in a fixed order, each failing with its own sentinel: enabled, amount
// bounds, cooldown, gas price, balance against the live quote, and the
// quote's implied unit price against the ceiling. The quote is fetched fresh
// here — a spot price read moments earlier does not bind.
//
// All-or-nothing: if the rig call fails, no funds leave custody and the
// cooldown timer does not advance.
func (c *Controller) ExecuteMint(ctx context.Context, call Call, recipient common.Address, amount *big.Int) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.managers[call.Caller]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotManager, call.Caller.Hex())
	}
	if !c.cfg.AutoMiningEnabled {
		return nil, ErrMiningDisabled
	}
	if amount == nil || amount.Sign() <= 0 ||
		amount.Cmp(c.cfg.MinMintAmount) < 0 || amount.Cmp(c.cfg.MaxMintAmount) > 0 {
		return nil, fmt.Errorf("%w: amount=%s bounds=[%s,%s]",
			ErrAmountOutOfRange, amount, c.cfg.MinMintAmount, c.cfg.MaxMintAmount)
	}
	now := c.now()
	if !c.lastMint.IsZero() {
		if eligible := c.lastMint.Add(c.cfg.CooldownPeriod); now.Before(eligible) {
			return nil, fmt.Errorf("%w: %s remaining", ErrCooldownActive, eligible.Sub(now).Round(time.Second))
		}
	}
	if call.GasPrice != nil && call.GasPrice.Cmp(c.cfg.MaxGasPrice) > 0 {
		return nil, fmt.Errorf("%w: gasPrice=%s max=%s", ErrGasPriceTooHigh, call.GasPrice, c.cfg.MaxGasPrice)
	}

	cost, err := c.rig.QuoteCost(ctx, amount)
	if err != nil {
		return nil, fmt.Errorf("quote cost: %w", err)
	}
	if cost.Cmp(c.balance) > 0 {
		return nil, fmt.Errorf("%w: cost=%s balance=%s", ErrInsufficientBalance, cost, c.balance)
	}
	unitPrice := new(big.Int).Quo(cost, amount)
	if unitPrice.Cmp(c.cfg.MaxPricePerUnit) > 0 {
		return nil, fmt.Errorf("%w: unitPrice=%s max=%s", ErrPriceTooHigh, unitPrice, c.cfg.MaxPricePerUnit)
	}

	epoch, err := c.rig.CurrentEpoch(ctx)
	if err != nil {
		return nil, fmt.Errorf("current epoch: %w", err)
	}

	if err := c.rig.Mint(ctx, recipient, amount, cost); err != nil {
		return nil, fmt.Errorf("rig mint: %w", err)
	}

	c.balance.Sub(c.balance, cost)
	c.lastMint = now

	return c.receipt(mintlog.EncodeMintCompleted(c.addr, mintlog.MintCompleted{
		Recipient: recipient,
		Amount:    new(big.Int).Set(amount),
		Cost:      cost,
		Epoch:     epoch,
	})), nil
}

// UpdateConfig atomically replaces the whole policy after validation.
func (c *Controller) UpdateConfig(call Call, cfg Config) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.owners[call.Caller]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotOwner, call.Caller.Hex())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c.cfg = cfg.clone()
	return c.receipt(mintlog.EncodeConfigUpdated(c.addr, mintlog.ConfigUpdate{
		MaxPricePerUnit:   c.cfg.MaxPricePerUnit,
		MinProfitMargin:   big.NewInt(c.cfg.MinProfitMargin),
		MaxMintAmount:     c.cfg.MaxMintAmount,
		MinMintAmount:     c.cfg.MinMintAmount,
		AutoMiningEnabled: c.cfg.AutoMiningEnabled,
		CooldownSeconds:   big.NewInt(int64(c.cfg.CooldownPeriod / time.Second)),
		MaxGasPrice:       c.cfg.MaxGasPrice,
	})), nil
}

// EmergencyStop disables auto mining. Idempotent; touches neither funds nor
// the cooldown timer.
func (c *Controller) EmergencyStop(call Call) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.owners[call.Caller]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotOwner, call.Caller.Hex())
	}

	cfg := c.cfg.clone()
	cfg.AutoMiningEnabled = false
	c.cfg = cfg
	return c.receipt(mintlog.EncodeEmergencyStopped(c.addr, call.Caller)), nil
}

// WithdrawFunds moves amount wei of custody to the recipient. amount nil or
// zero means the entire available balance. The emitted event carries the
// resolved amount.
func (c *Controller) WithdrawFunds(call Call, to common.Address, amount *big.Int) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.owners[call.Caller]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotOwner, call.Caller.Hex())
	}
	resolved, err := resolveWithdrawal(c.balance, to, amount)
	if err != nil {
		return nil, err
	}

	c.balance.Sub(c.balance, resolved)
	return c.receipt(mintlog.EncodeFundsWithdrawn(c.addr, to, resolved)), nil
}

// WithdrawAsset is WithdrawFunds over the per-asset ledger.
func (c *Controller) WithdrawAsset(call Call, asset, to common.Address, amount *big.Int) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.owners[call.Caller]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotOwner, call.Caller.Hex())
	}
	if (asset == common.Address{}) {
		return nil, fmt.Errorf("asset address missing")
	}
	held := c.assets[asset]
	if held == nil {
		held = new(big.Int)
	}
	resolved, err := resolveWithdrawal(held, to, amount)
	if err != nil {
		return nil, err
	}

	held.Sub(held, resolved)
	return c.receipt(mintlog.EncodeAssetWithdrawn(c.addr, asset, to, resolved)), nil
}

// resolveWithdrawal applies the zero-means-everything sentinel and the
// recipient/balance guards shared by both withdrawal paths.
func resolveWithdrawal(available *big.Int, to common.Address, amount *big.Int) (*big.Int, error) {
	if (to == common.Address{}) {
		return nil, ErrInvalidRecipient
	}
	resolved := amount
	if resolved == nil || resolved.Sign() == 0 {
		resolved = available
	}
	if resolved.Sign() <= 0 {
		return nil, ErrNothingToWithdraw
	}
	if resolved.Cmp(available) > 0 {
		return nil, fmt.Errorf("%w: requested=%s available=%s", ErrInsufficientBalance, resolved, available)
	}
	return new(big.Int).Set(resolved), nil
}

func (c *Controller) receipt(logs ...*types.Log) *types.Receipt {
	return &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		Logs:   logs,
	}
}
