// Package monitor drives the controller: a single-threaded polling loop that
// reads the controller's views, applies the same profitability and cooldown
// policy as a cheap pre-check, and submits a guarded mint when favorable.
// Every decision the loop makes is advisory — the controller re-validates on
// the mint path, and a losing race with another operator just shows up here
// as one more guard failure.
package monitor

import (
	"context"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"rig-mintbot/internal/controller"
	"rig-mintbot/internal/ethutil"
	"rig-mintbot/internal/jsonl"
	"rig-mintbot/internal/mintlog"
)

// Controller is the surface the monitor polls and drives.
type Controller interface {
	Address() common.Address
	MiningStatus(ctx context.Context) (controller.MiningStatus, error)
	CheckProfitability(ctx context.Context) (controller.Profitability, error)
	ExecuteMint(ctx context.Context, call controller.Call, recipient common.Address, amount *big.Int) (*types.Receipt, error)
}

const (
	defaultPollInterval = 60 * time.Second
	defaultStatsEvery   = 10
)

// Options configures a monitor run.
type Options struct {
	// Operator is the identity mint calls are made under (a manager).
	Operator common.Address

	// Recipient receives minted units.
	Recipient common.Address

	// GasFeeCap is the fixed upper gas price attached to every submission,
	// a safety bound distinct from the controller's on-chain maxGasPrice.
	GasFeeCap *big.Int

	// PollInterval between ticks. Defaults to 60s.
	PollInterval time.Duration

	// StatsEvery logs accumulated statistics every N ticks. Defaults to 10.
	StatsEvery int

	// MintTimeout bounds one mint submission plus confirmation wait, so a
	// stalled transport cannot wedge the loop forever. Defaults to twice
	// the poll interval.
	MintTimeout time.Duration

	// DryRun evaluates every tick but never submits a mint.
	DryRun bool

	// EventLog receives one JSONL record per tick outcome. May be nil.
	EventLog *jsonl.Writer
}

// Monitor owns the loop and its process-lifetime statistics.
type Monitor struct {
	ctrl Controller
	opts Options

	stats     *Stats
	startedAt time.Time
	now       func() time.Time
}

// New prepares a monitor. Zero-valued options get their defaults.
func New(ctrl Controller, opts Options) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.StatsEvery <= 0 {
		opts.StatsEvery = defaultStatsEvery
	}
	if opts.MintTimeout <= 0 {
		opts.MintTimeout = 2 * opts.PollInterval
	}
	return &Monitor{
		ctrl:  ctrl,
		opts:  opts,
		stats: newStats(),
		now:   time.Now,
	}
}

// Stats exposes the accumulated counters, for the final report.
func (m *Monitor) Stats() *Stats { return m.stats }

// Run polls until ctx is canceled. Ticks never overlap; a failed tick is
// counted and logged, never fatal. Returns nil on cooperative shutdown.
func (m *Monitor) Run(ctx context.Context) error {
	m.startedAt = m.now()
	log.Printf("[info] monitor started (poll=%s recipient=%s mode=%s)",
		m.opts.PollInterval, m.opts.Recipient.Hex(), runMode(m.opts.DryRun))
	logMintEvent(m.opts.EventLog, mintLogEvent{
		Event:     "start",
		Mode:      runMode(m.opts.DryRun),
		Recipient: m.opts.Recipient.Hex(),
	})

	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	ticks := 0
	for {
		m.tick(ctx)
		ticks++
		if ticks%m.opts.StatsEvery == 0 {
			m.stats.logSummary(m.startedAt)
		}

		select {
		case <-ctx.Done():
			m.finish()
			return nil
		case <-ticker.C:
		}
	}
}

func (m *Monitor) finish() {
	log.Printf("[info] monitor stopping")
	m.stats.logSummary(m.startedAt)
	logMintEvent(m.opts.EventLog, mintLogEvent{
		Event:       "summary",
		Mode:        runMode(m.opts.DryRun),
		Checks:      m.stats.Checks,
		Mints:       m.stats.Mints,
		UnitsMinted: m.stats.UnitsMinted.String(),
		WeiSpent:    m.stats.WeiSpent.String(),
		Errors:      m.stats.Errors,
		UptimeMs:    m.now().Sub(m.startedAt).Milliseconds(),
	})
}

const (
	outcomeMinted           = "minted"
	outcomeDryRun           = "dry_run"
	outcomeSkipDisabled     = "skip_disabled"
	outcomeSkipCooldown     = "skip_cooldown"
	outcomeSkipUnprofitable = "skip_unprofitable"
	outcomeAnomaly          = "anomaly"
	outcomeError            = "error"
)

// tick runs one poll cycle and returns the outcome it logged.
func (m *Monitor) tick(ctx context.Context) string {
	m.stats.Checks++

	status, err := m.ctrl.MiningStatus(ctx)
	if err != nil {
		return m.tickError("mining status", err)
	}
	if !status.Enabled {
		log.Printf("[info] mining disabled; waiting")
		m.emitTick(outcomeSkipDisabled, "", status.CurrentPrice)
		return outcomeSkipDisabled
	}
	if !status.CanMintNow {
		reason := "price above ceiling"
		if !status.NextMintTime.IsZero() {
			if wait := status.NextMintTime.Sub(m.now()); wait > 0 {
				reason = "cooldown"
				log.Printf("[info] cooldown active; next eligible mint in %s", wait.Round(time.Second))
				m.emitTick(outcomeSkipCooldown, reason, status.CurrentPrice)
				return outcomeSkipCooldown
			}
		}
		log.Printf("[info] cannot mint now (%s, price=%s)", reason, ethutil.FormatEther(status.CurrentPrice))
		m.emitTick(outcomeSkipUnprofitable, reason, status.CurrentPrice)
		return outcomeSkipUnprofitable
	}

	prof, err := m.ctrl.CheckProfitability(ctx)
	if err != nil {
		return m.tickError("profitability check", err)
	}
	if !prof.Profitable || prof.RecommendedAmount == nil || prof.RecommendedAmount.Sign() == 0 {
		log.Printf("[info] not profitable (price=%s)", ethutil.FormatEther(prof.CurrentPrice))
		m.emitTick(outcomeSkipUnprofitable, "not profitable", prof.CurrentPrice)
		return outcomeSkipUnprofitable
	}

	if m.opts.DryRun {
		log.Printf("[info] dry-run: would mint %s units at price=%s",
			prof.RecommendedAmount, ethutil.FormatEther(prof.CurrentPrice))
		m.emitTick(outcomeDryRun, "", prof.CurrentPrice)
		return outcomeDryRun
	}

	mintCtx, cancel := context.WithTimeout(ctx, m.opts.MintTimeout)
	defer cancel()

	receipt, err := m.ctrl.ExecuteMint(mintCtx, controller.Call{
		Caller:   m.opts.Operator,
		GasPrice: m.opts.GasFeeCap,
	}, m.opts.Recipient, prof.RecommendedAmount)
	if err != nil {
		return m.tickError("execute mint", err)
	}

	ev, err := mintlog.FindMintCompleted(receipt, m.ctrl.Address())
	if err != nil {
		// Confirmed but no event: log it, don't count a mint we can't prove.
		log.Printf("[warn] mint confirmed without MintCompleted event: %v", err)
		m.emitTick(outcomeAnomaly, err.Error(), prof.CurrentPrice)
		return outcomeAnomaly
	}

	m.stats.recordMint(ev.Amount, ev.Cost, m.now())
	log.Printf("[info] minted %s units for %s (recipient=%s epoch=%d)",
		ev.Amount, ethutil.FormatEther(ev.Cost), ev.Recipient.Hex(), ev.Epoch)
	logMintEvent(m.opts.EventLog, mintLogEvent{
		Event:     "mint",
		Mode:      runMode(m.opts.DryRun),
		Outcome:   outcomeMinted,
		PriceWei:  prof.CurrentPrice.String(),
		Amount:    ev.Amount.String(),
		CostWei:   ev.Cost.String(),
		Epoch:     ev.Epoch,
		Recipient: ev.Recipient.Hex(),
	})
	return outcomeMinted
}

func (m *Monitor) tickError(op string, err error) string {
	m.stats.Errors++
	kind := classifyFailure(err)
	switch kind {
	case failureGuard:
		// Expected steady-state outcome: another operator won the window,
		// or the rig repriced between the poll and the call.
		log.Printf("[info] %s: not yet: %v", op, err)
	case failureAuthorization:
		log.Printf("[warn] %s: authorization failure: %v", op, err)
	case failureTransport:
		log.Printf("[warn] %s: transport failure (will retry next tick): %v", op, err)
	default:
		log.Printf("[warn] %s failed (%s): %v", op, kind, err)
	}
	logMintEvent(m.opts.EventLog, mintLogEvent{
		Event:   "tick",
		Mode:    runMode(m.opts.DryRun),
		Outcome: outcomeError,
		Reason:  kind.String(),
		Err:     err.Error(),
	})
	return outcomeError
}

func (m *Monitor) emitTick(outcome, reason string, price *big.Int) {
	ev := mintLogEvent{
		Event:   "tick",
		Mode:    runMode(m.opts.DryRun),
		Outcome: outcome,
		Reason:  reason,
	}
	if price != nil {
		ev.PriceWei = price.String()
	}
	logMintEvent(m.opts.EventLog, ev)
}
