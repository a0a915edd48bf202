package monitor

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"rig-mintbot/internal/controller"
	"rig-mintbot/internal/mintlog"
)

var (
	ctrlAddr  = common.HexToAddress("0x00000000000000000000000000000000000000C1")
	operator  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	recipient = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

type fakeController struct {
	status    controller.MiningStatus
	statusErr error
	prof      controller.Profitability
	profErr   error

	mintReceipt *types.Receipt
	mintErr     error
	mintCalls   int
	lastCall    controller.Call
	lastAmount  *big.Int
}

func (f *fakeController) Address() common.Address { return ctrlAddr }

func (f *fakeController) MiningStatus(ctx context.Context) (controller.MiningStatus, error) {
	return f.status, f.statusErr
}

func (f *fakeController) CheckProfitability(ctx context.Context) (controller.Profitability, error) {
	return f.prof, f.profErr
}

func (f *fakeController) ExecuteMint(ctx context.Context, call controller.Call, to common.Address, amount *big.Int) (*types.Receipt, error) {
	f.mintCalls++
	f.lastCall = call
	f.lastAmount = amount
	return f.mintReceipt, f.mintErr
}

func favorableFake() *fakeController {
	price := big.NewInt(500_000_000_000_000)
	return &fakeController{
		status: controller.MiningStatus{
			Enabled:          true,
			CanMintNow:       true,
			CurrentPrice:     price,
			AvailableBalance: big.NewInt(1e18),
			CurrentEpoch:     1,
		},
		prof: controller.Profitability{
			Profitable:        true,
			CurrentPrice:      price,
			RecommendedAmount: big.NewInt(100),
		},
		mintReceipt: &types.Receipt{
			Status: types.ReceiptStatusSuccessful,
			Logs: []*types.Log{mintlog.EncodeMintCompleted(ctrlAddr, mintlog.MintCompleted{
				Recipient: recipient,
				Amount:    big.NewInt(100),
				Cost:      big.NewInt(50_000_000_000_000_000),
				Epoch:     1,
			})},
		},
	}
}

func newTestMonitor(f *fakeController) *Monitor {
	return New(f, Options{
		Operator:     operator,
		Recipient:    recipient,
		GasFeeCap:    big.NewInt(50_000_000_000),
		PollInterval: time.Second,
	})
}

func TestTick_MintsWhenFavorable(t *testing.T) {
	f := favorableFake()
	m := newTestMonitor(f)

	if got := m.tick(context.Background()); got != outcomeMinted {
		t.Fatalf("outcome mismatch: got %s want %s", got, outcomeMinted)
	}
	if f.mintCalls != 1 {
		t.Fatalf("mint calls: got %d want 1", f.mintCalls)
	}
	if f.lastCall.Caller != operator {
		t.Fatalf("caller mismatch: got %s want %s", f.lastCall.Caller.Hex(), operator.Hex())
	}
	if f.lastCall.GasPrice.Cmp(big.NewInt(50_000_000_000)) != 0 {
		t.Fatalf("gas cap not attached: got %s", f.lastCall.GasPrice)
	}
	if f.lastAmount.Int64() != 100 {
		t.Fatalf("amount mismatch: got %s want 100", f.lastAmount)
	}

	st := m.Stats()
	if st.Checks != 1 || st.Mints != 1 {
		t.Fatalf("stats mismatch: checks=%d mints=%d", st.Checks, st.Mints)
	}
	if got, want := st.UnitsMinted.String(), "100"; got != want {
		t.Fatalf("units mismatch: got %s want %s", got, want)
	}
	if got, want := st.WeiSpent.String(), "50000000000000000"; got != want {
		t.Fatalf("spent mismatch: got %s want %s", got, want)
	}
	if st.LastMintAt.IsZero() {
		t.Fatalf("last mint time not recorded")
	}
}

func TestTick_SkipsWhenDisabled(t *testing.T) {
	f := favorableFake()
	f.status.Enabled = false
	m := newTestMonitor(f)

	if got := m.tick(context.Background()); got != outcomeSkipDisabled {
		t.Fatalf("outcome mismatch: got %s want %s", got, outcomeSkipDisabled)
	}
	if f.mintCalls != 0 {
		t.Fatalf("mint must not be attempted when disabled")
	}
}

func TestTick_SkipsDuringCooldown(t *testing.T) {
	f := favorableFake()
	f.status.CanMintNow = false
	f.status.NextMintTime = time.Now().Add(90 * time.Second)
	m := newTestMonitor(f)

	if got := m.tick(context.Background()); got != outcomeSkipCooldown {
		t.Fatalf("outcome mismatch: got %s want %s", got, outcomeSkipCooldown)
	}
	if f.mintCalls != 0 {
		t.Fatalf("mint must not be attempted during cooldown")
	}
}

func TestTick_SkipsWhenUnprofitable(t *testing.T) {
	f := favorableFake()
	f.prof = controller.Profitability{
		Profitable:        false,
		CurrentPrice:      big.NewInt(2_000_000_000_000_000),
		RecommendedAmount: new(big.Int),
	}
	m := newTestMonitor(f)

	if got := m.tick(context.Background()); got != outcomeSkipUnprofitable {
		t.Fatalf("outcome mismatch: got %s want %s", got, outcomeSkipUnprofitable)
	}
	if f.mintCalls != 0 {
		t.Fatalf("mint must not be attempted when unprofitable")
	}
}

func TestTick_DryRunNeverMints(t *testing.T) {
	f := favorableFake()
	m := New(f, Options{
		Operator:     operator,
		Recipient:    recipient,
		PollInterval: time.Second,
		DryRun:       true,
	})

	if got := m.tick(context.Background()); got != outcomeDryRun {
		t.Fatalf("outcome mismatch: got %s want %s", got, outcomeDryRun)
	}
	if f.mintCalls != 0 {
		t.Fatalf("dry-run must not mint")
	}
}

func TestTick_ReceiptWithoutEventIsAnomaly(t *testing.T) {
	f := favorableFake()
	f.mintReceipt = &types.Receipt{Status: types.ReceiptStatusSuccessful}
	m := newTestMonitor(f)

	if got := m.tick(context.Background()); got != outcomeAnomaly {
		t.Fatalf("outcome mismatch: got %s want %s", got, outcomeAnomaly)
	}
	st := m.Stats()
	if st.Mints != 0 || st.UnitsMinted.Sign() != 0 {
		t.Fatalf("anomaly must not update mint stats: %+v", st)
	}
}

func TestTick_GuardFailureKeepsLoopAlive(t *testing.T) {
	f := favorableFake()
	f.mintReceipt = nil
	f.mintErr = controller.ErrCooldownActive
	m := newTestMonitor(f)

	if got := m.tick(context.Background()); got != outcomeError {
		t.Fatalf("outcome mismatch: got %s want %s", got, outcomeError)
	}
	if m.Stats().Errors != 1 {
		t.Fatalf("errors: got %d want 1", m.Stats().Errors)
	}

	// Next tick proceeds normally once the guard clears.
	f.mintErr = nil
	f.mintReceipt = favorableFake().mintReceipt
	if got := m.tick(context.Background()); got != outcomeMinted {
		t.Fatalf("outcome mismatch after recovery: got %s want %s", got, outcomeMinted)
	}
}

func TestTick_TransportFailureCounted(t *testing.T) {
	f := favorableFake()
	f.statusErr = context.DeadlineExceeded
	m := newTestMonitor(f)

	if got := m.tick(context.Background()); got != outcomeError {
		t.Fatalf("outcome mismatch: got %s want %s", got, outcomeError)
	}
	if m.Stats().Errors != 1 {
		t.Fatalf("errors: got %d want 1", m.Stats().Errors)
	}
	if f.mintCalls != 0 {
		t.Fatalf("mint must not be attempted after a failed status read")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	f := favorableFake()
	f.status.Enabled = false
	m := New(f, Options{
		Operator:     operator,
		Recipient:    recipient,
		PollInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
	if m.Stats().Checks == 0 {
		t.Fatalf("expected at least one tick before shutdown")
	}
}
