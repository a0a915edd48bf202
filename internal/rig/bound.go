package rig

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

const rigABIJSON = `[
  {"inputs":[],"name":"spotPrice","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"quoteCost","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"currentEpoch","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[
    {"internalType":"address","name":"recipient","type":"address"},
    {"internalType":"uint256","name":"amount","type":"uint256"}
  ],"name":"mint","outputs":[],"stateMutability":"payable","type":"function"}
]`

const boundCallTimeout = 12 * time.Second

// Bound is a Rig backed by a deployed rig contract reached over JSON-RPC.
// View calls are bounded by a fixed timeout; Mint sends a payable transaction
// and waits for it to be mined under the caller's context.
type Bound struct {
	addr     common.Address
	client   *ethclient.Client
	contract *bind.BoundContract
	key      *ecdsa.PrivateKey
	chainID  *big.Int
}

// DialBound connects to rpcURL and binds the rig contract at addr. key signs
// mint transactions; it may be nil for read-only use (Mint then fails).
func DialBound(ctx context.Context, rpcURL string, addr common.Address, key *ecdsa.PrivateKey) (*Bound, error) {
	if (addr == common.Address{}) {
		return nil, fmt.Errorf("rig address missing")
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rig RPC: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("chain id: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(rigABIJSON))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("rig abi parse: %w", err)
	}
	return &Bound{
		addr:     addr,
		client:   client,
		contract: bind.NewBoundContract(addr, parsed, client, client, client),
		key:      key,
		chainID:  chainID,
	}, nil
}

func (b *Bound) Address() common.Address { return b.addr }

// Close releases the underlying RPC client.
func (b *Bound) Close() { b.client.Close() }

// BalanceAt reads the native balance of addr, used to seed the controller's
// custody ledger from the chain at startup.
func (b *Bound) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	callCtx, cancel := context.WithTimeout(ctx, boundCallTimeout)
	defer cancel()
	bal, err := b.client.BalanceAt(callCtx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", addr.Hex(), err)
	}
	return bal, nil
}

func (b *Bound) callUint256(ctx context.Context, method string, params ...interface{}) (*big.Int, error) {
	callCtx, cancel := context.WithTimeout(ctx, boundCallTimeout)
	defer cancel()

	var out []interface{}
	if err := b.contract.Call(&bind.CallOpts{Context: callCtx}, &out, method, params...); err != nil {
		return nil, fmt.Errorf("rig %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("rig %s: empty result", method)
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("rig %s: unexpected result type %T", method, out[0])
	}
	return v, nil
}

func (b *Bound) SpotPrice(ctx context.Context) (*big.Int, error) {
	return b.callUint256(ctx, "spotPrice")
}

func (b *Bound) QuoteCost(ctx context.Context, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("rig: quote amount must be positive")
	}
	return b.callUint256(ctx, "quoteCost", amount)
}

func (b *Bound) CurrentEpoch(ctx context.Context) (uint64, error) {
	v, err := b.callUint256(ctx, "currentEpoch")
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("rig: epoch overflows uint64")
	}
	return v.Uint64(), nil
}

func (b *Bound) Mint(ctx context.Context, recipient common.Address, amount, payment *big.Int) error {
	if b.key == nil {
		return fmt.Errorf("rig: no signing key configured")
	}
	opts, err := bind.NewKeyedTransactorWithChainID(b.key, b.chainID)
	if err != nil {
		return err
	}
	opts.Context = ctx
	opts.Value = new(big.Int).Set(payment)

	tx, err := b.contract.Transact(opts, "mint", recipient, amount)
	if err != nil {
		return fmt.Errorf("rig mint submit: %w", err)
	}
	receipt, err := bind.WaitMined(ctx, b.client, tx)
	if err != nil {
		return fmt.Errorf("rig mint wait %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("rig mint reverted (tx=%s)", tx.Hash().Hex())
	}
	return nil
}
