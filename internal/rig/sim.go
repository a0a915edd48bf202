package rig

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Sim is an in-process rig with a settable spot price. Cost scales linearly
// with quantity (cost = price × amount). It backs dry-run sessions and tests.
//
// Safe for concurrent use.
type Sim struct {
	mu      sync.Mutex
	addr    common.Address
	price   *big.Int
	epoch   uint64
	minted  *big.Int
	mintErr error
}

// NewSim returns a simulated rig priced at pricePerUnit wei, starting in
// epoch 1.
func NewSim(addr common.Address, pricePerUnit *big.Int) *Sim {
	return &Sim{
		addr:   addr,
		price:  new(big.Int).Set(pricePerUnit),
		epoch:  1,
		minted: new(big.Int),
	}
}

func (s *Sim) Address() common.Address { return s.addr }

// SetPrice replaces the spot price, simulating the rig repricing.
func (s *Sim) SetPrice(pricePerUnit *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.price = new(big.Int).Set(pricePerUnit)
}

// AdvanceEpoch moves the rig into the next pricing period.
func (s *Sim) AdvanceEpoch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
}

// FailMints makes every subsequent Mint return err until called with nil.
func (s *Sim) FailMints(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mintErr = err
}

// Minted returns the cumulative units issued.
func (s *Sim) Minted() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.minted)
}

func (s *Sim) SpotPrice(ctx context.Context) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.price), nil
}

func (s *Sim) QuoteCost(ctx context.Context, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("rig: quote amount must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Mul(s.price, amount), nil
}

func (s *Sim) CurrentEpoch(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch, nil
}

func (s *Sim) Mint(ctx context.Context, recipient common.Address, amount, payment *big.Int) error {
	if (recipient == common.Address{}) {
		return fmt.Errorf("rig: mint recipient missing")
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("rig: mint amount must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mintErr != nil {
		return s.mintErr
	}
	cost := new(big.Int).Mul(s.price, amount)
	if payment == nil || payment.Cmp(cost) < 0 {
		return fmt.Errorf("rig: payment %s below cost %s", payment, cost)
	}
	s.minted.Add(s.minted, amount)
	return nil
}
