// Package rig talks to the external pricing/minting mechanism. The rig sets
// the unit price and issues units against payment; its pricing algorithm is a
// black box, consumed only through the quoting interface below. A price read
// here is advisory — the rig may reprice between a quote and the mint that
// follows it.
package rig

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Rig is the quoting and minting boundary. Amounts are unit quantities,
// prices and costs are wei.
type Rig interface {
	// Address identifies the rig (the contract address for a deployed rig).
	Address() common.Address

	// SpotPrice returns the current price per unit.
	SpotPrice(ctx context.Context) (*big.Int, error)

	// QuoteCost returns the total cost to mint amount units right now.
	QuoteCost(ctx context.Context, amount *big.Int) (*big.Int, error)

	// CurrentEpoch returns the rig's pricing period identifier.
	CurrentEpoch(ctx context.Context) (uint64, error)

	// Mint pays payment wei to the rig and issues amount units to recipient.
	// The payment must cover the rig's cost at execution time.
	Mint(ctx context.Context, recipient common.Address, amount, payment *big.Int) error
}
