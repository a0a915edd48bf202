// Package mintlog defines the controller's domain event schema as Ethereum
// logs: keccak event topics, indexed parameters in topics, remaining words in
// data. The controller encodes these into the receipts it returns; the
// monitor and any audit tooling decode them back.
package mintlog

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	MintCompletedTopic    = crypto.Keccak256Hash([]byte("MintCompleted(address,uint256,uint256,uint256)"))
	ConfigUpdatedTopic    = crypto.Keccak256Hash([]byte("ConfigUpdated(uint256,uint256,uint256,uint256,bool,uint256,uint256)"))
	FundsWithdrawnTopic   = crypto.Keccak256Hash([]byte("FundsWithdrawn(address,uint256)"))
	AssetWithdrawnTopic   = crypto.Keccak256Hash([]byte("AssetWithdrawn(address,address,uint256)"))
	EmergencyStoppedTopic = crypto.Keccak256Hash([]byte("EmergencyStopped(address)"))
)

// ErrNoMintEvent reports a receipt that carries no MintCompleted log from the
// expected emitter. A successful mint receipt without one is an anomaly.
var ErrNoMintEvent = fmt.Errorf("no MintCompleted event in receipt")

// MintCompleted records a successful guarded mint: who received the units,
// how many, the exact wei paid, and the rig epoch the mint landed in.
type MintCompleted struct {
	Recipient common.Address
	Amount    *big.Int
	Cost      *big.Int
	Epoch     uint64
}

func word(v *big.Int) []byte {
	if v == nil {
		v = new(big.Int)
	}
	return new(big.Int).Set(v).FillBytes(make([]byte, 32))
}

func boolWord(v bool) []byte {
	if v {
		return new(big.Int).SetInt64(1).FillBytes(make([]byte, 32))
	}
	return make([]byte, 32)
}

// EncodeMintCompleted builds the MintCompleted log as emitted by the
// controller at emitter. Recipient is indexed.
func EncodeMintCompleted(emitter common.Address, ev MintCompleted) *types.Log {
	data := make([]byte, 0, 96)
	data = append(data, word(ev.Amount)...)
	data = append(data, word(ev.Cost)...)
	data = append(data, word(new(big.Int).SetUint64(ev.Epoch))...)
	return &types.Log{
		Address: emitter,
		Topics: []common.Hash{
			MintCompletedTopic,
			common.BytesToHash(ev.Recipient.Bytes()),
		},
		Data: data,
	}
}

// DecodeMintCompleted parses a MintCompleted log.
//
// topics: 0 event sig, 1 recipient (address indexed)
// data:   amount | cost | epoch (32-byte words)
func DecodeMintCompleted(lg types.Log) (*MintCompleted, error) {
	if len(lg.Topics) < 2 || lg.Topics[0] != MintCompletedTopic {
		return nil, fmt.Errorf("not a MintCompleted log")
	}
	if len(lg.Data) < 32*3 {
		return nil, fmt.Errorf("unexpected MintCompleted data len=%d", len(lg.Data))
	}

	readU256 := func(i int) *big.Int {
		return new(big.Int).SetBytes(lg.Data[i*32 : i*32+32])
	}

	epoch := readU256(2)
	if !epoch.IsUint64() {
		return nil, fmt.Errorf("MintCompleted epoch overflows uint64")
	}
	return &MintCompleted{
		Recipient: common.BytesToAddress(lg.Topics[1].Bytes()),
		Amount:    readU256(0),
		Cost:      readU256(1),
		Epoch:     epoch.Uint64(),
	}, nil
}

// FindMintCompleted scans a receipt for the MintCompleted event emitted by
// emitter. Returns ErrNoMintEvent when the receipt has none.
func FindMintCompleted(receipt *types.Receipt, emitter common.Address) (*MintCompleted, error) {
	if receipt == nil {
		return nil, fmt.Errorf("receipt required")
	}
	for _, lg := range receipt.Logs {
		if lg == nil || len(lg.Topics) == 0 {
			continue
		}
		if lg.Address != emitter || lg.Topics[0] != MintCompletedTopic {
			continue
		}
		return DecodeMintCompleted(*lg)
	}
	return nil, ErrNoMintEvent
}

// ConfigUpdate carries the full replacement configuration, one word per
// field, in declaration order.
type ConfigUpdate struct {
	MaxPricePerUnit   *big.Int
	MinProfitMargin   *big.Int
	MaxMintAmount     *big.Int
	MinMintAmount     *big.Int
	AutoMiningEnabled bool
	CooldownSeconds   *big.Int
	MaxGasPrice       *big.Int
}

// EncodeConfigUpdated builds the ConfigUpdated log with every field in data.
func EncodeConfigUpdated(emitter common.Address, ev ConfigUpdate) *types.Log {
	data := make([]byte, 0, 32*7)
	data = append(data, word(ev.MaxPricePerUnit)...)
	data = append(data, word(ev.MinProfitMargin)...)
	data = append(data, word(ev.MaxMintAmount)...)
	data = append(data, word(ev.MinMintAmount)...)
	data = append(data, boolWord(ev.AutoMiningEnabled)...)
	data = append(data, word(ev.CooldownSeconds)...)
	data = append(data, word(ev.MaxGasPrice)...)
	return &types.Log{
		Address: emitter,
		Topics:  []common.Hash{ConfigUpdatedTopic},
		Data:    data,
	}
}

// EncodeFundsWithdrawn builds the FundsWithdrawn log. The amount is the
// resolved amount actually moved, never the zero "withdraw all" sentinel.
func EncodeFundsWithdrawn(emitter, to common.Address, amount *big.Int) *types.Log {
	return &types.Log{
		Address: emitter,
		Topics: []common.Hash{
			FundsWithdrawnTopic,
			common.BytesToHash(to.Bytes()),
		},
		Data: word(amount),
	}
}

// EncodeAssetWithdrawn builds the AssetWithdrawn log.
func EncodeAssetWithdrawn(emitter, asset, to common.Address, amount *big.Int) *types.Log {
	return &types.Log{
		Address: emitter,
		Topics: []common.Hash{
			AssetWithdrawnTopic,
			common.BytesToHash(asset.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data: word(amount),
	}
}

// EncodeEmergencyStopped builds the EmergencyStopped log.
func EncodeEmergencyStopped(emitter, by common.Address) *types.Log {
	return &types.Log{
		Address: emitter,
		Topics: []common.Hash{
			EmergencyStoppedTopic,
			common.BytesToHash(by.Bytes()),
		},
	}
}
