// mintstatus is a one-shot, read-only report of the controller's mining
// status and policy. It mutates nothing.
package main

import (
	"context"
	"log"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"rig-mintbot/internal/controller"
	"rig-mintbot/internal/dotenv"
	"rig-mintbot/internal/ethutil"
	"rig-mintbot/internal/rig"
)

func main() {
	log.SetFlags(0)

	if err := dotenv.Load(); err != nil {
		log.Printf("[warn] %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ctrlAddr := strings.TrimSpace(os.Getenv("CONTROLLER_ADDRESS"))
	if !common.IsHexAddress(ctrlAddr) {
		log.Fatalf("[fatal] CONTROLLER_ADDRESS required")
	}

	owners, err := ethutil.ParseAddressList(os.Getenv("OWNER_ADDRESSES"))
	if err != nil || len(owners) == 0 {
		log.Fatalf("[fatal] OWNER_ADDRESSES required")
	}

	var r rig.Rig
	rpcURL := strings.TrimSpace(os.Getenv("RPC_URL"))
	if rpcURL == "" {
		price := big.NewInt(500_000_000_000_000)
		if raw := strings.TrimSpace(os.Getenv("SIM_PRICE_WEI")); raw != "" {
			if price, err = ethutil.ParseWei(raw); err != nil {
				log.Fatalf("[fatal] SIM_PRICE_WEI: %v", err)
			}
		}
		r = rig.NewSim(common.HexToAddress("0x0000000000000000000000000000000000000719"), price)
	} else {
		rigAddr := strings.TrimSpace(os.Getenv("RIG_ADDRESS"))
		if !common.IsHexAddress(rigAddr) {
			log.Fatalf("[fatal] RIG_ADDRESS required with RPC_URL")
		}
		bound, err := rig.DialBound(ctx, rpcURL, common.HexToAddress(rigAddr), nil)
		if err != nil {
			log.Fatalf("[fatal] %v", err)
		}
		defer bound.Close()
		r = bound
	}

	cfg := controller.Config{
		MaxPricePerUnit:   weiEnv("MAX_PRICE_PER_UNIT_WEI", big.NewInt(1_000_000_000_000_000)),
		MaxMintAmount:     weiEnv("MAX_MINT_AMOUNT", big.NewInt(100)),
		MinMintAmount:     weiEnv("MIN_MINT_AMOUNT", big.NewInt(1)),
		AutoMiningEnabled: true,
		CooldownPeriod:    5 * time.Minute,
		MaxGasPrice:       weiEnv("MAX_GAS_PRICE_WEI", big.NewInt(100_000_000_000)),
	}

	ctrl, err := controller.New(common.HexToAddress(ctrlAddr), r, owners, owners, cfg)
	if err != nil {
		log.Fatalf("[fatal] %v", err)
	}

	status, err := ctrl.MiningStatus(ctx)
	if err != nil {
		log.Fatalf("[fatal] mining status: %v", err)
	}
	prof, err := ctrl.CheckProfitability(ctx)
	if err != nil {
		log.Fatalf("[fatal] profitability: %v", err)
	}

	log.Printf("Controller:   %s", ctrl.Address().Hex())
	log.Printf("Rig:          %s", ctrl.RigAddress().Hex())
	log.Printf("Enabled:      %v", status.Enabled)
	log.Printf("Can mint now: %v", status.CanMintNow)
	log.Printf("Spot price:   %s/unit", ethutil.FormatEther(status.CurrentPrice))
	log.Printf("Price limit:  %s/unit", ethutil.FormatEther(cfg.MaxPricePerUnit))
	log.Printf("Profitable:   %v (recommended=%s)", prof.Profitable, prof.RecommendedAmount)
	log.Printf("Balance:      %s", ethutil.FormatEther(status.AvailableBalance))
	log.Printf("Epoch:        %d", status.CurrentEpoch)
	if status.NextMintTime.IsZero() {
		log.Printf("Next mint:    now (never minted)")
	} else {
		log.Printf("Next mint:    %s", status.NextMintTime.Format(time.RFC3339))
	}
}

func weiEnv(name string, def *big.Int) *big.Int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := ethutil.ParseWei(raw)
	if err != nil {
		log.Fatalf("[fatal] %s: %v", name, err)
	}
	return v
}
