package main

import (
	"context"
	"crypto/ecdsa"
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"rig-mintbot/internal/controller"
	"rig-mintbot/internal/dotenv"
	"rig-mintbot/internal/ethutil"
	"rig-mintbot/internal/jsonl"
	"rig-mintbot/internal/monitor"
	"rig-mintbot/internal/rig"
)

type args struct {
	rpcURL         string
	rigAddr        common.Address
	controllerAddr common.Address

	operatorKey *ecdsa.PrivateKey
	operator    common.Address
	ephemeral   bool

	owners    []common.Address
	managers  []common.Address
	recipient common.Address

	cfg controller.Config

	pollInterval time.Duration
	statsEvery   int
	gasFeeCap    *big.Int
	enableMint   bool

	mintLogFile string

	// Simulation-only knobs, used when no RPC endpoint is configured.
	simPrice       *big.Int
	initialBalance *big.Int
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := dotenv.Load(); err != nil {
		log.Printf("[warn] %v", err)
	}

	parsed, err := parseArgs()
	if err != nil {
		log.Fatalf("[fatal] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, parsed); err != nil {
		log.Fatalf("[fatal] %v", err)
	}
}

func run(ctx context.Context, parsed args) error {
	var (
		r       rig.Rig
		balance *big.Int
	)
	if parsed.rpcURL == "" {
		sim := rig.NewSim(parsed.rigAddr, parsed.simPrice)
		log.Printf("[cfg] no RPC_URL set; simulated rig at price=%s/unit", ethutil.FormatEther(parsed.simPrice))
		r = sim
		balance = parsed.initialBalance
	} else {
		bound, err := rig.DialBound(ctx, parsed.rpcURL, parsed.rigAddr, parsed.operatorKey)
		if err != nil {
			return err
		}
		defer bound.Close()
		log.Printf("[cfg] rig %s via %s", parsed.rigAddr.Hex(), parsed.rpcURL)

		bal, err := bound.BalanceAt(ctx, parsed.controllerAddr)
		if err != nil {
			return err
		}
		r = bound
		balance = bal
	}

	ctrl, err := controller.New(parsed.controllerAddr, r, parsed.owners, parsed.managers, parsed.cfg)
	if err != nil {
		return err
	}
	if balance != nil && balance.Sign() > 0 {
		if err := ctrl.Deposit(balance); err != nil {
			return err
		}
	}
	log.Printf("[cfg] controller %s balance=%s owners=%d managers=%d",
		parsed.controllerAddr.Hex(), ethutil.FormatEther(ctrl.Balance()), len(parsed.owners), len(parsed.managers))
	log.Printf("[cfg] policy: maxPrice=%s/unit amounts=[%s,%s] cooldown=%s maxGas=%s",
		ethutil.FormatEther(parsed.cfg.MaxPricePerUnit), parsed.cfg.MinMintAmount, parsed.cfg.MaxMintAmount,
		parsed.cfg.CooldownPeriod, parsed.cfg.MaxGasPrice)

	eventLog, err := jsonl.Open(parsed.mintLogFile)
	if err != nil {
		return fmt.Errorf("open mint log: %w", err)
	}
	if eventLog != nil {
		log.Printf("[cfg] mint log: %s (JSONL)", parsed.mintLogFile)
		defer func() {
			if err := eventLog.Close(); err != nil {
				log.Printf("[warn] mint log close: %v", err)
			}
		}()
	}

	mon := monitor.New(ctrl, monitor.Options{
		Operator:     parsed.operator,
		Recipient:    parsed.recipient,
		GasFeeCap:    parsed.gasFeeCap,
		PollInterval: parsed.pollInterval,
		StatsEvery:   parsed.statsEvery,
		DryRun:       !parsed.enableMint,
		EventLog:     eventLog,
	})
	return mon.Run(ctx)
}

func parseArgs() (args, error) {
	var (
		flagPoll       = flag.Duration("poll", 0, "poll interval (overrides POLL_INTERVAL)")
		flagEnableMint = flag.Bool("enable-mint", false, "submit real mints (otherwise dry-run)")
		flagMintLog    = flag.String("mint-log", "", "JSONL event log path (overrides MINT_LOG_FILE)")
	)
	flag.Parse()

	var parsed args
	parsed.rpcURL = strings.TrimSpace(os.Getenv("RPC_URL"))
	parsed.enableMint = *flagEnableMint || envBool("ENABLE_MINT")

	// Operator credential. Required for live minting; dry-run sessions get an
	// ephemeral key so the rest of the wiring behaves identically.
	keyHex := strings.TrimPrefix(strings.TrimSpace(os.Getenv("PRIVATE_KEY")), "0x")
	switch {
	case keyHex != "":
		key, err := crypto.HexToECDSA(keyHex)
		if err != nil {
			return args{}, fmt.Errorf("parse PRIVATE_KEY: %w", err)
		}
		parsed.operatorKey = key
	case parsed.enableMint:
		return args{}, fmt.Errorf("PRIVATE_KEY required when minting is enabled")
	default:
		key, err := crypto.GenerateKey()
		if err != nil {
			return args{}, err
		}
		parsed.operatorKey = key
		parsed.ephemeral = true
	}
	parsed.operator = crypto.PubkeyToAddress(parsed.operatorKey.PublicKey)
	if parsed.ephemeral {
		log.Printf("[info] no private key provided; using ephemeral operator %s for dry-run", parsed.operator.Hex())
	}

	ctrlAddr := strings.TrimSpace(os.Getenv("CONTROLLER_ADDRESS"))
	if !common.IsHexAddress(ctrlAddr) {
		return args{}, fmt.Errorf("CONTROLLER_ADDRESS required")
	}
	parsed.controllerAddr = common.HexToAddress(ctrlAddr)

	rigAddr := strings.TrimSpace(os.Getenv("RIG_ADDRESS"))
	switch {
	case common.IsHexAddress(rigAddr):
		parsed.rigAddr = common.HexToAddress(rigAddr)
	case parsed.rpcURL != "":
		return args{}, fmt.Errorf("RIG_ADDRESS required with RPC_URL")
	default:
		// Simulated rig gets a fixed placeholder identity.
		parsed.rigAddr = common.HexToAddress("0x0000000000000000000000000000000000000719")
	}

	owners, err := ethutil.ParseAddressList(os.Getenv("OWNER_ADDRESSES"))
	if err != nil {
		return args{}, fmt.Errorf("OWNER_ADDRESSES: %w", err)
	}
	if len(owners) == 0 {
		return args{}, fmt.Errorf("OWNER_ADDRESSES required")
	}
	parsed.owners = owners

	managers, err := ethutil.ParseAddressList(os.Getenv("MANAGER_ADDRESSES"))
	if err != nil {
		return args{}, fmt.Errorf("MANAGER_ADDRESSES: %w", err)
	}
	if len(managers) == 0 {
		managers = []common.Address{parsed.operator}
	}
	parsed.managers = managers

	if recip := strings.TrimSpace(os.Getenv("MINT_RECIPIENT")); recip != "" {
		if !common.IsHexAddress(recip) {
			return args{}, fmt.Errorf("invalid MINT_RECIPIENT %q", recip)
		}
		parsed.recipient = common.HexToAddress(recip)
	} else {
		parsed.recipient = owners[0]
	}

	parsed.cfg, err = configFromEnv()
	if err != nil {
		return args{}, err
	}

	parsed.pollInterval = *flagPoll
	if parsed.pollInterval <= 0 {
		parsed.pollInterval, err = envDuration("POLL_INTERVAL", 60*time.Second)
		if err != nil {
			return args{}, err
		}
	}
	parsed.statsEvery = 10
	if raw := strings.TrimSpace(os.Getenv("STATS_EVERY")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return args{}, fmt.Errorf("invalid STATS_EVERY %q", raw)
		}
		parsed.statsEvery = n
	}

	parsed.gasFeeCap, err = envWei("GAS_FEE_CAP_WEI", big.NewInt(50_000_000_000)) // 50 gwei
	if err != nil {
		return args{}, err
	}

	parsed.mintLogFile = *flagMintLog
	if parsed.mintLogFile == "" {
		parsed.mintLogFile = strings.TrimSpace(os.Getenv("MINT_LOG_FILE"))
	}

	parsed.simPrice, err = envWei("SIM_PRICE_WEI", big.NewInt(500_000_000_000_000)) // 0.0005 ether
	if err != nil {
		return args{}, err
	}
	parsed.initialBalance, err = envWei("INITIAL_BALANCE_WEI", new(big.Int).Mul(big.NewInt(1), big.NewInt(1e18)))
	if err != nil {
		return args{}, err
	}

	return parsed, nil
}

func configFromEnv() (controller.Config, error) {
	maxPrice, err := envWei("MAX_PRICE_PER_UNIT_WEI", big.NewInt(1_000_000_000_000_000)) // 0.001 ether
	if err != nil {
		return controller.Config{}, err
	}
	maxGas, err := envWei("MAX_GAS_PRICE_WEI", big.NewInt(100_000_000_000)) // 100 gwei
	if err != nil {
		return controller.Config{}, err
	}
	maxAmount, err := envWei("MAX_MINT_AMOUNT", big.NewInt(100))
	if err != nil {
		return controller.Config{}, err
	}
	minAmount, err := envWei("MIN_MINT_AMOUNT", big.NewInt(1))
	if err != nil {
		return controller.Config{}, err
	}
	cooldown, err := envDuration("COOLDOWN_SECONDS", 300*time.Second)
	if err != nil {
		return controller.Config{}, err
	}

	var marginBps int64
	if raw := strings.TrimSpace(os.Getenv("MIN_PROFIT_MARGIN_BPS")); raw != "" {
		marginBps, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return controller.Config{}, fmt.Errorf("invalid MIN_PROFIT_MARGIN_BPS %q", raw)
		}
	}

	cfg := controller.Config{
		MaxPricePerUnit:   maxPrice,
		MinProfitMargin:   marginBps,
		MaxMintAmount:     maxAmount,
		MinMintAmount:     minAmount,
		AutoMiningEnabled: true,
		CooldownPeriod:    cooldown,
		MaxGasPrice:       maxGas,
	}
	if raw := strings.TrimSpace(os.Getenv("AUTO_MINING_ENABLED")); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return controller.Config{}, fmt.Errorf("invalid AUTO_MINING_ENABLED %q", raw)
		}
		cfg.AutoMiningEnabled = enabled
	}
	if err := cfg.Validate(); err != nil {
		return controller.Config{}, err
	}
	return cfg, nil
}

func envBool(name string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(name)))
	return err == nil && v
}

func envWei(name string, def *big.Int) (*big.Int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	v, err := ethutil.ParseWei(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// envDuration reads name as either a bare second count ("300") or a Go
// duration ("5m").
func envDuration(name string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return d, nil
}
