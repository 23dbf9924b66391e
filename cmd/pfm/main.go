package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/openfund/pfm/internal/access"
	"github.com/openfund/pfm/internal/bank"
	"github.com/openfund/pfm/internal/config"
	"github.com/openfund/pfm/internal/credit"
	"github.com/openfund/pfm/internal/exchange"
	"github.com/openfund/pfm/internal/fund"
	"github.com/openfund/pfm/internal/ledger"
	"github.com/openfund/pfm/internal/lending"
	"github.com/openfund/pfm/internal/logger"
	"github.com/openfund/pfm/internal/pricefeed"
	"github.com/openfund/pfm/internal/pricing"
	"github.com/openfund/pfm/internal/shares"
	"github.com/openfund/pfm/internal/state"
	"github.com/openfund/pfm/internal/swap"
	"github.com/openfund/pfm/internal/types"
	"github.com/openfund/pfm/internal/web"
)

const (
	STATUS_INTERVAL = 1 * time.Minute
)

// main is the entry point for the pooled fund manager.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Pooled Fund Manager Starting...")

	// --- 2. Journal Initialization (optional) ---
	var sink fund.EventSink
	journalEnabled := false
	if os.Getenv("DB_HOST") != "" {
		dbCfg := state.DBConfig{
			Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
			User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
			DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
		}
		if err := state.InitDB(dbCfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer state.CloseDB()
		if err := state.EnsureSchema(); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
		sink = state.NewJournal()
		journalEnabled = true
	} else {
		log.Warn().Msg("DB_HOST not set; operation events will not be journaled")
		sink = fund.NopSink{}
	}

	// --- 3. Collaborator Wiring (with Safety Switch) ---
	if config.Mode != "sim" {
		log.Fatal().Str("mode", config.Mode).Msg("PFM_MODE must be 'sim'; live venue adapters are not wired in this build")
	}

	depositAsset := types.Asset(config.DepositAsset)
	fundAccount := types.Account(config.FundAccount)

	simBank := bank.NewSimBank()
	seed := sdkmath.NewInt(int64(mustAtoi(os.Getenv("PFM_SIM_SEED_AMOUNT"), 1_000_000)))
	simBank.Mint(types.Account(config.ManagerAccount), depositAsset, seed)
	log.Info().
		Str("account", config.ManagerAccount).
		Str("asset", string(depositAsset)).
		Str("amount", seed.String()).
		Msg("Seeded simulated bank")

	feed := pricefeed.NewSimFeed(sdkmath.NewInt(1))
	oracle := pricing.NewOracleAdapter(map[string]pricefeed.PriceFeed{
		string(depositAsset): feed,
	})
	poolAdapter := pricing.NewPoolAdapter(map[string]pricefeed.PoolState{
		"sim-pool": pricefeed.NewSimPool(sdkmath.NewInt(1).MulRaw(1 << 62).MulRaw(1 << 34)),
	})
	venue := exchange.NewSimVenue()
	facility := credit.NewSimFacility(
		map[types.Asset]sdkmath.Int{depositAsset: sdkmath.NewInt(1)},
		sdkmath.LegacyOneDec(),
	)

	// --- 4. Fund Assembly ---
	registry := ledger.NewAssetRegistry()
	roles := access.NewStore(map[types.Account][]types.Role{
		types.Account(config.AdminAccount):   {types.RoleAdmin},
		types.Account(config.ManagerAccount): {types.RoleFundManager},
	})

	shareLedger, err := shares.NewLedger(shares.Config{
		Registry:     registry,
		Bank:         simBank,
		DepositAsset: depositAsset,
		FundAccount:  fundAccount,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create share ledger")
	}

	swapExecutor, err := swap.NewExecutor(swap.Config{
		Registry:    registry,
		Access:      roles,
		Oracle:      oracle,
		Pool:        poolAdapter,
		Venue:       venue,
		FundAccount: fundAccount,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create swap executor")
	}

	lendingManager, err := lending.NewManager(lending.Config{
		Registry:     registry,
		Access:       roles,
		Facility:     facility,
		Oracle:       oracle,
		FeedRefs:     map[types.Asset]string{depositAsset: string(depositAsset)},
		FundAccount:  fundAccount,
		ReferralCode: config.ReferralCode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create lending manager")
	}

	pooledFund, err := fund.New(fund.Config{
		Registry: registry,
		Access:   roles,
		Shares:   shareLedger,
		Swaps:    swapExecutor,
		Lending:  lendingManager,
		Sink:     sink,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create fund")
	}

	// --- 5. Web Server ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}
	webServer := web.NewServer(webPort, pooledFund, journalEnabled)
	go func() {
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting fund status server")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed")
		}
	}()

	// --- 6. Status Loop ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("interval", STATUS_INTERVAL.String()).Msg("Fund manager running")
	ticker := time.NewTicker(STATUS_INTERVAL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down fund manager")
			return
		case <-ticker.C:
			logStatus(pooledFund)
		}
	}
}

// logStatus reports the fund's current ledger and share state.
func logStatus(f *fund.Fund) {
	event := log.Info().Str("totalShares", f.TotalShares().String())
	for asset, balance := range f.AvailableBalances() {
		event = event.Str("balance_"+string(asset), balance.String())
	}
	event.Msg("Fund status")
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
