package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Application configuration loaded from environment variables.
// These are populated at startup by LoadConfig.
var (
	// Mode is the run mode safety switch; only "sim" is currently supported.
	Mode string

	// DepositAsset is the single asset depositors may contribute.
	DepositAsset string
	// FundAccount is the custody account holding pooled funds.
	FundAccount string
	// ManagerAccount is seeded with the FundManager role.
	ManagerAccount string
	// AdminAccount is seeded with the Admin role.
	AdminAccount string

	// ReferralCode is forwarded to the credit facility on supply/borrow.
	ReferralCode uint16
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. All variables without a default are required.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	Mode, err = getEnv("PFM_MODE")
	if err != nil {
		return err
	}
	DepositAsset, err = getEnv("PFM_DEPOSIT_ASSET")
	if err != nil {
		return err
	}
	FundAccount, err = getEnv("PFM_FUND_ACCOUNT")
	if err != nil {
		return err
	}
	ManagerAccount, err = getEnv("PFM_MANAGER_ACCOUNT")
	if err != nil {
		return err
	}
	AdminAccount, err = getEnv("PFM_ADMIN_ACCOUNT")
	if err != nil {
		return err
	}

	referral, err := getEnvAsUint64WithDefault("PFM_REFERRAL_CODE", 0)
	if err != nil {
		return err
	}
	if referral > 65535 {
		return fmt.Errorf("PFM_REFERRAL_CODE out of range: %d", referral)
	}
	ReferralCode = uint16(referral)

	log.Info().
		Str("mode", Mode).
		Str("depositAsset", DepositAsset).
		Str("fundAccount", FundAccount).
		Msg("Configuration loaded")
	return nil
}

// getEnv retrieves a required environment variable.
func getEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", errors.New("required environment variable not set: " + key)
	}
	return value, nil
}

// getEnvAsUint64WithDefault retrieves an optional numeric environment variable.
func getEnvAsUint64WithDefault(key string, defaultValue uint64) (uint64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s is not a valid number: %w", key, err)
	}
	return value, nil
}
