package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/sessionkeeper/internal/flagx"
	"github.com/dmitrijs2005/sessionkeeper/internal/timex"
)

// fileConfig is the DTO for config files. Durations use timex.Duration, so
// both "90s" and integer nanoseconds are accepted. Zero values keep the
// current setting; a non-empty users list replaces the seeded accounts.
type fileConfig struct {
	Addr             string         `json:"addr" toml:"addr"`
	SecretKey        string         `json:"secret_key" toml:"secret_key"`
	AccessTokenTTL   timex.Duration `json:"access_token_ttl" toml:"access_token_ttl"`
	RefreshTokenTTL  timex.Duration `json:"refresh_token_ttl" toml:"refresh_token_ttl"`
	ExpiredStatus    int            `json:"expired_status" toml:"expired_status"`
	OTPPeriod        timex.Duration `json:"otp_period" toml:"otp_period"`
	OTPInterval      timex.Duration `json:"otp_interval" toml:"otp_interval"`
	OTPBurst         int            `json:"otp_burst" toml:"otp_burst"`
	MinStrengthScore int            `json:"min_strength_score" toml:"min_strength_score"`
	LogLevel         string         `json:"log_level" toml:"log_level"`
	LogFormat        string         `json:"log_format" toml:"log_format"`
	Users            []SeedUser     `json:"users" toml:"users"`
}

func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &fc)
	} else {
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if fc.SecretKey != "" {
		cfg.SecretKey = fc.SecretKey
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}
	if fc.AccessTokenTTL.Duration != 0 {
		cfg.AccessTokenTTL = fc.AccessTokenTTL.Duration
	}
	if fc.RefreshTokenTTL.Duration != 0 {
		cfg.RefreshTokenTTL = fc.RefreshTokenTTL.Duration
	}
	if fc.OTPPeriod.Duration != 0 {
		cfg.OTPPeriod = fc.OTPPeriod.Duration
	}
	if fc.OTPInterval.Duration != 0 {
		cfg.OTPInterval = fc.OTPInterval.Duration
	}
	if fc.ExpiredStatus != 0 {
		cfg.ExpiredStatus = fc.ExpiredStatus
	}
	if fc.OTPBurst != 0 {
		cfg.OTPBurst = fc.OTPBurst
	}
	if fc.MinStrengthScore != 0 {
		cfg.MinStrengthScore = fc.MinStrengthScore
	}
	if len(fc.Users) > 0 {
		cfg.Users = fc.Users
	}
	return nil
}
