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

// fileConfig is a DTO used only for decoding config files. Intervals use
// timex.Duration so files may say "5s" or give integer nanoseconds. Zero
// values leave the current setting untouched.
type fileConfig struct {
	APIBaseURL            string         `json:"api_base_url" toml:"api_base_url"`
	RefreshPath           string         `json:"refresh_path" toml:"refresh_path"`
	ExpiredStatus         int            `json:"expired_status" toml:"expired_status"`
	RefreshMode           string         `json:"refresh_mode" toml:"refresh_mode"`
	RequestTimeout        timex.Duration `json:"request_timeout" toml:"request_timeout"`
	NoticeTTL             timex.Duration `json:"notice_ttl" toml:"notice_ttl"`
	OnlineCheckInterval   timex.Duration `json:"online_check_interval" toml:"online_check_interval"`
	MinCurrentPasswordLen int            `json:"min_current_password_len" toml:"min_current_password_len"`
	MinStrengthScore      int            `json:"min_strength_score" toml:"min_strength_score"`
	OTPLength             int            `json:"otp_length" toml:"otp_length"`
	DatabasePath          string         `json:"database_path" toml:"database_path"`
	LogLevel              string         `json:"log_level" toml:"log_level"`
	LogFormat             string         `json:"log_format" toml:"log_format"`
}

// parseFile overlays cfg with the file named by -c / -config. Files ending in
// .toml are decoded as TOML, everything else as JSON.
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

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.APIBaseURL, fc.APIBaseURL)
	setString(&cfg.RefreshPath, fc.RefreshPath)
	setString(&cfg.RefreshMode, fc.RefreshMode)
	setString(&cfg.DatabasePath, fc.DatabasePath)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)

	setInt(&cfg.ExpiredStatus, fc.ExpiredStatus)
	setInt(&cfg.MinCurrentPasswordLen, fc.MinCurrentPasswordLen)
	setInt(&cfg.MinStrengthScore, fc.MinStrengthScore)
	setInt(&cfg.OTPLength, fc.OTPLength)

	if fc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.NoticeTTL.Duration != 0 {
		cfg.NoticeTTL = fc.NoticeTTL.Duration
	}
	if fc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
