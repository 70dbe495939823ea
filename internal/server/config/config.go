// Package config handles configuration for the development server,
// including defaults, a JSON or TOML overlay, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// SeedUser is an account created at startup. The password is hashed before
// it is stored; the plain value lives only in the config source.
type SeedUser struct {
	Email    string `json:"email" toml:"email"`
	Name     string `json:"name" toml:"name"`
	Role     string `json:"role" toml:"role"`
	Password string `json:"password" toml:"password"`
}

// Config holds runtime settings for the development server.
//
// Fields:
//   - Addr: bind address of the HTTP listener.
//   - SecretKey: HMAC secret for signing credential cookies (HS256). Do not use test defaults in prod.
//   - AccessTokenTTL / RefreshTokenTTL: credential lifetimes.
//   - ExpiredStatus: status returned when the access credential has expired.
//   - OTPPeriod: validity window of a rotation code.
//   - OTPInterval / OTPBurst: per-user throttle for code requests.
//   - MinStrengthScore: minimum score a new password must reach.
type Config struct {
	Addr             string
	SecretKey        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	ExpiredStatus    int
	OTPPeriod        time.Duration
	OTPInterval      time.Duration
	OTPBurst         int
	MinStrengthScore int
	LogLevel         string
	LogFormat        string
	Users            []SeedUser
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.SecretKey = "secretKey"
	c.AccessTokenTTL = 1 * time.Minute
	c.RefreshTokenTTL = 30 * time.Minute
	c.ExpiredStatus = http.StatusForbidden
	c.OTPPeriod = 5 * time.Minute
	c.OTPInterval = 30 * time.Second
	c.OTPBurst = 3
	c.MinStrengthScore = 3
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.Users = []SeedUser{{
		Email:    "demo@example.com",
		Name:     "Demo User",
		Role:     "user",
		Password: "demo-password",
	}}
}

func (c *Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.ExpiredStatus < 400 || c.ExpiredStatus > 499 {
		errs = append(errs, fmt.Errorf("expired status must be a 4xx code, got %d", c.ExpiredStatus))
	}
	if c.ExpiredStatus == http.StatusUnauthorized {
		errs = append(errs, errors.New("expired status must differ from 401, which marks a missing credential"))
	}
	if c.OTPPeriod <= 0 || c.OTPInterval <= 0 || c.OTPBurst <= 0 {
		errs = append(errs, errors.New("otp period, interval and burst must be positive"))
	}
	for i, u := range c.Users {
		if u.Email == "" || u.Password == "" {
			errs = append(errs, fmt.Errorf("user %d: email and password are required", i))
		}
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file and finally from command-line flags.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
