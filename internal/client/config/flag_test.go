package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	tests := []struct {
		name      string
		args      []string
		expected  func() *Config
		expectErr bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "http://example:9090", "-x", "401", "-m", "coalesce", "-t", "7", "-d", "/tmp/s.db", "-l", "debug", "-i", "10"},
			expected: func() *Config {
				c := base()
				c.APIBaseURL = "http://example:9090"
				c.ExpiredStatus = 401
				c.RefreshMode = "coalesce"
				c.RequestTimeout = 7 * time.Second
				c.DatabasePath = "/tmp/s.db"
				c.LogLevel = "debug"
				c.OnlineCheckInterval = 10 * time.Second
				return c
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"-c", "cfg.json", "-z", "-a", "http://x"},
			expected: func() *Config { c := base(); c.APIBaseURL = "http://x"; return c },
		},
		{name: "bad interval", args: []string{"-i", "abc"}, expectErr: true},
		{name: "bad status", args: []string{"-x", "forbidden"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			err := parseFlags(cfg, tt.args)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected(), cfg))
		})
	}
}
