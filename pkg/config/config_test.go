package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stats-agent/pkg/config"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := config.NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.NotEmpty(t, cfg.Server.Addr)
	assert.GreaterOrEqual(t, cfg.Stats.MinInterval, time.Second)
	assert.Greater(t, cfg.Stats.QueueSize, 0)
}

func TestStatsConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{
			name:   "default",
			mutate: func(c *config.Config) {},
		},
		{
			name:   "statsd addr host:port",
			mutate: func(c *config.Config) { c.Stats.StatsdAddr = "127.0.0.1:20033" },
		},
		{
			name:    "statsd addr missing port",
			mutate:  func(c *config.Config) { c.Stats.StatsdAddr = "127.0.0.1" },
			wantErr: true,
		},
		{
			name:    "min interval too large",
			mutate:  func(c *config.Config) { c.Stats.MinInterval = 2 * time.Hour },
			wantErr: true,
		},
		{
			name:    "min interval negative",
			mutate:  func(c *config.Config) { c.Stats.MinInterval = -time.Second },
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
