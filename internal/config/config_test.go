// File: internal/config/config_test.go
package config

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/prunact/internal/act/selectors"
	"github.com/xkilldash9x/prunact/internal/act/steps"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "prunact", cfg.Logger.ServiceName)
	assert.Equal(t, "green", cfg.Logger.Colors.Info)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 20.0, cfg.Browser.ActionsPerSecond)
	assert.Equal(t, 10*time.Second, cfg.Act.TileTimeout)
	assert.Equal(t, steps.DefaultTimings(), cfg.Act.Timings)
	assert.Equal(t, "127.0.0.1:7654", cfg.Server.Addr)
	assert.Equal(t, 3.0, cfg.Burn.RedDays)
	assert.Empty(t, cfg.Database.URL)
	require.NoError(t, cfg.Validate())
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.NoError(t, cfg.Validate())

		noRate := *cfg
		noRate.Browser.ActionsPerSecond = 0
		err := noRate.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "browser.actions_per_second must be positive")

		noTimeout := *cfg
		noTimeout.Act.TileTimeout = 0
		err = noTimeout.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "act.tile_timeout")

		badConfirm := *cfg
		badConfirm.Act.Confirm = "sometimes"
		err = badConfirm.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `act.confirm must be "console" or "auto"`)

		auto := *cfg
		auto.Act.Confirm = "AUTO"
		assert.NoError(t, auto.Validate())
	})

	t.Run("Burn Validation", func(t *testing.T) {
		assert.NoError(t, (&BurnConfig{RedDays: 3, YellowDays: 6}).Validate())
		assert.NoError(t, (&BurnConfig{RedDays: 5, YellowDays: 5}).Validate())
		assert.Error(t, (&BurnConfig{RedDays: 7, YellowDays: 6}).Validate())
		assert.Error(t, (&BurnConfig{RedDays: -1, YellowDays: 6}).Validate())
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
browser:
  remote_url: "http://127.0.0.1:9222"
  actions_per_second: 5
act:
  tile_timeout: 3s
  confirm: auto
  timings:
    draft_created: 12s
selectors:
  button:
    btn: '[class*="Btn__x"]'
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "http://127.0.0.1:9222", cfg.Browser.RemoteURL)
		assert.Equal(t, 5.0, cfg.Browser.ActionsPerSecond)
		assert.Equal(t, 3*time.Second, cfg.Act.TileTimeout)
		assert.Equal(t, "auto", cfg.Act.Confirm)
		assert.Equal(t, 12*time.Second, cfg.Act.Timings.DraftCreated)
		assert.Equal(t, steps.DefaultTimings().CreateButton, cfg.Act.Timings.CreateButton)

		// An overridden selector is kept, the rest come from the defaults.
		assert.Equal(t, `[class*="Btn__x"]`, cfg.Selectors.Button.Btn)
		assert.Equal(t, selectors.Default().Tile, cfg.Selectors.Tile)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("browser.action_burst", 0)

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "browser.action_burst must be a positive integer")
	})

	t.Run("Environment Variable Binding", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBufferString(`
database:
  url: "postgres://configfile/db"
`)))

		t.Setenv("PRUNACT_DATABASE_URL", "postgres://envvar/db")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "postgres://envvar/db", cfg.Database.URL)
	})

	t.Run("Home Directory Expansion", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("data.snapshot_dir", "~/pu/data")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		home, err := homedir.Dir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "pu", "data"), cfg.Data.SnapshotDir)
		assert.NotContains(t, cfg.Browser.UserDataDir, "~")
	})
}

// -- Struct and Mapping Tests --

func TestConfigStructureMapping(t *testing.T) {
	yamlInput := `
logger:
  level: debug
  log_file: /var/log/prunact.log
server:
  allowed_origins: ["http://localhost:3000", "https://apex.prosperousuniverse.com"]
burn:
  red_days: 2
  yellow_days: 4.5
`
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(yamlInput)))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "/var/log/prunact.log", cfg.Logger.LogFile)
	assert.Equal(t, []string{"http://localhost:3000", "https://apex.prosperousuniverse.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, BurnConfig{RedDays: 2, YellowDays: 4.5}, cfg.Burn)
}
