// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/prunact/internal/act/selectors"
	"github.com/xkilldash9x/prunact/internal/act/steps"
)

// EnvPrefix prefixes every environment variable override, e.g.
// PRUNACT_BROWSER_REMOTE_URL.
const EnvPrefix = "PRUNACT"

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Act       ActConfig      `mapstructure:"act" yaml:"act"`
	Selectors selectors.Set  `mapstructure:"selectors" yaml:"selectors"`
	Data      DataConfig     `mapstructure:"data" yaml:"data"`
	Database  DatabaseConfig `mapstructure:"database" yaml:"database"`
	Server    ServerConfig   `mapstructure:"server" yaml:"server"`
	Burn      BurnConfig     `mapstructure:"burn" yaml:"burn"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig names the terminal color of each log level.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig selects the Chrome instance steps are executed against.
// With RemoteURL set, prunact attaches to a running browser (started with
// --remote-debugging-port) and the remaining launch settings are ignored.
type BrowserConfig struct {
	RemoteURL   string `mapstructure:"remote_url" yaml:"remote_url"`
	GameURL     string `mapstructure:"game_url" yaml:"game_url"`
	Headless    bool   `mapstructure:"headless" yaml:"headless"`
	ExecPath    string `mapstructure:"exec_path" yaml:"exec_path"`
	UserDataDir string `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	// ActionsPerSecond paces page mutations; ActionBurst is the number that
	// may run back to back.
	ActionsPerSecond float64       `mapstructure:"actions_per_second" yaml:"actions_per_second"`
	ActionBurst      int           `mapstructure:"action_burst" yaml:"action_burst"`
	PageLoadTimeout  time.Duration `mapstructure:"page_load_timeout" yaml:"page_load_timeout"`
}

// ActConfig tunes generation and execution of action packages.
type ActConfig struct {
	TileTimeout time.Duration `mapstructure:"tile_timeout" yaml:"tile_timeout"`
	// Confirm is "console" (prompt on the terminal) or "auto".
	Confirm string        `mapstructure:"confirm" yaml:"confirm"`
	Timings steps.Timings `mapstructure:"timings" yaml:"timings"`
}

// DataConfig locates the game data snapshot.
type DataConfig struct {
	SnapshotDir string `mapstructure:"snapshot_dir" yaml:"snapshot_dir"`
}

// DatabaseConfig holds the run history database connection details. An empty
// URL disables run history.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// ServerConfig configures the local HTTP API.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// BurnConfig holds the thresholds of the burn export color filters.
type BurnConfig struct {
	RedDays    float64 `mapstructure:"red_days" yaml:"red_days"`
	YellowDays float64 `mapstructure:"yellow_days" yaml:"yellow_days"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "prunact")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "red")

	// -- Browser --
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.game_url", "https://apex.prosperousuniverse.com/")
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.user_data_dir", "~/.prunact/chrome")
	v.SetDefault("browser.actions_per_second", 20.0)
	v.SetDefault("browser.action_burst", 5)
	v.SetDefault("browser.page_load_timeout", "60s")

	// -- Act --
	t := steps.DefaultTimings()
	v.SetDefault("act.tile_timeout", "10s")
	v.SetDefault("act.confirm", "console")
	v.SetDefault("act.timings.create_button", t.CreateButton)
	v.SetDefault("act.timings.trade_create_button", t.TradeCreateButton)
	v.SetDefault("act.timings.draft_created", t.DraftCreated)
	v.SetDefault("act.timings.select_template", t.SelectTemplate)
	v.SetDefault("act.timings.currency", t.Currency)
	v.SetDefault("act.timings.add_group", t.AddGroup)
	v.SetDefault("act.timings.apply_ready", t.ApplyReady)
	v.SetDefault("act.timings.apply_busy", t.ApplyBusy)
	v.SetDefault("act.timings.apply_settle", t.ApplySettle)
	v.SetDefault("act.timings.suggestions", t.Suggestions)
	v.SetDefault("act.timings.material_settle", t.MaterialSettle)

	// -- Selectors --
	// Unset selectors fall back to selectors.Default through Set.Merge.

	// -- Data --
	v.SetDefault("data.snapshot_dir", "~/.prunact/data")

	// -- Database --
	v.SetDefault("database.url", "")

	// -- Server --
	v.SetDefault("server.addr", "127.0.0.1:7654")
	v.SetDefault("server.allowed_origins", []string{"https://apex.prosperousuniverse.com"})
	v.SetDefault("server.request_timeout", "30s")

	// -- Burn --
	v.SetDefault("burn.red_days", 3.0)
	v.SetDefault("burn.yellow_days", 6.0)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The connection string usually carries a password; keep it out of files.
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Selectors = cfg.Selectors.Merge()

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Logger.LogFile, &c.Browser.ExecPath, &c.Browser.UserDataDir, &c.Data.SnapshotDir} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Browser.ActionsPerSecond <= 0 {
		return fmt.Errorf("browser.actions_per_second must be positive")
	}
	if c.Browser.ActionBurst <= 0 {
		return fmt.Errorf("browser.action_burst must be a positive integer")
	}
	if c.Act.TileTimeout <= 0 {
		return fmt.Errorf("act.tile_timeout must be a positive duration")
	}
	switch strings.ToLower(c.Act.Confirm) {
	case "console", "auto":
	default:
		return fmt.Errorf("act.confirm must be \"console\" or \"auto\", got %q", c.Act.Confirm)
	}
	if err := c.Burn.Validate(); err != nil {
		return fmt.Errorf("burn configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the burn thresholds.
func (b *BurnConfig) Validate() error {
	if b.RedDays < 0 || b.YellowDays < 0 {
		return fmt.Errorf("red_days and yellow_days must not be negative")
	}
	if b.RedDays > b.YellowDays {
		return fmt.Errorf("red_days (%g) must not exceed yellow_days (%g)", b.RedDays, b.YellowDays)
	}
	return nil
}
