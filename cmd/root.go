// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/prunact/internal/config"
	"github.com/xkilldash9x/prunact/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

// NewRootCommand builds the command tree. Each call returns a fresh tree so
// flag state never leaks between executions.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "prunact",
		Short:         "prunact generates and runs ACT contract plans for Prosperous Universe.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(v, cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			if err := bindFlags(cmd, v); err != nil {
				return err
			}
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "prunact"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting prunact", zap.String("version", Version), zap.String("command", cmd.Name()))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./prunact.yaml or ~/.prunact/prunact.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("data-dir", "", "game data snapshot directory")

	rootCmd.AddCommand(
		newGenerateCmd(),
		newRunCmd(),
		newRehearseCmd(),
		newBurndCmd(),
		newServeCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command with a signal-aware context.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	defer observability.Sync()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			observability.GetLogger().Warn("Command aborted.")
			return err
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// initializeConfig reads the config file and PRUNACT_* environment variables.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.prunact")
		v.SetConfigName("prunact")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// bindFlags lets the global flags override file and environment values.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for key, flag := range map[string]string{
		"logger.level":      "log-level",
		"data.snapshot_dir": "data-dir",
	} {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}
	return nil
}

// getConfig returns the configuration loaded by the root command.
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}
