package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/act/runner"
	"github.com/xkilldash9x/prunact/internal/config"
	"github.com/xkilldash9x/prunact/internal/dom"
	"github.com/xkilldash9x/prunact/internal/observability"
	"github.com/xkilldash9x/prunact/internal/service"
	"github.com/xkilldash9x/prunact/internal/store"
	"github.com/xkilldash9x/prunact/internal/tiles"
)

var errRunIncomplete = errors.New("plan did not complete")

func newRunCmd() *cobra.Command {
	var packageConfig string
	var autoConfirm bool

	cmd := &cobra.Command{
		Use:   "run <package.yaml>",
		Short: "Generate a plan and execute it in the game client",
		Long: `Generates the plan of an action package and drives the game client in Chrome
through every step. Each drafted contract waits for confirmation before the
next step starts, unless --auto-confirm is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			if autoConfirm {
				cfg.Act.Confirm = "auto"
			}
			logger := observability.GetLogger()
			pkg, pkgCfg, err := loadPackage(args[0], packageConfig)
			if err != nil {
				return err
			}

			comps, err := service.Create(cmd.Context(), cfg, service.Options{History: true, Browser: true}, logger)
			if err != nil {
				return err
			}
			defer comps.Shutdown()

			manager := tiles.NewManager(comps.Driver, cfg.Selectors.Tile, cfg.Act.TileTimeout, logger)
			return executePlan(cmd, comps, pkg.Global.Name, store.ModeRun, pkg, pkgCfg, runner.ExecutorOptions{
				Driver:    comps.Driver,
				Tiles:     manager,
				Confirmer: confirmerFor(cmd, cfg.Act),
			})
		},
	}
	cmd.Flags().StringVar(&packageConfig, "package-config", "", "package configuration file with the configure-time answers")
	cmd.Flags().BoolVar(&autoConfirm, "auto-confirm", false, "do not wait for confirmation after each drafted contract")
	return cmd
}

func confirmerFor(cmd *cobra.Command, cfg config.ActConfig) act.Confirmer {
	if cfg.Confirm == "auto" {
		return runner.AutoConfirm{}
	}
	return runner.NewConsoleConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
}

// executePlan generates the plan of pkg, runs it with opts and records the
// run. Driver, Tiles and Confirmer must be set in opts.
func executePlan(cmd *cobra.Command, comps *service.Components, name string, mode store.Mode, pkg *act.ActionPackage, pkgCfg act.ActionPackageConfig, opts runner.ExecutorOptions) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	warnProblems(cmd, comps.Registry, pkg, pkgCfg)
	res, genLog := comps.Generate(ctx, pkg, pkgCfg, statusPrinter(cmd))
	printLog(errOut, genLog)
	record := store.RunRecord{PackageName: name, Mode: mode, CreatedAt: time.Now(), Result: res, Log: genLog}
	if res.Fail {
		comps.Record(record, nil)
		return errGenerationFailed
	}
	printPlan(out, comps.Registry, res.Steps)

	var recorder act.Recorder
	opts.Log = act.NewLogger(act.MultiSink(recorder.Sink(), act.ZapSink(logger.Named("steps")), func(tag act.LogTag, message string) {
		printLog(errOut, []act.LogEntry{{Tag: tag, Message: message}})
	}))
	opts.OnStatusChanged = statusPrinter(cmd)
	opts.Metrics = comps.Metrics
	opts.Logger = logger
	results := runner.NewExecutor(comps.Registry, opts).Execute(ctx, res.Steps)

	record.Log = append(record.Log, recorder.Entries()...)
	id := comps.Record(record, results)
	logger.Info("Plan executed.", zap.String("run_id", id.String()), zap.Int("steps", len(res.Steps)), zap.Int("executed", len(results)))

	fmt.Fprintln(out)
	printResults(out, results)
	if err := release(opts.Driver); err != nil {
		logger.Warn("Failed to release page handles.", zap.Error(err))
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if len(results) < len(res.Steps) || (len(results) > 0 && results[len(results)-1].Outcome != act.OutcomeCompleted) {
		return errRunIncomplete
	}
	return nil
}

func release(d dom.Driver) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.Release(ctx)
}
