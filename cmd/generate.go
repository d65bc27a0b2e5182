package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/observability"
	"github.com/xkilldash9x/prunact/internal/service"
	"github.com/xkilldash9x/prunact/internal/store"
)

var errGenerationFailed = errors.New("step generation failed")

// generateOutput is the --json form of a generated plan.
type generateOutput struct {
	RunID string         `json:"runId"`
	Steps []act.Step     `json:"steps"`
	Fail  bool           `json:"fail"`
	Log   []act.LogEntry `json:"log"`
}

func newGenerateCmd() *cobra.Command {
	var packageConfig string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "generate <package.yaml>",
		Short: "Generate the step plan of an action package",
		Long: `Loads an action package, resolves its material groups against the game data
snapshot and prints the ordered CONT_SEND and CONT_TRADE steps it expands to.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			logger := observability.GetLogger()
			pkg, pkgCfg, err := loadPackage(args[0], packageConfig)
			if err != nil {
				return err
			}

			comps, err := service.Create(cmd.Context(), cfg, service.Options{History: true}, logger)
			if err != nil {
				return err
			}
			defer comps.Shutdown()

			warnProblems(cmd, comps.Registry, pkg, pkgCfg)
			res, log := comps.Generate(cmd.Context(), pkg, pkgCfg, statusPrinter(cmd))
			id := comps.Record(store.RunRecord{
				PackageName: pkg.Global.Name,
				Mode:        store.ModeGenerate,
				CreatedAt:   time.Now(),
				Result:      res,
				Log:         log,
			}, nil)
			logger.Debug("Plan generated.", zap.String("run_id", id.String()), zap.Int("steps", len(res.Steps)), zap.Bool("fail", res.Fail))

			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, generateOutput{RunID: id.String(), Steps: orNoSteps(res.Steps), Fail: res.Fail, Log: orNoLog(log)}); err != nil {
					return err
				}
			} else {
				printLog(cmd.ErrOrStderr(), log)
				printPlan(out, comps.Registry, res.Steps)
			}
			if res.Fail {
				return errGenerationFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&packageConfig, "package-config", "", "package configuration file with the configure-time answers")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	return cmd
}

func loadPackage(path, configPath string) (*act.ActionPackage, act.ActionPackageConfig, error) {
	pkg, err := act.LoadPackage(path)
	if err != nil {
		return nil, act.ActionPackageConfig{}, err
	}
	pkgCfg, err := act.LoadPackageConfig(configPath)
	if err != nil {
		return nil, act.ActionPackageConfig{}, err
	}
	return pkg, pkgCfg, nil
}

func warnProblems(cmd *cobra.Command, reg *act.Registry, pkg *act.ActionPackage, pkgCfg act.ActionPackageConfig) {
	for _, p := range act.ValidateConfig(reg, pkg, pkgCfg) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s %q is not configured\n", yellow("[WARNING]"), p.Kind, p.Name)
	}
}

func statusPrinter(cmd *cobra.Command) func(string) {
	return func(status string) {
		fmt.Fprintln(cmd.ErrOrStderr(), gray(status))
	}
}

func orNoSteps(s []act.Step) []act.Step {
	if s == nil {
		return []act.Step{}
	}
	return s
}

func orNoLog(l []act.LogEntry) []act.LogEntry {
	if l == nil {
		return []act.LogEntry{}
	}
	return l
}
