package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/prunact/internal/burn"
	"github.com/xkilldash9x/prunact/internal/gamedata"
	"github.com/xkilldash9x/prunact/internal/observability"
)

func newBurndCmd() *cobra.Command {
	opts := burn.DefaultOptions()
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "burnd [planet...] [OVERALL] [NOT planet...]",
		Short: "Export the consumption burn of your bases as TSV",
		Long: `Prints inventory, daily burn and days of supply per material and planet.
OVERALL sums every selected planet into one row per material; planets after
NOT are left out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			snap, err := gamedata.Load(cmd.Context(), cfg.Data.SnapshotDir, observability.GetLogger())
			if err != nil {
				return fmt.Errorf("failed to load game data: %w", err)
			}

			opts.Params = args
			opts.RedDays, opts.YellowDays = cfg.Burn.RedDays, cfg.Burn.YellowDays
			rows := burn.Compute(snap, opts)
			title := burn.Title(snap, opts.Params)

			out := cmd.OutOrStdout()
			if asJSON {
				if rows == nil {
					rows = []burn.Row{}
				}
				return writeJSON(out, map[string]any{"title": title, "rows": rows})
			}
			fmt.Fprintln(out, bold(title))
			_, err = fmt.Fprintln(out, burn.TSV(rows))
			return err
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.Red, "red", opts.Red, "show materials that run out soonest")
	f.BoolVar(&opts.Yellow, "yellow", opts.Yellow, "show materials that run out soon")
	f.BoolVar(&opts.Green, "green", opts.Green, "show materials with comfortable supply")
	f.BoolVar(&opts.Inf, "inf", opts.Inf, "show materials that are not being used up")
	f.BoolVar(&opts.Workforce, "workforce", opts.Workforce, "count workforce consumption")
	f.BoolVar(&opts.Production, "production", opts.Production, "count production inputs and outputs")
	f.BoolVar(&asJSON, "json", false, "print the rows as JSON")
	return cmd
}
