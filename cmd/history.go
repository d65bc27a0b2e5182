package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/prunact/internal/observability"
	"github.com/xkilldash9x/prunact/internal/service"
)

func newHistoryCmd() *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or print the plan of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("run history needs database.url (or PRUNACT_DATABASE_URL)")
			}
			st, pool, err := service.InitializeStore(cmd.Context(), cfg.Database, observability.GetLogger())
			if err != nil {
				return err
			}
			defer pool.Close()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid run id %q: %w", args[0], err)
				}
				steps, err := st.RunSteps(cmd.Context(), id)
				if err != nil {
					return err
				}
				if len(steps) == 0 {
					return fmt.Errorf("run %s not found", id)
				}
				return writeJSON(out, steps)
			}

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, runs)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPACKAGE\tMODE\tCREATED\tSTEPS\tCOMPLETED\tFAILED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%t\n", r.ID, r.PackageName, r.Mode, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.StepCount, r.Completed, r.Failed)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the runs as JSON")
	return cmd
}
