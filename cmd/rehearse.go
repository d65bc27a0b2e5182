package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/act/runner"
	"github.com/xkilldash9x/prunact/internal/dom"
	"github.com/xkilldash9x/prunact/internal/dom/htmldom"
	"github.com/xkilldash9x/prunact/internal/gamedata"
	"github.com/xkilldash9x/prunact/internal/observability"
	"github.com/xkilldash9x/prunact/internal/service"
	"github.com/xkilldash9x/prunact/internal/store"
	"github.com/xkilldash9x/prunact/internal/tiles"
)

func newRehearseCmd() *cobra.Command {
	var packageConfig, htmlPath, outPath string
	var tiled bool

	cmd := &cobra.Command{
		Use:   "rehearse <package.yaml>",
		Short: "Execute a plan against a saved copy of the game client",
		Long: `Runs the plan of an action package against a saved HTML page instead of the
live client. Clicking "Create New" registers a rehearsal draft, every other
interaction only changes the in-memory page. Use --out to keep the result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			if htmlPath == "" {
				return fmt.Errorf("--html is required")
			}
			logger := observability.GetLogger()
			pkg, pkgCfg, err := loadPackage(args[0], packageConfig)
			if err != nil {
				return err
			}

			f, err := os.Open(htmlPath)
			if err != nil {
				return fmt.Errorf("failed to open saved page: %w", err)
			}
			page, err := htmldom.Parse(f)
			f.Close()
			if err != nil {
				return err
			}

			comps, err := service.Create(cmd.Context(), cfg, service.Options{History: true}, logger)
			if err != nil {
				return err
			}
			defer comps.Shutdown()

			page.OnClick(cfg.Selectors.Button.Btn, draftCreator(comps.Snapshot))

			var provider act.TileProvider = tiles.Whole{Driver: page}
			if tiled {
				provider = tiles.NewManager(page, cfg.Selectors.Tile, cfg.Act.TileTimeout, logger)
			}
			runErr := executePlan(cmd, comps, pkg.Global.Name, store.ModeRehearse, pkg, pkgCfg, runner.ExecutorOptions{
				Driver:    page,
				Tiles:     provider,
				Confirmer: runner.AutoConfirm{},
			})
			logger.Debug("Rehearsal finished.", zap.Int("page_events", len(page.Events())))

			if outPath != "" {
				if err := writePage(page, outPath); err != nil {
					return err
				}
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&packageConfig, "package-config", "", "package configuration file with the configure-time answers")
	cmd.Flags().StringVar(&htmlPath, "html", "", "saved page of the game client")
	cmd.Flags().StringVar(&outPath, "out", "", "write the page after the rehearsal to this file")
	cmd.Flags().BoolVar(&tiled, "tiled", false, "locate tiles by their command bar instead of using the whole page")
	return cmd
}

// draftCreator registers a new draft each time a "Create New" button is
// clicked, standing in for the server round trip of the live client.
func draftCreator(drafts *gamedata.Snapshot) htmldom.Handler {
	var mu sync.Mutex
	next := 0
	return func(ctx context.Context, d *htmldom.Driver, target dom.Element) {
		text, err := d.Text(ctx, target)
		if err != nil || !strings.EqualFold(strings.TrimSpace(text), "create new") {
			return
		}
		mu.Lock()
		next++
		id := fmt.Sprintf("REH-%d", next)
		mu.Unlock()
		drafts.AddDraft(gamedata.ContractDraft{NaturalID: id})
	}
}

func writePage(page *htmldom.Driver, path string) error {
	html, err := page.HTML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("failed to write page: %w", err)
	}
	return nil
}
