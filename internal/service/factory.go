// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/act/actions"
	"github.com/xkilldash9x/prunact/internal/act/materialgroups/paste"
	"github.com/xkilldash9x/prunact/internal/act/selectors"
	"github.com/xkilldash9x/prunact/internal/act/steps"
	"github.com/xkilldash9x/prunact/internal/browser/cdpdom"
	"github.com/xkilldash9x/prunact/internal/config"
	"github.com/xkilldash9x/prunact/internal/gamedata"
	"github.com/xkilldash9x/prunact/internal/observability"
)

// RegistryDeps are the collaborators of the registered providers and steps.
type RegistryDeps struct {
	Catalog   gamedata.MaterialCatalog
	Drafts    gamedata.ContractDraftSource
	Selectors selectors.Set
	Timings   steps.Timings
	Now       func() time.Time
}

// NewRegistry registers every action, material group and step type.
func NewRegistry(d RegistryDeps) (*act.Registry, error) {
	b := act.NewRegistryBuilder()
	actions.Register(b, d.Catalog)
	b.AddMaterialGroup(paste.New(d.Catalog))
	steps.Register(b, steps.Deps{
		Selectors: d.Selectors,
		Materials: d.Catalog,
		Drafts:    d.Drafts,
		Now:       d.Now,
		Timings:   d.Timings,
	})
	return b.Build()
}

// Options choose the optional components.
type Options struct {
	// History connects the run history when database.url is set.
	History bool
	// Browser attaches to or launches Chrome with the game client.
	Browser bool
}

// Create initializes the components for cfg. Partially created components are
// shut down when a later step fails.
func Create(ctx context.Context, cfg *config.Config, opts Options, logger *zap.Logger) (c *Components, err error) {
	c = &Components{logger: logger}
	defer func() {
		if err != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(err))
			c.Shutdown()
			c = nil
		}
	}()

	if c.Snapshot, err = gamedata.Load(ctx, cfg.Data.SnapshotDir, logger); err != nil {
		return c, fmt.Errorf("failed to load game data: %w", err)
	}
	if c.Metrics, err = observability.NewActMetrics(nil); err != nil {
		return c, err
	}

	if opts.History && cfg.Database.URL != "" {
		if c.Store, c.DBPool, err = InitializeStore(ctx, cfg.Database, logger); err != nil {
			return c, err
		}
		c.history = make(chan HistoryEntry, historyBuffer)
		c.consumerWG = &sync.WaitGroup{}
		StartHistoryConsumer(ctx, c.consumerWG, c.history, c.Store, logger)
	}

	var drafts gamedata.ContractDraftSource = c.Snapshot
	if opts.Browser {
		if c.Browser, err = cdpdom.Launch(ctx, cfg.Browser, logger); err != nil {
			return c, err
		}
		c.Driver = c.Browser.Driver(cfg.Browser.ActionsPerSecond, cfg.Browser.ActionBurst)
		drafts = &gamedata.PageDraftSource{Driver: c.Driver, IDSelector: cfg.Selectors.ContractDrafts.NaturalID}
	}

	c.Registry, err = NewRegistry(RegistryDeps{
		Catalog:   c.Snapshot,
		Drafts:    drafts,
		Selectors: cfg.Selectors,
		Timings:   cfg.Act.Timings,
	})
	if err != nil {
		return c, fmt.Errorf("failed to build registry: %w", err)
	}
	return c, nil
}
