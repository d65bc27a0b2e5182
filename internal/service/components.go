// -- internal/service/components.go --
package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/act/runner"
	"github.com/xkilldash9x/prunact/internal/browser/cdpdom"
	"github.com/xkilldash9x/prunact/internal/dom"
	"github.com/xkilldash9x/prunact/internal/gamedata"
	"github.com/xkilldash9x/prunact/internal/observability"
	"github.com/xkilldash9x/prunact/internal/store"
)

const historyBuffer = 64

// Components holds everything a command needs to generate and execute plans.
type Components struct {
	Snapshot *gamedata.Snapshot
	Registry *act.Registry
	Metrics  *observability.ActMetrics
	// Store is nil when no database is configured.
	Store  *store.Store
	DBPool *pgxpool.Pool
	// Browser and Driver are set when the components drive a live client.
	Browser *cdpdom.Session
	Driver  dom.Driver

	logger *zap.Logger

	// historyMu guards history against Shutdown closing it under a Record.
	historyMu     sync.Mutex
	historyClosed bool
	history       chan HistoryEntry
	consumerWG    *sync.WaitGroup
}

// Generate runs the step generator over pkg. The ACT log is both returned and
// written to logger.
func (c *Components) Generate(ctx context.Context, pkg *act.ActionPackage, cfg act.ActionPackageConfig, onStatus func(string)) (act.RunResult, []act.LogEntry) {
	rec := &act.Recorder{}
	gen := runner.NewStepGenerator(c.Registry, runner.GeneratorOptions{
		Log:             act.NewLogger(act.MultiSink(rec.Sink(), act.ZapSink(c.logger))),
		OnStatusChanged: onStatus,
		Inventory:       c.Snapshot,
		Metrics:         c.Metrics,
		Logger:          c.logger,
	})
	return gen.GenerateSteps(ctx, pkg, cfg), rec.Entries()
}

// Record queues a finished run for the history store and returns its id. It
// never blocks; without a store, or with a full queue, the entry is dropped.
func (c *Components) Record(run store.RunRecord, results []runner.StepResult) uuid.UUID {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	if c.history == nil || c.historyClosed {
		return run.ID
	}
	select {
	case c.history <- HistoryEntry{Run: &run, RunID: run.ID, Results: results}:
	default:
		c.logger.Warn("History queue full, run not recorded.", zap.String("run_id", run.ID.String()))
	}
	return run.ID
}

// Shutdown releases the components in reverse order of creation.
func (c *Components) Shutdown() {
	logger := c.logger
	if logger == nil {
		logger = observability.GetLogger()
	}
	logger.Debug("Beginning components shutdown sequence.")

	c.historyMu.Lock()
	draining := c.history != nil && !c.historyClosed
	if draining {
		close(c.history)
		c.historyClosed = true
	}
	c.historyMu.Unlock()
	if draining {
		c.consumerWG.Wait()
		logger.Debug("History consumer finished processing.")
	}

	if c.Browser != nil {
		c.Browser.Close()
		logger.Debug("Browser session closed.")
	}

	if c.DBPool != nil {
		c.DBPool.Close()
		logger.Debug("Database connection pool closed.")
	}

	logger.Debug("All components shut down.")
}
