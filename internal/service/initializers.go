// File: internal/service/initializers.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/prunact/internal/act/runner"
	"github.com/xkilldash9x/prunact/internal/config"
	"github.com/xkilldash9x/prunact/internal/store"
)

const persistTimeout = 30 * time.Second

// InitializeStore connects to the run history database and creates its
// tables. The caller closes the returned pool.
func InitializeStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*store.Store, *pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to parse PGX pool config: %w", err)
	}
	poolConfig.MaxConns = 4
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create PGX connection pool: %w", err)
	}
	s, err := store.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("Run history connected.", zap.String("host", poolConfig.ConnConfig.Host))
	return s, pool, nil
}

// HistoryEntry is one unit of history work. Run, when set, is saved before
// Results are attached to RunID.
type HistoryEntry struct {
	Run     *store.RunRecord
	RunID   uuid.UUID
	Results []runner.StepResult
}

// HistorySaver persists history entries.
type HistorySaver interface {
	SaveRun(ctx context.Context, run store.RunRecord) (uuid.UUID, error)
	SaveStepResults(ctx context.Context, runID uuid.UUID, results []runner.StepResult) error
}

// StartHistoryConsumer persists queued entries in a goroutine until entries
// is closed, or ctx ends and the buffered entries have been drained.
func StartHistoryConsumer(ctx context.Context, wg *sync.WaitGroup, entries <-chan HistoryEntry, saver HistorySaver, logger *zap.Logger) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Debug("History consumer started.")
		defer logger.Debug("History consumer shut down.")

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				persist(entry, saver, logger)
			case <-ctx.Done():
				logger.Warn("History consumer context canceled, draining queued entries.")
				for {
					select {
					case entry, ok := <-entries:
						if !ok {
							return
						}
						persist(entry, saver, logger)
					default:
						return
					}
				}
			}
		}
	}()
}

// persist uses its own deadline so queued entries are still written while
// the application context is being canceled.
func persist(entry HistoryEntry, saver HistorySaver, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	runID := entry.RunID
	if entry.Run != nil {
		id, err := saver.SaveRun(ctx, *entry.Run)
		if err != nil {
			logger.Error("Failed to persist run. History entry lost.", zap.Error(err), zap.String("package", entry.Run.PackageName))
			return
		}
		runID = id
	}
	if len(entry.Results) == 0 {
		return
	}
	if err := saver.SaveStepResults(ctx, runID, entry.Results); err != nil {
		logger.Error("Failed to persist step results.", zap.Error(err), zap.String("run_id", runID.String()))
	}
}
