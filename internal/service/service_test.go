package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/act/actions"
	"github.com/xkilldash9x/prunact/internal/act/materialgroups/paste"
	"github.com/xkilldash9x/prunact/internal/act/runner"
	"github.com/xkilldash9x/prunact/internal/act/selectors"
	"github.com/xkilldash9x/prunact/internal/act/steps"
	"github.com/xkilldash9x/prunact/internal/config"
	"github.com/xkilldash9x/prunact/internal/gamedata/gamedatatest"
	"github.com/xkilldash9x/prunact/internal/store"
)

func newComponents(t *testing.T) *Components {
	t.Helper()
	snap := gamedatatest.Snapshot()
	reg, err := NewRegistry(RegistryDeps{Catalog: snap, Drafts: snap, Selectors: selectors.Default(), Timings: steps.DefaultTimings()})
	require.NoError(t, err)
	return &Components{Snapshot: snap, Registry: reg, logger: zap.NewNop()}
}

func TestNewRegistry(t *testing.T) {
	c := newComponents(t)
	assert.Equal(t, []string{actions.TypeCont, actions.TypeContShip, actions.TypeContTrade}, c.Registry.ActionTypes())
	assert.Equal(t, []string{paste.Type}, c.Registry.MaterialGroupTypes())
	for _, typ := range []string{steps.TypeContSend, steps.TypeContTrade} {
		_, ok := c.Registry.StepInfo(typ)
		assert.True(t, ok, typ)
	}
}

func TestComponents_Generate(t *testing.T) {
	c := newComponents(t)
	pkg := &act.ActionPackage{
		Global:  act.PackageGlobal{Name: "Iron Sale"},
		Actions: []act.Action{{Type: actions.TypeContTrade, Name: "sell", Group: "ore", ContLocation: "Benten", ContTradeType: act.TradeSelling}},
		Groups:  []act.MaterialGroup{{Type: paste.Type, Name: "ore", Materials: "FE,20,1200"}},
	}

	var statuses []string
	res, log := c.Generate(context.Background(), pkg, act.ActionPackageConfig{}, func(s string) { statuses = append(statuses, s) })
	assert.False(t, res.Fail)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, steps.TypeContTrade, res.Steps[0].Type)
	assert.Empty(t, log)
	assert.Equal(t, []string{"Generating material bill for ore..."}, statuses)

	res, log = c.Generate(context.Background(), &act.ActionPackage{Global: act.PackageGlobal{Name: "Empty"}}, act.ActionPackageConfig{}, nil)
	assert.True(t, res.Fail)
	assert.Equal(t, []act.LogEntry{{Tag: act.TagError, Message: "No actions were generated"}}, log)
}

func TestComponents_RecordWithoutStore(t *testing.T) {
	c := newComponents(t)
	id := c.Record(store.RunRecord{PackageName: "Iron Sale"}, nil)
	assert.NotEqual(t, uuid.Nil, id)

	fixed := uuid.New()
	assert.Equal(t, fixed, c.Record(store.RunRecord{ID: fixed}, nil))
	c.Shutdown()
}

type fakeSaver struct {
	mu      sync.Mutex
	runs    []store.RunRecord
	results map[uuid.UUID][]runner.StepResult
	runErr  error
}

func (f *fakeSaver) SaveRun(_ context.Context, run store.RunRecord) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.runErr != nil {
		return uuid.Nil, f.runErr
	}
	f.runs = append(f.runs, run)
	return run.ID, nil
}

func (f *fakeSaver) SaveStepResults(_ context.Context, id uuid.UUID, results []runner.StepResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.results == nil {
		f.results = map[uuid.UUID][]runner.StepResult{}
	}
	f.results[id] = append(f.results[id], results...)
	return nil
}

func TestHistoryConsumer(t *testing.T) {
	defer goleak.VerifyNone(t)

	saver := &fakeSaver{}
	var wg sync.WaitGroup
	entries := make(chan HistoryEntry, 4)
	c := &Components{logger: zap.NewNop(), history: entries, consumerWG: &wg}
	StartHistoryConsumer(context.Background(), &wg, entries, saver, zap.NewNop())

	results := []runner.StepResult{{Index: 0, Type: steps.TypeContTrade, Outcome: act.OutcomeCompleted}}
	id := c.Record(store.RunRecord{PackageName: "Iron Sale", Mode: store.ModeRun}, results)
	c.Shutdown()

	require.Len(t, saver.runs, 1)
	assert.Equal(t, id, saver.runs[0].ID)
	assert.Equal(t, results, saver.results[id])
}

func TestComponents_RecordDuringShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	saver := &fakeSaver{}
	var wg sync.WaitGroup
	entries := make(chan HistoryEntry, 4)
	c := &Components{logger: zap.NewNop(), history: entries, consumerWG: &wg}
	StartHistoryConsumer(context.Background(), &wg, entries, saver, zap.NewNop())

	var recorders sync.WaitGroup
	for i := 0; i < 8; i++ {
		recorders.Add(1)
		go func() {
			defer recorders.Done()
			for j := 0; j < 50; j++ {
				assert.NotEqual(t, uuid.Nil, c.Record(store.RunRecord{PackageName: "Iron Sale"}, nil))
			}
		}()
	}
	c.Shutdown()
	recorders.Wait()

	assert.NotEqual(t, uuid.Nil, c.Record(store.RunRecord{PackageName: "late"}, nil), "recording after shutdown drops the run")
	c.Shutdown()
}

func TestHistoryConsumer_DrainsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	core, logs := observer.New(zapcore.WarnLevel)
	saver := &fakeSaver{}
	entries := make(chan HistoryEntry, 4)
	entries <- HistoryEntry{Run: &store.RunRecord{ID: uuid.New(), PackageName: "a"}}
	entries <- HistoryEntry{Run: &store.RunRecord{ID: uuid.New(), PackageName: "b"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var wg sync.WaitGroup
	StartHistoryConsumer(ctx, &wg, entries, saver, zap.New(core))
	wg.Wait()

	assert.Len(t, saver.runs, 2)
	assert.NotEmpty(t, logs.FilterMessage("History consumer context canceled, draining queued entries.").All())
}

func TestPersist_RunFailureSkipsResults(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	saver := &fakeSaver{runErr: errors.New("connection refused")}
	persist(HistoryEntry{
		Run:     &store.RunRecord{ID: uuid.New(), PackageName: "Iron Sale"},
		Results: []runner.StepResult{{Index: 0}},
	}, saver, zap.New(core))

	assert.Empty(t, saver.results)
	require.Len(t, logs.All(), 1)
	assert.Equal(t, "Failed to persist run. History entry lost.", logs.All()[0].Message)
}

func TestCreate(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Data.SnapshotDir = t.TempDir()

	c, err := Create(context.Background(), cfg, Options{History: true}, zap.NewNop())
	require.NoError(t, err)
	defer c.Shutdown()
	assert.Nil(t, c.Store, "no database configured")
	assert.Nil(t, c.Browser)
	assert.NotNil(t, c.Registry)
	assert.NotNil(t, c.Metrics)
}

func TestInitializeStore_InvalidURL(t *testing.T) {
	_, _, err := InitializeStore(context.Background(), config.DatabaseConfig{URL: "postgres://user:pw@localhost:notaport/db"}, zap.NewNop())
	assert.ErrorContains(t, err, "unable to parse PGX pool config")
}
