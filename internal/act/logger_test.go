package act_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/prunact/internal/act"
)

func TestLogger_Scoped(t *testing.T) {
	rec := &act.Recorder{}
	log := act.NewLogger(rec.Sink())
	log.Scoped("ship").Scoped("Paste").Warning("empty")
	log.Success("done")
	log.RuntimeError(errors.New("boom"))
	log.RuntimeError(nil)

	assert.Equal(t, []act.LogEntry{
		{Tag: act.TagWarning, Message: "[ship] [Paste] empty"},
		{Tag: act.TagSuccess, Message: "done"},
		{Tag: act.TagError, Message: "Runtime error: boom"},
	}, rec.Entries())

	// A nil sink discards.
	act.NewLogger(nil).Info("dropped")
}

func TestZapSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := &act.Recorder{}
	log := act.NewLogger(act.MultiSink(act.ZapSink(zap.New(core)), rec.Sink(), nil))

	log.Info("a")
	log.Warning("b")
	log.Error("c")
	log.Success("d")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[3].Level)
	assert.Equal(t, "SUCCESS", entries[3].ContextMap()["act.tag"])
	assert.Len(t, rec.Entries(), 4)
}

type failingGeneration struct{ failed bool }

func (g *failingGeneration) MarkFailed() { g.failed = true }
func (g *failingGeneration) EmitStep(act.Step) {}
func (g *failingGeneration) MaterialGroup(context.Context, string) (map[string]int, error) {
	return nil, nil
}
func (g *failingGeneration) MaterialGroupPrices(string) map[string]float64 { return nil }
func (g *failingGeneration) MaterialGroupPlanet(string) string { return "" }

func TestGenerateContext_FailAndAssert(t *testing.T) {
	rec := &act.Recorder{}
	gen := &failingGeneration{}
	gc := act.NewGenerateContext(gen, act.Action{Name: "ship"}, act.ActionConfig{}, "pkg", act.NewLogger(rec.Sink()), act.State{})

	require.NoError(t, gc.Assert(true, "unused"))
	err := gc.Assert(false, "Invalid origin")
	assert.ErrorIs(t, err, act.ErrAssertion)
	assert.False(t, gen.failed, "Assert leaves failing to the generator")

	gc.Fail("")
	assert.True(t, gen.failed)
	assert.Equal(t, []string{"Invalid origin"}, rec.Messages(act.TagError))
}

func TestExecContext_TerminalStates(t *testing.T) {
	rec := &act.Recorder{}
	ec := act.NewExecContext(act.Step{Type: "X"}, act.NewLogger(rec.Sink()), nil, nil, nil, nil)
	outcome, _ := ec.Outcome()
	assert.Equal(t, act.OutcomeAborted, outcome, "a step that never finished is aborted")

	ec.Complete()
	ec.Fail("too late")
	outcome, msg := ec.Outcome()
	assert.Equal(t, act.OutcomeCompleted, outcome)
	assert.Empty(t, msg)
	assert.Empty(t, rec.Messages(act.TagError))

	require.NoError(t, ec.WaitAct(context.Background(), "no confirmer"))
}
