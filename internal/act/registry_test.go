package act_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/xkilldash9x/prunact/internal/act"
)

type stubAction struct {
	typ       string
	configure bool
}

func (s stubAction) Type() string { return s.typ }
func (s stubAction) Description(a act.Action, _ act.ActionConfig) string { return "does " + a.Name }
func (s stubAction) NeedsConfigure(act.Action) bool { return s.configure }
func (s stubAction) IsValidConfig(_ act.Action, cfg act.ActionConfig) bool {
	return cfg.Location != ""
}
func (s stubAction) GenerateSteps(context.Context, *act.GenerateContext) error { return nil }

type stubGroup struct{ typ string }

func (s stubGroup) Type() string { return s.typ }
func (s stubGroup) Description(act.MaterialGroup) string { return "stub" }
func (s stubGroup) NeedsConfigure(g act.MaterialGroup) bool {
	return g.Materials == ""
}
func (s stubGroup) IsValidConfig(_ act.MaterialGroup, cfg act.MaterialGroupConfig) bool {
	return cfg.Materials != ""
}
func (s stubGroup) GenerateMaterialBill(context.Context, *act.BillContext) (map[string]int, error) {
	return nil, nil
}

func TestRegistryBuilder(t *testing.T) {
	step := act.NewStepInfo("S", func(struct{}) string { return "s" }, func(context.Context, *act.ExecContext, struct{}) {})
	reg, err := act.NewRegistryBuilder().
		AddAction(stubAction{typ: "B"}).
		AddAction(stubAction{typ: "A"}).
		AddMaterialGroup(stubGroup{typ: "G"}).
		AddStep(step).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, reg.ActionTypes())
	assert.Equal(t, []string{"G"}, reg.MaterialGroupTypes())
	_, ok := reg.StepInfo("S")
	assert.True(t, ok)
	_, ok = reg.ActionInfo("C")
	assert.False(t, ok)
}

func TestRegistryBuilder_Duplicates(t *testing.T) {
	_, err := act.NewRegistryBuilder().
		AddAction(stubAction{typ: "A"}).
		AddAction(stubAction{typ: "A"}).
		AddMaterialGroup(stubGroup{typ: "G"}).
		AddMaterialGroup(stubGroup{typ: "G"}).
		Build()
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.EqualError(t, errs[0], `action type "A" registered twice`)
	assert.EqualError(t, errs[1], `material group type "G" registered twice`)
}

func TestStepEncoding(t *testing.T) {
	type payload struct {
		Count int `json:"count"`
	}
	step, err := act.EncodeStep("X", payload{Count: 3})
	require.NoError(t, err)
	assert.Equal(t, "X", step.Type)

	got, err := act.DecodeStep[payload](step)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Count)

	info := act.NewStepInfo("X", func(p payload) string { return "count" }, func(context.Context, *act.ExecContext, payload) {})
	_, err = info.Description(act.Step{Type: "X", Data: []byte("{")})
	assert.Error(t, err)
}
