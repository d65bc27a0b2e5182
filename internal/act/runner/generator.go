// File: internal/act/runner/generator.go
// Package runner turns an action package into a plan of steps and executes
// that plan against the page.
package runner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/gamedata"
	"github.com/xkilldash9x/prunact/internal/observability"
)

// GeneratorOptions are the collaborators of a StepGenerator.
type GeneratorOptions struct {
	// Log receives every ACT log line of a run.
	Log *act.Logger
	// OnStatusChanged is notified of progress. Optional.
	OnStatusChanged func(status string)
	// Inventory feeds the warehouse snapshot handed to every action. Optional.
	Inventory gamedata.InventorySource
	Metrics   *observability.ActMetrics
	Logger    *zap.Logger
}

// StepGenerator runs the action providers of a package and collects the steps
// they emit. It holds no per-run state and may serve concurrent runs.
type StepGenerator struct {
	registry *act.Registry
	opts     GeneratorOptions
	logger   *zap.Logger
}

// NewStepGenerator creates a StepGenerator over reg.
func NewStepGenerator(reg *act.Registry, opts GeneratorOptions) *StepGenerator {
	if opts.Log == nil {
		opts.Log = act.NewLogger(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StepGenerator{registry: reg, opts: opts, logger: logger.Named("generator")}
}

// GenerateSteps runs every registered action of pkg in order and returns the
// plan. The run stops at the first failing action; a run that produced no
// steps is always a failure.
func (g *StepGenerator) GenerateSteps(ctx context.Context, pkg *act.ActionPackage, cfg act.ActionPackageConfig) act.RunResult {
	run := &generation{
		gen:    g,
		pkg:    pkg,
		cfg:    cfg,
		prices: make(map[string]map[string]float64),
	}
	state := GenerateState(g.opts.Inventory)

	for _, action := range pkg.Actions {
		info, ok := g.registry.ActionInfo(action.Type)
		if !ok {
			g.logger.Debug("Skipping action of unregistered type.",
				zap.String("action", action.Name), zap.String("type", action.Type))
			continue
		}
		log := g.opts.Log.Scoped(action.Name)
		gc := act.NewGenerateContext(run, action, cfg.Action(action.Name), pkg.Global.Name, log, state)

		if err := invoke(ctx, info, gc); err != nil {
			if !errors.Is(err, act.ErrAssertion) {
				g.opts.Log.RuntimeError(err)
			}
			run.fail = true
		}
		if run.fail {
			break
		}
	}

	if len(run.steps) == 0 {
		g.opts.Log.Error("No actions were generated")
		run.fail = true
	}

	types := make([]string, len(run.steps))
	for i, s := range run.steps {
		types[i] = s.Type
	}
	g.opts.Metrics.RecordRun(run.fail, types)
	g.logger.Info("Step generation finished.",
		zap.String("package", pkg.Global.Name),
		zap.Int("steps", len(run.steps)),
		zap.Bool("fail", run.fail))

	return act.RunResult{Steps: run.steps, Fail: run.fail}
}

// invoke calls a provider, turning a panic into an error.
func invoke(ctx context.Context, info act.ActionInfo, gc *act.GenerateContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s action panicked: %v", info.Type(), r)
		}
	}()
	return info.GenerateSteps(ctx, gc)
}

func (g *StepGenerator) status(s string) {
	if g.opts.OnStatusChanged != nil {
		g.opts.OnStatusChanged(s)
	}
}

// generation is the state of one GenerateSteps call.
type generation struct {
	gen    *StepGenerator
	pkg    *act.ActionPackage
	cfg    act.ActionPackageConfig
	steps  []act.Step
	fail   bool
	prices map[string]map[string]float64
}

var _ act.Generation = (*generation)(nil)

func (r *generation) MarkFailed() { r.fail = true }

func (r *generation) EmitStep(step act.Step) { r.steps = append(r.steps, step) }

func (r *generation) MaterialGroup(ctx context.Context, name string) (map[string]int, error) {
	log := r.gen.opts.Log
	if name == "" {
		log.Error("Missing material group")
	}
	group, ok := r.pkg.FindGroup(name)
	if !ok {
		log.Error("Unrecognized material group")
		return nil, nil
	}
	info, ok := r.gen.registry.MaterialGroupInfo(group.Type)
	if !ok {
		log.Error("Unrecognized material group type")
		return nil, nil
	}

	r.gen.status(fmt.Sprintf("Generating material bill for %s...", group.Name))
	bc := act.NewBillContext(group, r.cfg.MaterialGroup(name), log.Scoped(group.Name), r.gen.status,
		func(prices map[string]float64) { r.prices[name] = prices })
	return info.GenerateMaterialBill(ctx, bc)
}

func (r *generation) MaterialGroupPrices(name string) map[string]float64 {
	if name == "" {
		return nil
	}
	return r.prices[name]
}

func (r *generation) MaterialGroupPlanet(name string) string {
	log := r.gen.opts.Log
	if name == "" {
		log.Error("Missing material group")
		return ""
	}
	group, ok := r.pkg.FindGroup(name)
	if !ok {
		log.Error("Unrecognized material group")
		return ""
	}
	switch group.Planet {
	case "":
		log.Error(fmt.Sprintf("Material group [%s] has no planet configured", name))
		return ""
	case act.ConfigurableValue:
		planet := r.cfg.MaterialGroup(name).Planet
		if planet == "" {
			log.Error(fmt.Sprintf("Material group [%s] planet not configured", name))
		}
		return planet
	default:
		return group.Planet
	}
}
