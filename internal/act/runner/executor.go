package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/dom"
	"github.com/xkilldash9x/prunact/internal/observability"
)

// StepResult is the outcome of one executed step.
type StepResult struct {
	Index       int           `json:"index"`
	Type        string        `json:"type"`
	Description string        `json:"description"`
	Outcome     act.Outcome   `json:"outcome"`
	Message     string        `json:"message,omitempty"`
	StartedAt   time.Time     `json:"startedAt"`
	Elapsed     time.Duration `json:"elapsed"`
}

// ExecutorOptions are the collaborators of an Executor.
type ExecutorOptions struct {
	Driver    dom.Driver
	Tiles     act.TileProvider
	Confirmer act.Confirmer
	Log       *act.Logger
	// OnStatusChanged is notified of progress. Optional.
	OnStatusChanged func(status string)
	Metrics         *observability.ActMetrics
	Logger          *zap.Logger
}

// Executor runs a plan of steps strictly in order.
type Executor struct {
	registry *act.Registry
	opts     ExecutorOptions
	logger   *zap.Logger
}

// NewExecutor creates an Executor over reg.
func NewExecutor(reg *act.Registry, opts ExecutorOptions) *Executor {
	if opts.Log == nil {
		opts.Log = act.NewLogger(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{registry: reg, opts: opts, logger: logger.Named("executor")}
}

// Execute runs steps in order and stops at the first step that does not
// complete. The returned results cover every step that was started.
func (e *Executor) Execute(ctx context.Context, steps []act.Step) []StepResult {
	results := make([]StepResult, 0, len(steps))
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			e.logger.Info("Execution canceled.", zap.Int("remaining", len(steps)-i), zap.Error(err))
			break
		}
		res := e.executeOne(ctx, i, step)
		results = append(results, res)

		e.opts.Metrics.RecordStep(res.Type, string(res.Outcome), res.Elapsed)
		e.logger.Info("Step finished.",
			zap.Int("index", i),
			zap.String("type", res.Type),
			zap.String("outcome", string(res.Outcome)),
			zap.Duration("elapsed", res.Elapsed))

		if res.Outcome != act.OutcomeCompleted {
			break
		}
	}
	return results
}

func (e *Executor) executeOne(ctx context.Context, index int, step act.Step) StepResult {
	res := StepResult{Index: index, Type: step.Type, StartedAt: time.Now()}
	log := e.opts.Log.Scoped(step.Type)

	info, ok := e.registry.StepInfo(step.Type)
	if !ok {
		res.Outcome = act.OutcomeFailed
		res.Message = fmt.Sprintf("Unknown step type %s", step.Type)
		log.Error(res.Message)
		return res
	}
	if desc, err := info.Description(step); err == nil {
		res.Description = desc
	} else {
		res.Description = step.Type
	}

	ec := act.NewExecContext(step, log, e.opts.Driver, e.opts.Tiles, e.opts.Confirmer, e.opts.OnStatusChanged)
	run(ctx, info, ec)
	res.Outcome, res.Message = ec.Outcome()
	res.Elapsed = time.Since(res.StartedAt)

	if e.opts.Driver != nil {
		if err := e.opts.Driver.Release(ctx); err != nil {
			e.logger.Warn("Could not release page handles.", zap.Error(err))
		}
	}
	return res
}

// run executes a step, failing it when it panics.
func run(ctx context.Context, info act.StepInfo, ec *act.ExecContext) {
	defer func() {
		if r := recover(); r != nil {
			ec.Fail(fmt.Sprintf("Step %s panicked: %v", info.Type(), r))
		}
	}()
	info.Execute(ctx, ec)
}
