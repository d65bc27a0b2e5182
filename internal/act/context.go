package act

import (
	"context"
	"errors"
	"fmt"

	"github.com/xkilldash9x/prunact/internal/dom"
)

// ErrAssertion marks a failed precondition. It has already been logged when it
// is returned, and it is only ever caught by the step generator's action loop.
var ErrAssertion = errors.New("assertion failed")

// ErrDeclined is returned by a Confirmer when the user declines to continue.
var ErrDeclined = errors.New("confirmation declined")

// Generation is the per-run request object behind a GenerateContext. The step
// generator implements it.
type Generation interface {
	MarkFailed()
	EmitStep(step Step)
	MaterialGroup(ctx context.Context, name string) (map[string]int, error)
	MaterialGroupPrices(name string) map[string]float64
	MaterialGroupPlanet(name string) string
}

// GenerateContext is handed to ActionInfo.GenerateSteps for one action.
type GenerateContext struct {
	Data        Action
	Config      ActionConfig
	PackageName string
	Log         *Logger
	State       State

	gen Generation
}

// NewGenerateContext binds an action to a generation run.
func NewGenerateContext(gen Generation, data Action, cfg ActionConfig, packageName string, log *Logger, state State) *GenerateContext {
	return &GenerateContext{
		Data:        data,
		Config:      cfg,
		PackageName: packageName,
		Log:         log,
		State:       state,
		gen:         gen,
	}
}

// Fail marks the run as failed, logging message when it is not empty.
func (c *GenerateContext) Fail(message string) {
	if message != "" {
		c.Log.Error(message)
	}
	c.gen.MarkFailed()
}

// Assert logs message and returns an ErrAssertion when cond is false. Providers
// return the error unchanged so the generator can tell it apart from faults.
func (c *GenerateContext) Assert(cond bool, message string) error {
	if cond {
		return nil
	}
	c.Log.Error(message)
	return fmt.Errorf("%w: %s", ErrAssertion, message)
}

// EmitStep appends a step to the run's plan.
func (c *GenerateContext) EmitStep(step Step) { c.gen.EmitStep(step) }

// MaterialGroup resolves the bill of the named group. Every call re-resolves.
// A nil map means the group could not be resolved; the reason is logged.
func (c *GenerateContext) MaterialGroup(ctx context.Context, name string) (map[string]int, error) {
	return c.gen.MaterialGroup(ctx, name)
}

// MaterialGroupPrices returns the prices recorded for a group during this run.
func (c *GenerateContext) MaterialGroupPrices(name string) map[string]float64 {
	return c.gen.MaterialGroupPrices(name)
}

// MaterialGroupPlanet returns the planet of a group, "" when unresolved.
func (c *GenerateContext) MaterialGroupPlanet(name string) string {
	return c.gen.MaterialGroupPlanet(name)
}

// BillContext is handed to MaterialGroupInfo.GenerateMaterialBill.
type BillContext struct {
	Data   MaterialGroup
	Config MaterialGroupConfig
	Log    *Logger

	setStatus func(string)
	setPrices func(map[string]float64)
}

// NewBillContext builds a BillContext. Nil callbacks are ignored.
func NewBillContext(data MaterialGroup, cfg MaterialGroupConfig, log *Logger, setStatus func(string), setPrices func(map[string]float64)) *BillContext {
	return &BillContext{Data: data, Config: cfg, Log: log, setStatus: setStatus, setPrices: setPrices}
}

// SetStatus reports progress to the user.
func (c *BillContext) SetStatus(status string) {
	if c.setStatus != nil {
		c.setStatus(status)
	}
}

// SetPrices records per-ticker prices for the group for the rest of the run.
func (c *BillContext) SetPrices(prices map[string]float64) {
	if c.setPrices != nil {
		c.setPrices(prices)
	}
}

// Tile is a panel of the game UI. Anchor is the root element of its content.
type Tile struct {
	ID     string
	Anchor dom.Element
}

// TileProvider acquires and looks up panels.
type TileProvider interface {
	// Request focuses the panel with the given identifier, opening it when
	// needed. ok is false when the panel did not appear in time.
	Request(ctx context.Context, id string) (tile Tile, ok bool)
	// Find lists open panels whose command equals command, or starts with it
	// when prefix is set.
	Find(ctx context.Context, command string, prefix bool) ([]Tile, error)
}

// Confirmer suspends a step until a person confirms it may proceed.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) error
}

// Outcome is the terminal state of an executed step.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeAborted   Outcome = "aborted"
)

// ExecContext is handed to StepInfo.Execute.
type ExecContext struct {
	Step Step
	Log  *Logger
	DOM  dom.Driver

	tiles     TileProvider
	confirmer Confirmer
	setStatus func(string)

	outcome Outcome
	message string
}

// NewExecContext builds the context for executing a single step.
func NewExecContext(step Step, log *Logger, driver dom.Driver, tiles TileProvider, confirmer Confirmer, setStatus func(string)) *ExecContext {
	return &ExecContext{
		Step:      step,
		Log:       log,
		DOM:       driver,
		tiles:     tiles,
		confirmer: confirmer,
		setStatus: setStatus,
		outcome:   OutcomePending,
	}
}

// SetStatus reports progress to the user.
func (c *ExecContext) SetStatus(status string) {
	if c.setStatus != nil {
		c.setStatus(status)
	}
}

// RequestTile acquires a panel. A false ok is logged here; callers just return.
func (c *ExecContext) RequestTile(ctx context.Context, id string) (Tile, bool) {
	tile, ok := c.tiles.Request(ctx, id)
	if !ok {
		c.Log.Error(fmt.Sprintf("Could not open tile %s", id))
	}
	return tile, ok
}

// FindTiles lists open panels for a command.
func (c *ExecContext) FindTiles(ctx context.Context, command string, prefix bool) ([]Tile, error) {
	return c.tiles.Find(ctx, command, prefix)
}

// WaitAct suspends until the user confirms. A non-nil error means the step
// must stop without completing.
func (c *ExecContext) WaitAct(ctx context.Context, prompt string) error {
	if c.confirmer == nil {
		return nil
	}
	c.SetStatus(prompt)
	if err := c.confirmer.Confirm(ctx, prompt); err != nil {
		c.Log.Warning(fmt.Sprintf("Stopped at %q: %v", prompt, err))
		return err
	}
	return nil
}

// Complete marks the step as done. Only the first terminal call counts.
func (c *ExecContext) Complete() {
	if c.outcome == OutcomePending {
		c.outcome = OutcomeCompleted
	}
}

// Fail marks the step as failed and logs message.
func (c *ExecContext) Fail(message string) {
	if c.outcome != OutcomePending {
		return
	}
	c.outcome = OutcomeFailed
	c.message = message
	c.Log.Error(message)
}

// Outcome returns the terminal state; a step that returned without calling
// Complete or Fail is reported as aborted.
func (c *ExecContext) Outcome() (Outcome, string) {
	if c.outcome == OutcomePending {
		return OutcomeAborted, ""
	}
	return c.outcome, c.message
}
