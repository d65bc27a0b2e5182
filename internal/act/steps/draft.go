// -- internal/act/steps/draft.go --
package steps

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/act/selectors"
	"github.com/xkilldash9x/prunact/internal/dom"
	"github.com/xkilldash9x/prunact/internal/gamedata"
	"github.com/xkilldash9x/prunact/internal/poll"
)

// Inputs of the contract editor, located by attribute rather than class.
const (
	amountInputSelector   = `input[inputmode="numeric"]`
	priceInputSelector    = `input[name="price"]`
	deadlineInputSelector = `input[name="deadline"]`
)

// runner holds the collaborators shared by the contract steps and implements
// the parts of the draft editor flow they have in common.
type runner struct {
	sel       selectors.Set
	materials gamedata.MaterialCatalog
	drafts    gamedata.ContractDraftSource
	now       func() time.Time
	t         Timings
}

func newRunner(deps Deps) *runner {
	r := &runner{
		sel:       deps.Selectors.Merge(),
		materials: deps.Materials,
		drafts:    deps.Drafts,
		now:       deps.Now,
		t:         deps.Timings,
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.t == (Timings{}) {
		r.t = DefaultTimings()
	}
	return r
}

// materialLine is one row of the commodity template.
type materialLine struct {
	Ticker string
	Amount int
}

// sortedTickers returns the tickers of a bill in a stable order.
func sortedTickers(materials map[string]int) []string {
	tickers := make([]string, 0, len(materials))
	for t := range materials {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// contractName is "<package> - <suffix> - <Mon D>".
func (r *runner) contractName(pkg, suffix string) string {
	return fmt.Sprintf("%s - %s - %s", pkg, suffix, r.now().Format("Jan 2"))
}

func (r *runner) draftIDs(ctx context.Context) (map[string]bool, error) {
	drafts, err := r.drafts.All(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(drafts))
	for _, d := range drafts {
		ids[d.NaturalID] = true
	}
	return ids, nil
}

// createDraft clicks the "Create New" button and detects the new draft by
// diffing the draft registry.
func (r *runner) createDraft(ctx context.Context, ec *act.ExecContext, createBtn dom.Element) (string, bool) {
	before, err := r.draftIDs(ctx)
	if err != nil {
		ec.Fail(fmt.Sprintf("Could not read contract drafts: %v", err))
		return "", false
	}
	if err := ec.DOM.Click(ctx, createBtn); err != nil {
		ec.Fail(fmt.Sprintf("Could not click \"Create New\" button: %v", err))
		return "", false
	}

	ec.SetStatus("Waiting for draft to be created...")
	var id string
	appeared := poll.WaitFor(ctx, func(ctx context.Context) bool {
		drafts, err := r.drafts.All(ctx)
		if err != nil {
			return false
		}
		for _, d := range drafts {
			if !before[d.NaturalID] {
				id = d.NaturalID
				return true
			}
		}
		return false
	}, r.t.DraftCreated, poll.DefaultInterval)
	if !appeared {
		ec.Fail("Timed out waiting for new contract draft")
		return "", false
	}
	ec.Log.Info(fmt.Sprintf("New draft created: %s", id))
	return id, true
}

func (r *runner) openDraft(ctx context.Context, ec *act.ExecContext, id string) (act.Tile, bool) {
	ec.SetStatus(fmt.Sprintf("Loading draft %s...", id))
	return ec.RequestTile(ctx, ContractDraftsCommand+" "+id)
}

func (r *runner) setName(ctx context.Context, ec *act.ExecContext, tile act.Tile, name string) {
	ec.SetStatus("Setting contract name...")
	input, ok := dom.WaitQuery(ctx, ec.DOM, tile.Anchor, "input", dom.DefaultQueryWait)
	if !ok {
		ec.Log.Warning("Could not find name input")
		return
	}
	if err := dom.FillInput(ctx, ec.DOM, input, name); err != nil {
		ec.Log.Warning(fmt.Sprintf("Could not set name: %v", err))
		return
	}
	ec.Log.Info(fmt.Sprintf("Name set: %s", name))
}

func (r *runner) setPreamble(ctx context.Context, ec *act.ExecContext, tile act.Tile, text string) {
	area, ok, err := dom.Query(ctx, ec.DOM, tile.Anchor, "textarea")
	if err != nil || !ok {
		return
	}
	if err := ec.DOM.Focus(ctx, area); err != nil {
		return
	}
	if err := ec.DOM.SetTextAreaValue(ctx, area, text); err != nil {
		ec.Log.Warning(fmt.Sprintf("Could not set preamble: %v", err))
		return
	}
	ec.Log.Info("Preamble set")
}

// saveDetails clicks the first "save" button, which saves name and preamble.
func (r *runner) saveDetails(ctx context.Context, ec *act.ExecContext, tile act.Tile) {
	ec.SetStatus("Saving draft details...")
	btn, ok, err := dom.FindByText(ctx, ec.DOM, tile.Anchor, r.sel.Button.Btn, dom.TextEquals("save"))
	if err != nil || !ok {
		ec.Log.Warning("Could not find save button for draft details")
		return
	}
	if err := ec.DOM.Click(ctx, btn); err != nil {
		ec.Log.Warning(fmt.Sprintf("Could not save draft details: %v", err))
		return
	}
	ec.Log.Info("Draft details saved")
}

// selectTemplate opens template selection and picks the template type with
// option value template. label names the template in status and log lines.
func (r *runner) selectTemplate(ctx context.Context, ec *act.ExecContext, tile act.Tile, template, label string) bool {
	ec.SetStatus("Opening template selection...")
	btn, ok := r.waitButton(ctx, ec, tile, "button", dom.TextEquals("select template"), r.t.SelectTemplate)
	if !ok {
		ec.Fail(`Could not find "Select Template" button`)
		return false
	}
	r.click(ctx, ec, btn)

	ec.SetStatus(fmt.Sprintf("Selecting %s commodity template...", label))
	typeContainer, ok := dom.WaitQuery(ctx, ec.DOM, tile.Anchor, r.sel.TemplateSelection.TemplateTypeSelect, dom.DefaultQueryWait)
	var templateSelect dom.Element
	if ok {
		templateSelect, ok, _ = dom.Query(ctx, ec.DOM, typeContainer, "select")
	}
	if !ok {
		ec.Fail("Could not find template type select")
		return false
	}
	if idx := dom.OptionIndex(ctx, ec.DOM, templateSelect, template); idx >= 0 {
		if err := ec.DOM.SelectIndex(ctx, templateSelect, idx); err != nil {
			ec.Log.Warning(fmt.Sprintf("Could not select template: %v", err))
		}
	}
	ec.Log.Info(fmt.Sprintf("Selected \"%s commodity\" template", label))
	return true
}

// selectCurrency picks currency in whichever select offers it. A missing
// currency select is only a warning.
func (r *runner) selectCurrency(ctx context.Context, ec *act.ExecContext, tile act.Tile, currency string) {
	var currencySelect dom.Element
	found := poll.WaitFor(ctx, func(ctx context.Context) bool {
		s, ok := dom.FindSelectWithOption(ctx, ec.DOM, tile.Anchor, currency)
		currencySelect = s
		return ok
	}, r.t.Currency, poll.DefaultInterval)
	if !found {
		ec.Log.Warning(fmt.Sprintf("Could not find currency select for %s", currency))
		return
	}
	if idx := dom.OptionIndex(ctx, ec.DOM, currencySelect, currency); idx >= 0 {
		if err := ec.DOM.SelectIndex(ctx, currencySelect, idx); err != nil {
			ec.Log.Warning(fmt.Sprintf("Could not select currency %s: %v", currency, err))
			return
		}
	}
	ec.Log.Info(fmt.Sprintf("Currency set to %s", currency))
}

// fillGroups writes one template group per line, adding groups as needed.
// afterLine runs once a group's amount and material are set. A line that
// cannot be written is logged and skipped.
func (r *runner) fillGroups(ctx context.Context, ec *act.ExecContext, tile act.Tile, lines []materialLine, afterLine func(group dom.Element, line materialLine)) {
	ec.SetStatus("Adding materials to template...")
	groupSel := r.sel.TemplateSelection.Group
	for i, line := range lines {
		if i > 0 {
			addBtn, ok, err := dom.FindByText(ctx, ec.DOM, tile.Anchor, "button", dom.TextEquals("add shipment", "add commodity"))
			if err != nil || !ok {
				ec.Log.Warning(fmt.Sprintf("Could not find add button for %s", line.Ticker))
				continue
			}
			r.click(ctx, ec, addBtn)
			want := i + 1
			poll.WaitFor(ctx, func(ctx context.Context) bool {
				return dom.Count(ctx, ec.DOM, tile.Anchor, groupSel) >= want
			}, r.t.AddGroup, poll.DefaultInterval)
		}

		groups, err := ec.DOM.QueryAll(ctx, tile.Anchor, groupSel)
		if err != nil || len(groups) == 0 {
			ec.Log.Warning(fmt.Sprintf("Could not find group for %s", line.Ticker))
			continue
		}
		group := groups[len(groups)-1]

		if amount, ok, _ := dom.Query(ctx, ec.DOM, group, amountInputSelector); ok {
			_ = dom.FillInput(ctx, ec.DOM, amount, strconv.Itoa(line.Amount))
		}

		if container, ok, _ := dom.Query(ctx, ec.DOM, group, r.sel.MaterialSelector.Container); ok {
			if SelectMaterial(ctx, ec.DOM, r.sel, container, line.Ticker, r.t.MaterialSettle) {
				ec.Log.Info(fmt.Sprintf("Added: %s x%d", line.Ticker, line.Amount))
			} else {
				ec.Log.Warning(fmt.Sprintf("Could not select material %s", line.Ticker))
			}
		}

		if afterLine != nil {
			afterLine(group, line)
		}
	}
}

// setPrice fills the first price input under scope.
func (r *runner) setPrice(ctx context.Context, ec *act.ExecContext, scope dom.Element, value string) bool {
	input, ok, err := dom.Query(ctx, ec.DOM, scope, priceInputSelector)
	if err != nil || !ok {
		return false
	}
	return dom.FillInput(ctx, ec.DOM, input, value) == nil
}

// setAddresses fills the address selectors of the template in order.
// Empty locations are skipped.
func (r *runner) setAddresses(ctx context.Context, ec *act.ExecContext, tile act.Tile, fields ...addressField) {
	containers, err := ec.DOM.QueryAll(ctx, tile.Anchor, r.sel.AddressSelector.Container)
	if err != nil {
		return
	}
	for i, f := range fields {
		if i >= len(containers) || f.Location == "" {
			continue
		}
		if SelectLocation(ctx, ec.DOM, r.sel, containers[i], f.Location, r.t.Suggestions) {
			ec.Log.Info(fmt.Sprintf("%s set: %s", f.Label, f.Location))
		} else {
			ec.Log.Warning(fmt.Sprintf("Could not select %s: %s", f.Noun, f.Location))
		}
	}
}

// addressField is one address selector of a template. Label starts the
// success line ("Origin set: ..."), Noun names the field in the warning.
type addressField struct {
	Label    string
	Noun     string
	Location string
}

func (r *runner) setDeadline(ctx context.Context, ec *act.ExecContext, tile act.Tile, days int) {
	if days <= 0 {
		return
	}
	input, ok, err := dom.Query(ctx, ec.DOM, tile.Anchor, deadlineInputSelector)
	if err != nil || !ok {
		return
	}
	if err := dom.FillInput(ctx, ec.DOM, input, strconv.Itoa(days)); err != nil {
		return
	}
	ec.Log.Info(fmt.Sprintf("Deadline set: %d days", days))
}

// applyTemplate clicks "Apply Template" and waits for the request to go out
// (button disabled) and settle (button enabled again).
func (r *runner) applyTemplate(ctx context.Context, ec *act.ExecContext, tile act.Tile) bool {
	ec.SetStatus("Applying template...")
	btn, ok := r.waitButton(ctx, ec, tile, "button", dom.TextEquals("apply template"), r.t.ApplyReady)
	if !ok {
		ec.Fail(`Could not find "Apply Template" button`)
		return false
	}
	r.click(ctx, ec, btn)

	disabled := r.sel.Button.DisabledClass
	poll.WaitFor(ctx, func(ctx context.Context) bool {
		is, err := ec.DOM.MatchesClass(ctx, btn, disabled)
		return err == nil && is
	}, r.t.ApplyBusy, poll.DefaultInterval)
	poll.WaitFor(ctx, func(ctx context.Context) bool {
		is, err := ec.DOM.MatchesClass(ctx, btn, disabled)
		return err == nil && !is
	}, r.t.ApplySettle, poll.DefaultInterval)
	ec.Log.Info("Template applied")
	return true
}

// saveConditions pauses for the user to review the draft, then clicks the
// last "save" button and completes the step. It returns without completing
// when the user does not confirm.
func (r *runner) saveConditions(ctx context.Context, ec *act.ExecContext, tile act.Tile, draftID string) {
	if err := ec.WaitAct(ctx, "Save conditions?"); err != nil {
		return
	}
	ec.SetStatus("Saving conditions...")

	btn, ok, err := dom.FindLastByText(ctx, ec.DOM, tile.Anchor, r.sel.Button.Btn, dom.TextEquals("save"))
	saved := false
	if err == nil && ok {
		disabled, err := ec.DOM.MatchesClass(ctx, btn, r.sel.Button.DisabledClass)
		if err == nil && !disabled && ec.DOM.Click(ctx, btn) == nil {
			saved = true
		}
	}
	if saved {
		ec.Log.Info("Conditions saved")
	} else {
		ec.Log.Warning("Conditions save button not found or disabled")
	}

	ec.Log.Success(fmt.Sprintf("Contract draft %s ready to send", draftID))
	ec.Complete()
}

func (r *runner) waitButton(ctx context.Context, ec *act.ExecContext, tile act.Tile, selector string, pred dom.TextPredicate, timeout time.Duration) (dom.Element, bool) {
	var btn dom.Element
	ok := poll.WaitFor(ctx, func(ctx context.Context) bool {
		el, found, err := dom.FindByText(ctx, ec.DOM, tile.Anchor, selector, pred)
		if err != nil || !found {
			return false
		}
		btn = el
		return true
	}, timeout, poll.DefaultInterval)
	return btn, ok
}

func (r *runner) click(ctx context.Context, ec *act.ExecContext, el dom.Element) {
	if err := ec.DOM.Click(ctx, el); err != nil {
		ec.Log.Warning(fmt.Sprintf("Click failed: %v", err))
	}
}
