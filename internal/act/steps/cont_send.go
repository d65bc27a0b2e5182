package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/dom"
)

func describeContSend(d ContSendData) string {
	payment := ""
	if d.Payment != 0 {
		payment = fmt.Sprintf(" for %s %s", fixed0(float64(d.Payment)), d.Currency)
	}
	return fmt.Sprintf("Create contract draft (%d materials)%s", len(d.Materials), payment)
}

// executeContSend creates a shipping contract draft from the draft list and
// fills the "Ship commodity" template.
func (r *runner) executeContSend(ctx context.Context, ec *act.ExecContext, d ContSendData) {
	listTile, ok := ec.RequestTile(ctx, ContractDraftsCommand)
	if !ok {
		return
	}

	ec.SetStatus("Creating new contract draft...")
	createBtn, ok := r.waitButton(ctx, ec, listTile, r.sel.Button.Btn, dom.TextContains("Create New"), r.t.CreateButton)
	if !ok {
		ec.Fail(`Could not find "Create New" button`)
		return
	}
	draftID, ok := r.createDraft(ctx, ec, createBtn)
	if !ok {
		return
	}
	draftTile, ok := r.openDraft(ctx, ec, draftID)
	if !ok {
		return
	}

	// Tickers missing from the catalog have no weight and are left out
	// of the template.
	var lines []materialLine
	tonnage := 0.0
	for _, ticker := range sortedTickers(d.Materials) {
		qty := d.Materials[ticker]
		if qty <= 0 {
			continue
		}
		m, ok := r.materials.ByTicker(ticker)
		if !ok {
			ec.Log.Warning(fmt.Sprintf("Material %s not found, skipping", ticker))
			continue
		}
		tonnage += m.Weight * float64(qty)
		lines = append(lines, materialLine{Ticker: ticker, Amount: qty})
	}

	if d.Payment > 0 && tonnage > 0 {
		ec.Log.Info(fmt.Sprintf("Total: %.2ft, %d %s (%d %s/t)",
			tonnage, d.Payment, d.Currency, perTon(d.Payment, tonnage), d.Currency))
	}

	r.setName(ctx, ec, draftTile, r.contractName(d.PackageName, d.ContDest))
	preamble := d.ContractNote
	if preamble == "" {
		preamble = shippingPreamble(d, lines, tonnage)
	}
	r.setPreamble(ctx, ec, draftTile, preamble)
	r.saveDetails(ctx, ec, draftTile)

	if !r.selectTemplate(ctx, ec, draftTile, TemplateShip, "Ship") {
		return
	}
	r.selectCurrency(ctx, ec, draftTile, d.Currency)
	r.fillGroups(ctx, ec, draftTile, lines, nil)

	// The ship template has a single price field for the whole contract.
	if d.Payment > 0 {
		if r.setPrice(ctx, ec, draftTile.Anchor, strconv.Itoa(d.Payment)) {
			ec.Log.Info(fmt.Sprintf("Price set: %d %s", d.Payment, d.Currency))
		} else {
			ec.Log.Warning("Could not find price input")
		}
	}

	r.setAddresses(ctx, ec, draftTile,
		addressField{Label: "Origin", Noun: "origin", Location: d.ContOrigin},
		addressField{Label: "Destination", Noun: "destination", Location: d.ContDest},
	)
	r.setDeadline(ctx, ec, draftTile, d.DaysToFulfill)

	if !r.applyTemplate(ctx, ec, draftTile) {
		return
	}
	r.saveConditions(ctx, ec, draftTile, draftID)
}

func shippingPreamble(d ContSendData, lines []materialLine, tonnage float64) string {
	items := make([]string, len(lines))
	for i, l := range lines {
		items[i] = fmt.Sprintf("%s x%d", l.Ticker, l.Amount)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Shipping contract for %.2ft.\n", tonnage)
	fmt.Fprintf(&b, "Materials: %s\n", strings.Join(items, ", "))
	if d.Payment > 0 {
		if tonnage > 0 {
			fmt.Fprintf(&b, "Payment: %d %s (%d %s/t)\n", d.Payment, d.Currency, perTon(d.Payment, tonnage), d.Currency)
		} else {
			fmt.Fprintf(&b, "Payment: %d %s\n", d.Payment, d.Currency)
		}
	}
	if d.DaysToFulfill > 0 {
		fmt.Fprintf(&b, "Delivery within %d days", d.DaysToFulfill)
	}
	return b.String()
}

func perTon(payment int, tonnage float64) int {
	return int(act.RoundHalfUp(float64(payment) / tonnage))
}
