package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/dom"
	"github.com/xkilldash9x/prunact/internal/poll"
)

func describeContTrade(d ContTradeData) string {
	return fmt.Sprintf("Create %s contract draft (%d materials)", tradeLabel(d.TradeType), len(d.Materials))
}

func tradeLabel(tradeType string) string {
	if tradeType == act.TradeBuying {
		return "Buy"
	}
	return "Sell"
}

// executeContTrade creates a buy or sell contract draft and fills the
// commodity template with one priced group per material.
func (r *runner) executeContTrade(ctx context.Context, ec *act.ExecContext, d ContTradeData) {
	if _, ok := ec.RequestTile(ctx, ContractDraftsCommand); !ok {
		return
	}
	if err := ec.WaitAct(ctx, "Press ACT to create new draft"); err != nil {
		return
	}
	ec.SetStatus("Looking for Create New button...")

	// The button may live in any open draft list, not only the one requested.
	var createBtn dom.Element
	found := poll.WaitFor(ctx, func(ctx context.Context) bool {
		tiles, err := ec.FindTiles(ctx, ContractDraftsCommand, true)
		if err != nil {
			return false
		}
		for _, tile := range tiles {
			btn, ok, err := dom.FindByText(ctx, ec.DOM, tile.Anchor, r.sel.Button.Btn, dom.TextEquals("create new"))
			if err == nil && ok {
				createBtn = btn
				return true
			}
		}
		return false
	}, r.t.TradeCreateButton, poll.DefaultInterval)
	if !found {
		ec.Fail(`Could not find "Create New" button in CONTD`)
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

	label := tradeLabel(d.TradeType)
	tickers := sortedTickers(d.Materials)
	r.setName(ctx, ec, draftTile, r.contractName(d.PackageName, label))
	r.setPreamble(ctx, ec, draftTile, tradePreamble(d, label, tickers))
	r.saveDetails(ctx, ec, draftTile)

	if !r.selectTemplate(ctx, ec, draftTile, d.TradeType, label) {
		return
	}
	r.selectCurrency(ctx, ec, draftTile, d.Currency)

	var lines []materialLine
	for _, t := range tickers {
		if amount := d.Materials[t]; amount > 0 {
			lines = append(lines, materialLine{Ticker: t, Amount: amount})
		}
	}
	// Each trade group carries its own price input after the material selector.
	r.fillGroups(ctx, ec, draftTile, lines, func(group dom.Element, line materialLine) {
		price, ok := d.Prices[line.Ticker]
		if !ok || price <= 0 {
			return
		}
		if r.setPrice(ctx, ec, group, strconv.FormatFloat(price, 'f', -1, 64)) {
			ec.Log.Info(fmt.Sprintf("Price for %s: %s %s", line.Ticker, strconv.FormatFloat(price, 'f', -1, 64), d.Currency))
		} else {
			ec.Log.Warning(fmt.Sprintf("Could not find price input for %s", line.Ticker))
		}
	})

	r.setAddresses(ctx, ec, draftTile, addressField{Label: "Location", Noun: "location", Location: d.Location})
	r.setDeadline(ctx, ec, draftTile, d.DaysToFulfill)

	if !r.applyTemplate(ctx, ec, draftTile) {
		return
	}
	r.saveConditions(ctx, ec, draftTile, draftID)
}

func tradePreamble(d ContTradeData, label string, tickers []string) string {
	items := make([]string, 0, len(tickers))
	for _, t := range tickers {
		amount := d.Materials[t]
		if price, ok := d.Prices[t]; ok && price > 0 {
			items = append(items, fmt.Sprintf("%s x%d @ %s/u", t, amount, fixed0(price)))
		} else {
			items = append(items, fmt.Sprintf("%s x%d", t, amount))
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s contract.\n", label)
	fmt.Fprintf(&b, "Materials: %s\n", strings.Join(items, ", "))
	if d.DaysToFulfill > 0 {
		fmt.Fprintf(&b, "Fulfill within %d days", d.DaysToFulfill)
	}
	return b.String()
}
