package actions

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/act/steps"
)

// ContTrade is a buy or sell contract priced per unit. Its material group
// must carry prices, which in practice means a 3-column Paste group.
type ContTrade struct{}

func NewContTrade() *ContTrade { return &ContTrade{} }

var _ act.ActionInfo = (*ContTrade)(nil)

func (c *ContTrade) Type() string { return TypeContTrade }

func (c *ContTrade) Description(a act.Action, cfg act.ActionConfig) string {
	if a.Group == "" || a.ContLocation == "" {
		return "--"
	}
	return fmt.Sprintf("%s contract for [%s] at %s",
		tradeLabel(a.ContTradeType), a.Group, act.DescribeLocation(a.ContLocation, cfg.Location))
}

func (c *ContTrade) NeedsConfigure(a act.Action) bool {
	return a.ContLocation == act.ConfigurableValue
}

func (c *ContTrade) IsValidConfig(a act.Action, cfg act.ActionConfig) bool {
	return a.ContLocation != act.ConfigurableValue || cfg.Location != ""
}

func (c *ContTrade) GenerateSteps(ctx context.Context, gc *act.GenerateContext) error {
	a := gc.Data
	materials, err := gc.MaterialGroup(ctx, a.Group)
	if err != nil {
		return err
	}
	if err := gc.Assert(materials != nil, "Invalid material group"); err != nil {
		return err
	}

	prices := gc.MaterialGroupPrices(a.Group)
	msg := fmt.Sprintf("Material group [%s] has no prices. Use a Paste group with 3 columns (ticker, amount, price).", a.Group)
	if err := gc.Assert(prices != nil, msg); err != nil {
		return err
	}

	location := act.ResolveLocation(a.ContLocation, gc.Config.Location, gc.MaterialGroupPlanet)
	if err := gc.Assert(location != "", "Invalid location"); err != nil {
		return err
	}

	tradeType := a.ContTradeType
	if tradeType == "" {
		tradeType = act.TradeBuying
	}
	step, err := steps.NewContTrade(steps.ContTradeData{
		PackageName:   gc.PackageName,
		Materials:     materials,
		Prices:        prices,
		TradeType:     tradeType,
		Location:      location,
		Currency:      a.CurrencyOrDefault(),
		DaysToFulfill: a.Days(),
	})
	if err != nil {
		return err
	}
	gc.EmitStep(step)
	return nil
}

func tradeLabel(tradeType string) string {
	if tradeType == act.TradeSelling {
		return "Sell"
	}
	return "Buy"
}
