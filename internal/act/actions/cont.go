// Package actions implements the contract actions of an action package:
// "CONT", "CONT Ship" and "CONT Trade".
package actions

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/act/steps"
	"github.com/xkilldash9x/prunact/internal/gamedata"
)

// Action type tags.
const (
	TypeCont      = "CONT"
	TypeContShip  = "CONT Ship"
	TypeContTrade = "CONT Trade"
)

// Register adds every contract action to b.
func Register(b *act.RegistryBuilder, catalog gamedata.MaterialCatalog) {
	b.AddAction(NewCont(catalog)).
		AddAction(NewContShip(catalog)).
		AddAction(NewContTrade())
}

// Cont is the plain shipping contract: origin and destination are used
// verbatim and nothing is configurable.
type Cont struct {
	catalog gamedata.MaterialCatalog
}

func NewCont(catalog gamedata.MaterialCatalog) *Cont { return &Cont{catalog: catalog} }

var _ act.ActionInfo = (*Cont)(nil)

func (c *Cont) Type() string { return TypeCont }

func (c *Cont) Description(a act.Action, _ act.ActionConfig) string {
	if a.Group == "" || a.ContOrigin == "" || a.ContDest == "" {
		return "--"
	}
	return fmt.Sprintf("Send contract for [%s] from %s to %s%s", a.Group, a.ContOrigin, a.ContDest, paymentSuffix(a))
}

func (c *Cont) NeedsConfigure(act.Action) bool { return false }

func (c *Cont) IsValidConfig(act.Action, act.ActionConfig) bool { return true }

func (c *Cont) GenerateSteps(ctx context.Context, gc *act.GenerateContext) error {
	a := gc.Data
	materials, err := gc.MaterialGroup(ctx, a.Group)
	if err != nil {
		return err
	}
	if err := gc.Assert(materials != nil, "Invalid material group"); err != nil {
		return err
	}
	return emitSend(gc, c.catalog, materials, a.ContOrigin, a.ContDest)
}

// emitSend builds the CONT_SEND step shared by CONT and CONT Ship.
func emitSend(gc *act.GenerateContext, catalog gamedata.MaterialCatalog, materials map[string]int, origin, dest string) error {
	a := gc.Data
	tonnage := act.TotalTonnage(materials, catalog)
	step, err := steps.NewContSend(steps.ContSendData{
		PackageName:   gc.PackageName,
		Materials:     materials,
		ContractNote:  a.ContractNote,
		Payment:       act.TotalPayment(tonnage, a.PaymentRate()),
		Currency:      a.CurrencyOrDefault(),
		DaysToFulfill: a.Days(),
		ContOrigin:    origin,
		ContDest:      dest,
	})
	if err != nil {
		return err
	}
	gc.EmitStep(step)
	return nil
}

func paymentSuffix(a act.Action) string {
	rate := a.PaymentRate()
	if rate <= 0 {
		return ""
	}
	return " @ " + strconv.FormatFloat(rate, 'f', -1, 64) + "/t"
}
