package actions

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/gamedata"
)

// ContShip is a shipping contract whose origin and destination may be
// configurable or point at the planet of a material group.
type ContShip struct {
	catalog gamedata.MaterialCatalog
}

func NewContShip(catalog gamedata.MaterialCatalog) *ContShip { return &ContShip{catalog: catalog} }

var _ act.ActionInfo = (*ContShip)(nil)

func (c *ContShip) Type() string { return TypeContShip }

func (c *ContShip) Description(a act.Action, cfg act.ActionConfig) string {
	if a.Group == "" || a.ContOrigin == "" || a.ContDest == "" {
		return "--"
	}
	origin := act.DescribeLocation(a.ContOrigin, cfg.Origin)
	dest := act.DescribeLocation(a.ContDest, cfg.Destination)
	return fmt.Sprintf("Send contract for [%s] from %s to %s%s", a.Group, origin, dest, paymentSuffix(a))
}

func (c *ContShip) NeedsConfigure(a act.Action) bool {
	return a.ContOrigin == act.ConfigurableValue || a.ContDest == act.ConfigurableValue
}

func (c *ContShip) IsValidConfig(a act.Action, cfg act.ActionConfig) bool {
	return (a.ContOrigin != act.ConfigurableValue || cfg.Origin != "") &&
		(a.ContDest != act.ConfigurableValue || cfg.Destination != "")
}

func (c *ContShip) GenerateSteps(ctx context.Context, gc *act.GenerateContext) error {
	a := gc.Data
	materials, err := gc.MaterialGroup(ctx, a.Group)
	if err != nil {
		return err
	}
	if err := gc.Assert(materials != nil, "Invalid material group"); err != nil {
		return err
	}

	origin := act.ResolveLocation(a.ContOrigin, gc.Config.Origin, gc.MaterialGroupPlanet)
	if err := gc.Assert(origin != "", "Invalid origin"); err != nil {
		return err
	}
	dest := act.ResolveLocation(a.ContDest, gc.Config.Destination, gc.MaterialGroupPlanet)
	if err := gc.Assert(dest != "", "Invalid destination"); err != nil {
		return err
	}

	return emitSend(gc, c.catalog, materials, origin, dest)
}
