package runner

import (
	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/gamedata"
)

// StateExchanges are the commodity exchanges whose warehouses make up the
// run-wide state.
var StateExchanges = []string{"AI1", "CI1", "CI2", "IC1", "NC1", "NC2"}

// GenerateState snapshots the warehouse inventory at every exchange of
// StateExchanges. A broken link (no warehouse, no storage) yields an empty
// inventory for that exchange. A nil source yields empty inventories.
func GenerateState(src gamedata.InventorySource) act.State {
	war := make(map[string]map[string]int, len(StateExchanges))
	for _, code := range StateExchanges {
		inv := make(map[string]int)
		war[code] = inv
		if src == nil {
			continue
		}
		warehouse, ok := src.WarehouseByEntityNaturalID(src.NaturalIDFromCode(code))
		if !ok {
			continue
		}
		storage, ok := src.StorageByID(warehouse.StoreID)
		if !ok {
			continue
		}
		for _, item := range storage.Items {
			if item.Ticker == "" || item.Amount == 0 {
				continue
			}
			inv[item.Ticker] = item.Amount
		}
	}
	return act.State{Warehouses: war}
}
