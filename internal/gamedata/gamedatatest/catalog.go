// Package gamedatatest provides a small, fixed game data snapshot for tests.
package gamedatatest

import "github.com/xkilldash9x/prunact/internal/gamedata"

// Materials is the catalog used throughout the tests.
var Materials = []gamedata.Material{
	{Ticker: "RAT", Name: "rations", Category: "consumables (basic)", Weight: 0.21, Volume: 0.1},
	{Ticker: "DW", Name: "drinkingWater", Category: "consumables (basic)", Weight: 0.1, Volume: 0.1},
	{Ticker: "OVE", Name: "basicOveralls", Category: "consumables (basic)", Weight: 0.02, Volume: 0.025},
	{Ticker: "PWO", Name: "padsAndWorkOveralls", Category: "consumables (basic)", Weight: 0.05, Volume: 0.05},
	{Ticker: "COF", Name: "caffeinatedInfusion", Category: "consumables (luxury)", Weight: 0.1, Volume: 0.1},
	{Ticker: "H2O", Name: "water", Category: "liquids", Weight: 0.2, Volume: 0.2},
	{Ticker: "FE", Name: "iron", Category: "metals", Weight: 7.874, Volume: 1},
	{Ticker: "BSE", Name: "basicStructuralElements", Category: "construction prefabs", Weight: 0.3, Volume: 0.5},
}

// Snapshot returns a snapshot with the test catalog, one warehouse at the
// NC1 exchange and one base on Montem.
func Snapshot() *gamedata.Snapshot {
	return gamedata.NewSnapshot(gamedata.SnapshotData{
		Materials: Materials,
		Exchanges: []gamedata.Exchange{
			{Code: "NC1", NaturalID: "ANT", Name: "Antares Station Commodity Exchange"},
			{Code: "CI1", NaturalID: "BEN", Name: "Benten Station Commodity Exchange"},
		},
		Warehouses: []gamedata.Warehouse{
			{WarehouseID: "wh-ant", StoreID: "store-ant", EntityNaturalID: "ANT"},
		},
		Storages: []gamedata.Storage{
			{ID: "store-ant", Name: "Antares Warehouse", Items: []gamedata.StoreItem{
				{Ticker: "RAT", Amount: 120},
				{Ticker: "DW", Amount: 80},
			}},
			{ID: "store-montem", Name: "Montem Base", Items: []gamedata.StoreItem{
				{Ticker: "RAT", Amount: 10},
				{Ticker: "DW", Amount: 50},
				{Ticker: "H2O", Amount: 5},
			}},
		},
		Sites: []gamedata.Site{
			{SiteID: "site-montem", PlanetNaturalID: "OT-580b", PlanetName: "Montem", StoreID: "store-montem"},
		},
		Workforces: []gamedata.Workforce{
			{SiteID: "site-montem", Needs: []gamedata.Flow{
				{Ticker: "RAT", PerDay: 4},
				{Ticker: "DW", PerDay: 5},
			}},
		},
		Production: []gamedata.ProductionLine{
			{SiteID: "site-montem", Inputs: []gamedata.Flow{{Ticker: "H2O", PerDay: 10}}, Outputs: []gamedata.Flow{{Ticker: "DW", PerDay: 10}}},
		},
	})
}
