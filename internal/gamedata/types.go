// Package gamedata holds read-only copies of the game's data stores: the
// material catalog, exchanges, warehouses, storages, sites and the contract
// draft registry.
package gamedata

import (
	"context"
	"strings"
)

// Material is a catalog entry. Weight is in tonnes per unit.
type Material struct {
	Ticker   string  `json:"ticker"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Weight   float64 `json:"weight"`
	Volume   float64 `json:"volume"`
}

// MaterialCatalog resolves tickers. Lookups are case-insensitive and return
// the catalog's canonical spelling in Material.Ticker.
type MaterialCatalog interface {
	ByTicker(ticker string) (Material, bool)
}

// Exchange maps a commodity exchange code to the natural id of the entity it
// is located at.
type Exchange struct {
	Code      string `json:"code"`
	NaturalID string `json:"naturalId"`
	Name      string `json:"name"`
}

// Warehouse links an entity to the storage holding the user's goods there.
type Warehouse struct {
	WarehouseID     string `json:"warehouseId"`
	StoreID         string `json:"storeId"`
	EntityNaturalID string `json:"entityNaturalId"`
}

// StoreItem is one stack of a storage.
type StoreItem struct {
	Ticker string `json:"ticker"`
	Amount int    `json:"amount"`
}

// Storage is an inventory.
type Storage struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Items []StoreItem `json:"items"`
}

// Quantity returns the on-hand amount of ticker.
func (s Storage) Quantity(ticker string) int {
	total := 0
	for _, it := range s.Items {
		if strings.EqualFold(it.Ticker, ticker) {
			total += it.Amount
		}
	}
	return total
}

// Site is a planetary base.
type Site struct {
	SiteID          string `json:"siteId"`
	PlanetNaturalID string `json:"planetNaturalId"`
	PlanetName      string `json:"planetName"`
	StoreID         string `json:"storeId"`
}

// Flow is a per-day quantity of a material.
type Flow struct {
	Ticker string  `json:"ticker"`
	PerDay float64 `json:"perDay"`
}

// Workforce lists the daily consumables of a site's workers.
type Workforce struct {
	SiteID string `json:"siteId"`
	Needs  []Flow `json:"needs"`
}

// ProductionLine lists the daily inputs and outputs of one production line.
type ProductionLine struct {
	SiteID  string `json:"siteId"`
	Inputs  []Flow `json:"inputs"`
	Outputs []Flow `json:"outputs"`
}

// ContractDraft is an entry of the contract draft registry.
type ContractDraft struct {
	NaturalID string `json:"naturalId"`
	Name      string `json:"name,omitempty"`
}

// ContractDraftSource lists the current contract drafts. Steps diff two
// listings to discover the draft they just created.
type ContractDraftSource interface {
	All(ctx context.Context) ([]ContractDraft, error)
}

// InventorySource resolves exchange codes to warehouse inventories.
type InventorySource interface {
	NaturalIDFromCode(code string) string
	WarehouseByEntityNaturalID(naturalID string) (Warehouse, bool)
	StorageByID(id string) (Storage, bool)
}

// SiteSource exposes planetary bases and their material flows.
type SiteSource interface {
	Sites() []Site
	Workforce(siteID string) (Workforce, bool)
	ProductionLines(siteID string) []ProductionLine
	StorageByID(id string) (Storage, bool)
}
