package gamedata

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshot file names inside a snapshot directory.
const (
	MaterialsFile      = "materials.json"
	ExchangesFile      = "exchanges.json"
	WarehousesFile     = "warehouses.json"
	StoragesFile       = "storages.json"
	SitesFile          = "sites.json"
	WorkforcesFile     = "workforces.json"
	ProductionFile     = "production.json"
	ContractDraftsFile = "contract_drafts.json"
)

// Snapshot is an in-memory copy of every store. It satisfies MaterialCatalog,
// InventorySource, SiteSource and ContractDraftSource.
type Snapshot struct {
	materials  map[string]Material
	exchanges  map[string]Exchange
	warehouses map[string]Warehouse
	storages   map[string]Storage
	sites      []Site
	workforces map[string]Workforce
	production map[string][]ProductionLine

	mu     sync.RWMutex
	drafts []ContractDraft
}

// SnapshotData is the raw content of a snapshot, used to build one in code.
type SnapshotData struct {
	Materials      []Material
	Exchanges      []Exchange
	Warehouses     []Warehouse
	Storages       []Storage
	Sites          []Site
	Workforces     []Workforce
	Production     []ProductionLine
	ContractDrafts []ContractDraft
}

// NewSnapshot indexes raw store content.
func NewSnapshot(data SnapshotData) *Snapshot {
	s := &Snapshot{
		materials:  make(map[string]Material, len(data.Materials)),
		exchanges:  make(map[string]Exchange, len(data.Exchanges)),
		warehouses: make(map[string]Warehouse, len(data.Warehouses)),
		storages:   make(map[string]Storage, len(data.Storages)),
		sites:      append([]Site(nil), data.Sites...),
		workforces: make(map[string]Workforce, len(data.Workforces)),
		production: make(map[string][]ProductionLine),
		drafts:     append([]ContractDraft(nil), data.ContractDrafts...),
	}
	for _, m := range data.Materials {
		s.materials[strings.ToUpper(m.Ticker)] = m
	}
	for _, e := range data.Exchanges {
		s.exchanges[strings.ToUpper(e.Code)] = e
	}
	for _, w := range data.Warehouses {
		s.warehouses[w.EntityNaturalID] = w
	}
	for _, st := range data.Storages {
		s.storages[st.ID] = st
	}
	for _, wf := range data.Workforces {
		s.workforces[wf.SiteID] = wf
	}
	for _, pl := range data.Production {
		s.production[pl.SiteID] = append(s.production[pl.SiteID], pl)
	}
	return s
}

// Load reads a snapshot directory. Every file is optional; a missing file
// leaves its store empty. Files are decoded concurrently.
func Load(ctx context.Context, dir string, logger *zap.Logger) (*Snapshot, error) {
	var data SnapshotData
	g, _ := errgroup.WithContext(ctx)

	load := func(name string, into interface{}) {
		g.Go(func() error {
			path := filepath.Join(dir, name)
			raw, err := os.ReadFile(path)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					logger.Debug("Snapshot file not present, store left empty.", zap.String("file", path))
					return nil
				}
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			if err := json.Unmarshal(raw, into); err != nil {
				return fmt.Errorf("failed to decode %s: %w", path, err)
			}
			return nil
		})
	}

	load(MaterialsFile, &data.Materials)
	load(ExchangesFile, &data.Exchanges)
	load(WarehousesFile, &data.Warehouses)
	load(StoragesFile, &data.Storages)
	load(SitesFile, &data.Sites)
	load(WorkforcesFile, &data.Workforces)
	load(ProductionFile, &data.Production)
	load(ContractDraftsFile, &data.ContractDrafts)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Info("Game data snapshot loaded.",
		zap.String("dir", dir),
		zap.Int("materials", len(data.Materials)),
		zap.Int("storages", len(data.Storages)),
		zap.Int("sites", len(data.Sites)),
	)
	return NewSnapshot(data), nil
}

// ByTicker implements MaterialCatalog.
func (s *Snapshot) ByTicker(ticker string) (Material, bool) {
	m, ok := s.materials[strings.ToUpper(strings.TrimSpace(ticker))]
	return m, ok
}

// NaturalIDFromCode implements InventorySource. Unknown codes yield "".
func (s *Snapshot) NaturalIDFromCode(code string) string {
	return s.exchanges[strings.ToUpper(code)].NaturalID
}

// WarehouseByEntityNaturalID implements InventorySource.
func (s *Snapshot) WarehouseByEntityNaturalID(naturalID string) (Warehouse, bool) {
	if naturalID == "" {
		return Warehouse{}, false
	}
	w, ok := s.warehouses[naturalID]
	return w, ok
}

// StorageByID implements InventorySource and SiteSource.
func (s *Snapshot) StorageByID(id string) (Storage, bool) {
	if id == "" {
		return Storage{}, false
	}
	st, ok := s.storages[id]
	return st, ok
}

// Sites implements SiteSource.
func (s *Snapshot) Sites() []Site { return s.sites }

// Workforce implements SiteSource.
func (s *Snapshot) Workforce(siteID string) (Workforce, bool) {
	wf, ok := s.workforces[siteID]
	return wf, ok
}

// ProductionLines implements SiteSource.
func (s *Snapshot) ProductionLines(siteID string) []ProductionLine {
	return s.production[siteID]
}

// All implements ContractDraftSource.
func (s *Snapshot) All(context.Context) ([]ContractDraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ContractDraft(nil), s.drafts...), nil
}

// AddDraft appends a draft to the registry.
func (s *Snapshot) AddDraft(d ContractDraft) {
	s.mu.Lock()
	s.drafts = append(s.drafts, d)
	s.mu.Unlock()
}
