// Package burn computes how long each planetary base can keep consuming its
// materials and exports the result as tab-separated text for spreadsheets.
package burn

import (
	"math"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/prunact/internal/gamedata"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Parameter keywords.
const (
	ParamOverall = "OVERALL"
	ParamNot     = "NOT"
)

// OverallPlanet labels aggregate rows.
const OverallPlanet = "Overall"

const (
	baseTitle = "BURN DATA EXPORT"
	header    = "Planet\tTicker\tInventory\tBurn\tDays"
)

// Category buckets a row by how long its inventory lasts.
type Category string

const (
	CategoryRed    Category = "red"
	CategoryYellow Category = "yellow"
	CategoryGreen  Category = "green"
	// CategoryInf is a material that is not being used up.
	CategoryInf Category = "inf"
)

// Options selects sites, flows and categories.
type Options struct {
	// Params are planet identifiers (natural id or name), OVERALL and NOT.
	// Identifiers after NOT are excluded. No identifier means every site.
	Params []string

	Red, Yellow, Green, Inf bool
	Workforce, Production   bool

	RedDays, YellowDays float64
}

// DefaultOptions shows every category and counts every flow.
func DefaultOptions() Options {
	return Options{
		Red: true, Yellow: true, Green: true, Inf: true,
		Workforce: true, Production: true,
		RedDays: 3, YellowDays: 6,
	}
}

// Row is the burn of one material at one planet. Burn is the net daily
// change, negative when the material is being used up.
type Row struct {
	Planet    string   `json:"planet"`
	Ticker    string   `json:"ticker"`
	Inventory int      `json:"inventory"`
	Burn      float64  `json:"burn"`
	Days      float64  `json:"days"`
	Category  Category `json:"category"`
}

// MarshalJSON writes an infinite Days as null.
func (r Row) MarshalJSON() ([]byte, error) {
	type plain Row
	var d *float64
	if !math.IsInf(r.Days, 0) {
		d = &r.Days
	}
	return json.Marshal(struct {
		plain
		Days *float64 `json:"days"`
	}{plain(r), d})
}

// Export returns the title and the TSV text for opts.
func Export(src gamedata.SiteSource, opts Options) (string, string) {
	return Title(src, opts.Params), TSV(Compute(src, opts))
}

// Title names the export after the planet when exactly one known planet was
// requested.
func Title(src gamedata.SiteSource, params []string) string {
	if len(params) == 1 {
		if site, ok := findSite(src.Sites(), params[0]); ok {
			return baseTitle + " - " + planetName(site)
		}
	}
	return baseTitle
}

// Compute builds the rows for opts, ordered by planet and ticker.
func Compute(src gamedata.SiteSource, opts Options) []Row {
	sel := parseParams(opts.Params)
	sites := selectSites(src.Sites(), sel)

	var rows []Row
	overall := map[string]*Row{}
	for _, site := range sites {
		siteRows := computeSite(src, site, opts)
		if !sel.overall {
			rows = append(rows, siteRows...)
			continue
		}
		for _, r := range siteRows {
			agg, ok := overall[r.Ticker]
			if !ok {
				agg = &Row{Planet: OverallPlanet, Ticker: r.Ticker}
				overall[r.Ticker] = agg
			}
			agg.Inventory += r.Inventory
			agg.Burn += r.Burn
		}
	}
	if sel.overall {
		for _, agg := range overall {
			agg.Days = days(agg.Inventory, agg.Burn)
			rows = append(rows, *agg)
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Ticker < rows[j].Ticker })
	}

	out := rows[:0]
	for _, r := range rows {
		r.Category = categorize(r, opts)
		if shown(r.Category, opts) {
			out = append(out, r)
		}
	}
	return out
}

// TSV renders rows with a header line.
func TSV(rows []Row) string {
	var b strings.Builder
	b.WriteString(header)
	for _, r := range rows {
		b.WriteByte('\n')
		b.WriteString(strings.Join([]string{
			r.Planet,
			r.Ticker,
			strconv.Itoa(r.Inventory),
			strconv.FormatFloat(r.Burn, 'f', 2, 64),
			formatDays(r.Days),
		}, "\t"))
	}
	return b.String()
}

func formatDays(d float64) string {
	if math.IsInf(d, 1) {
		return "∞"
	}
	return strconv.FormatFloat(d, 'f', 1, 64)
}

type selection struct {
	include []string
	exclude []string
	overall bool
}

func parseParams(params []string) selection {
	var sel selection
	excluding := false
	for _, p := range params {
		switch strings.ToUpper(strings.TrimSpace(p)) {
		case "":
		case ParamOverall:
			sel.overall = true
		case ParamNot:
			excluding = true
		default:
			if excluding {
				sel.exclude = append(sel.exclude, p)
			} else {
				sel.include = append(sel.include, p)
			}
		}
	}
	return sel
}

func selectSites(all []gamedata.Site, sel selection) []gamedata.Site {
	var out []gamedata.Site
	for _, site := range all {
		if len(sel.include) > 0 && !matchesAny(site, sel.include) {
			continue
		}
		if matchesAny(site, sel.exclude) {
			continue
		}
		out = append(out, site)
	}
	sort.SliceStable(out, func(i, j int) bool { return planetName(out[i]) < planetName(out[j]) })
	return out
}

func matchesAny(site gamedata.Site, ids []string) bool {
	for _, id := range ids {
		if matches(site, id) {
			return true
		}
	}
	return false
}

func matches(site gamedata.Site, id string) bool {
	id = strings.TrimSpace(id)
	return strings.EqualFold(site.PlanetNaturalID, id) || strings.EqualFold(site.PlanetName, id)
}

func findSite(sites []gamedata.Site, id string) (gamedata.Site, bool) {
	for _, s := range sites {
		if matches(s, id) {
			return s, true
		}
	}
	return gamedata.Site{}, false
}

func planetName(site gamedata.Site) string {
	if site.PlanetName != "" {
		return site.PlanetName
	}
	return site.PlanetNaturalID
}

func computeSite(src gamedata.SiteSource, site gamedata.Site, opts Options) []Row {
	burn := map[string]float64{}
	if opts.Workforce {
		if wf, ok := src.Workforce(site.SiteID); ok {
			for _, f := range wf.Needs {
				burn[f.Ticker] -= f.PerDay
			}
		}
	}
	if opts.Production {
		for _, line := range src.ProductionLines(site.SiteID) {
			for _, f := range line.Inputs {
				burn[f.Ticker] -= f.PerDay
			}
			for _, f := range line.Outputs {
				burn[f.Ticker] += f.PerDay
			}
		}
	}

	storage, _ := src.StorageByID(site.StoreID)
	tickers := make([]string, 0, len(burn))
	for t := range burn {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	rows := make([]Row, 0, len(tickers))
	for _, t := range tickers {
		inv := storage.Quantity(t)
		rows = append(rows, Row{
			Planet:    planetName(site),
			Ticker:    t,
			Inventory: inv,
			Burn:      burn[t],
			Days:      days(inv, burn[t]),
		})
	}
	return rows
}

// days is how long inventory lasts at burn; +Inf when nothing is used up.
func days(inventory int, burn float64) float64 {
	if burn >= 0 {
		return math.Inf(1)
	}
	return float64(inventory) / -burn
}

func categorize(r Row, opts Options) Category {
	switch {
	case math.IsInf(r.Days, 1):
		return CategoryInf
	case r.Days < opts.RedDays:
		return CategoryRed
	case r.Days < opts.YellowDays:
		return CategoryYellow
	default:
		return CategoryGreen
	}
}

func shown(c Category, opts Options) bool {
	switch c {
	case CategoryRed:
		return opts.Red
	case CategoryYellow:
		return opts.Yellow
	case CategoryGreen:
		return opts.Green
	default:
		return opts.Inf
	}
}
