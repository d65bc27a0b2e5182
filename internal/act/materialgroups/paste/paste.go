// Package paste implements the "Paste" material group: a bill typed or pasted
// by the user as lines of "TICKER,amount[,price]" (comma or tab separated).
package paste

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/gamedata"
)

// Type is the registry key of the provider.
const Type = "Paste"

// ParseResult is a parsed bill. Prices is nil unless every line had a price.
type ParseResult struct {
	Materials map[string]int
	Prices    map[string]float64
}

// ParseMaterials parses pasted text against the material catalog. Any invalid
// line invalidates the whole input and yields nil:
//   - a line that does not split into 2 or 3 fields,
//   - an unknown ticker,
//   - an amount that is not a positive integer,
//   - a price that is not positive, or has more than 3 fractional or more
//     than 3 significant digits,
//   - a mix of lines with and without a price.
//
// Amounts of repeated tickers are summed under the catalog's spelling.
func ParseMaterials(input string, catalog gamedata.MaterialCatalog) *ParseResult {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(input, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	result := &ParseResult{Materials: make(map[string]int)}
	for i, line := range lines {
		parts := splitFields(line)
		for j := range parts {
			parts[j] = strings.TrimSpace(parts[j])
		}
		if len(parts) < 2 || len(parts) > 3 {
			return nil
		}

		material, ok := catalog.ByTicker(strings.ToUpper(parts[0]))
		if !ok {
			return nil
		}
		amount, ok := parseAmount(parts[1])
		if !ok {
			return nil
		}
		result.Materials[material.Ticker] += amount

		hasPrice := len(parts) == 3
		if i > 0 && hasPrice != (result.Prices != nil) {
			return nil
		}
		if !hasPrice {
			continue
		}
		price, ok := parseNumber(parts[2])
		if !ok || !isValidPrice(price) {
			return nil
		}
		if result.Prices == nil {
			result.Prices = make(map[string]float64)
		}
		result.Prices[material.Ticker] = price
	}
	return result
}

// splitFields splits on commas and tabs, keeping empty fields.
func splitFields(line string) []string {
	var parts []string
	start := 0
	for i, r := range line {
		if r == ',' || r == '\t' {
			parts = append(parts, line[start:i])
			start = i + 1
		}
	}
	return append(parts, line[start:])
}

// parseNumber accepts decimal notation only; ParseFloat would also take hex
// floats such as "0x1p3".
func parseNumber(s string) (float64, bool) {
	if strings.ContainsAny(s, "xXpP") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseAmount(s string) (int, bool) {
	v, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	// 2^63 and above do not fit an int.
	if v != math.Trunc(v) || v <= 0 || v >= math.Exp2(63) {
		return 0, false
	}
	return int(v), true
}

func isValidPrice(n float64) bool {
	if n <= 0 || math.IsInf(n, 0) || math.IsNaN(n) {
		return false
	}
	if math.Round(n*1000) != n*1000 {
		return false
	}
	return hasAtMost3SignificantDigits(n)
}

// hasAtMost3SignificantDigits rounds n to 3 significant digits and checks that
// nothing was lost.
func hasAtMost3SignificantDigits(n float64) bool {
	if n == 0 {
		return true
	}
	magnitude := math.Floor(math.Log10(math.Abs(n)))
	factor := math.Pow(10, magnitude-2)
	return math.Abs(n-math.Round(n/factor)*factor) < 1e-9
}

// Format writes a result back as pasted text, one line per ticker in ticker
// order. ParseMaterials(Format(r)) reproduces r.
func Format(r *ParseResult) string {
	tickers := make([]string, 0, len(r.Materials))
	for t := range r.Materials {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	var b strings.Builder
	for _, t := range tickers {
		b.WriteString(t)
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(r.Materials[t]))
		if r.Prices != nil {
			b.WriteByte(',')
			b.WriteString(strconv.FormatFloat(r.Prices[t], 'f', -1, 64))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Provider is the "Paste" material group.
type Provider struct {
	catalog gamedata.MaterialCatalog
}

// New creates the provider backed by catalog.
func New(catalog gamedata.MaterialCatalog) *Provider {
	return &Provider{catalog: catalog}
}

var _ act.MaterialGroupInfo = (*Provider)(nil)

func (p *Provider) Type() string { return Type }

func (p *Provider) Description(act.MaterialGroup) string {
	return "Paste materials at execution time"
}

// NeedsConfigure is true unless the text was pasted into the group itself.
func (p *Provider) NeedsConfigure(group act.MaterialGroup) bool {
	return strings.TrimSpace(group.Materials) == ""
}

func (p *Provider) IsValidConfig(group act.MaterialGroup, cfg act.MaterialGroupConfig) bool {
	return ParseMaterials(text(group, cfg), p.catalog) != nil
}

func (p *Provider) GenerateMaterialBill(_ context.Context, bc *act.BillContext) (map[string]int, error) {
	result := ParseMaterials(text(bc.Data, bc.Config), p.catalog)
	if result == nil {
		bc.Log.Error("Invalid or missing pasted materials.")
		return nil, nil
	}
	if result.Prices != nil {
		bc.SetPrices(result.Prices)
	}
	return result.Materials, nil
}

// text prefers the configure-time paste over text stored in the group.
func text(group act.MaterialGroup, cfg act.MaterialGroupConfig) string {
	if strings.TrimSpace(cfg.Materials) != "" {
		return cfg.Materials
	}
	return group.Materials
}
