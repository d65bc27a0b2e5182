package steps_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/prunact/internal/act/selectors"
	"github.com/xkilldash9x/prunact/internal/dom"
	"github.com/xkilldash9x/prunact/internal/dom/htmldom"
	"github.com/xkilldash9x/prunact/internal/gamedata"
	"github.com/xkilldash9x/prunact/internal/gamedata/gamedatatest"
	"github.com/xkilldash9x/prunact/internal/tiles"
)

const listPage = `<html><body>
<input class="PanelSelector__input___p1">
<div id="tiles">
  <div class="TileFrame__frame___f1">
    <div class="TileFrame__cmd___c1">CONTD</div>
    <div class="TileFrame__anchor___a1">
      <table><tr><td class="ContractDrafts__naturalId___n1">OLD-1</td></tr></table>
      <button class="Button__btn___b1">Create New</button>
    </div>
  </div>
</div>
<div id="autosuggest-portal"></div>
</body></html>`

const draftFrame = `<div class="TileFrame__frame___f1">
  <div class="TileFrame__cmd___c1">CONTD %s</div>
  <div class="TileFrame__anchor___a1">
    <input name="name" value="">
    <textarea name="preamble"></textarea>
    <button class="Button__btn___b1" data-role="details">Save</button>
    <button class="Button__btn___b1">Select Template</button>
    <div class="templates"></div>
  </div>
</div>`

const templateForm = `<div class="TemplateSelection__templateTypeSelect___t1">
  <select><option value="SHIP">Ship commodity</option><option value="BUYING">Buy commodity</option><option value="SELLING">Sell commodity</option></select>
</div>
<select name="currency"><option value="AIC">AIC</option><option value="NCC">NCC</option><option value="CIS">CIS</option></select>
<div class="groups">%s</div>
<button class="Button__btn___b1">%s</button>
%s
%s
<input name="deadline" value="">
<button class="Button__btn___b1 Apply__btn___x">Apply Template</button>
<button class="Button__btn___b1" data-role="conditions">Save</button>`

const addressContainer = `<div class="AddressSelector__container___a1"><input class="AddressSelector__input___i1"></div>`

var locations = []string{"Montem (OT-580b)", "Antares Station (ANT)", "Benten Station (BEN)"}

// contractPage scripts the parts of the game client the contract steps
// drive: the draft list, the draft editor and its autosuggest inputs.
type contractPage struct {
	d      *htmldom.Driver
	drafts *gamedata.Snapshot
	tiles  *tiles.Manager
	trade  bool

	mu           sync.Mutex
	next         int
	picked       []string
	addresses    []string
	detailsSaved bool
	conditions   bool
}

func newContractPage(t *testing.T, trade bool) *contractPage {
	t.Helper()
	d, err := htmldom.ParseString(listPage)
	require.NoError(t, err)
	p := &contractPage{d: d, drafts: gamedatatest.Snapshot(), trade: trade}
	p.tiles = tiles.NewManager(d, selectors.Default().Tile, time.Second, nil)

	d.OnClick(`[class*="Button__btn"]`, p.onButton)
	d.OnEnter(`[class*="PanelSelector__input"]`, p.onCommand)
	d.OnInput(`[class*="MaterialSelector__input"]`, p.onMaterialTyped)
	d.OnClick(`[class*="MaterialSelector__suggestionEntry"]`, p.onMaterialPicked)
	d.OnInput(`[class*="AddressSelector__input"]`, p.onAddressTyped)
	d.OnClick(`[class*="AddressSelector__suggestionContent"]`, p.onAddressPicked)
	return p
}

// withoutCreateButton removes the "Create New" button of the draft list.
func (p *contractPage) withoutCreateButton(t *testing.T) *contractPage {
	t.Helper()
	for _, el := range p.d.Find(`[class*="Button__btn"]`) {
		require.NoError(t, p.d.Remove(el))
	}
	return p
}

func (p *contractPage) onButton(ctx context.Context, d *htmldom.Driver, target dom.Element) {
	text, _ := d.Text(ctx, target)
	role, _, _ := d.Attr(target, "data-role")
	switch {
	case strings.EqualFold(strings.TrimSpace(text), "create new"):
		p.mu.Lock()
		p.next++
		id := fmt.Sprintf("D-%d", p.next)
		p.mu.Unlock()
		p.drafts.AddDraft(gamedata.ContractDraft{NaturalID: id})
	case role == "details":
		p.mu.Lock()
		p.detailsSaved = true
		p.mu.Unlock()
	case role == "conditions":
		p.mu.Lock()
		p.conditions = true
		p.mu.Unlock()
	case strings.EqualFold(strings.TrimSpace(text), "select template"):
		_ = d.AppendTo(".templates", p.template())
	case strings.HasPrefix(strings.ToLower(strings.TrimSpace(text)), "add "):
		_ = d.AppendTo(".groups", p.group())
	case strings.EqualFold(strings.TrimSpace(text), "apply template"):
		// The request is in flight for a moment.
		_ = d.AddClass(target, "Button__disabled___d1")
		go func() {
			time.Sleep(20 * time.Millisecond)
			_ = d.RemoveClass(target, "Button__disabled")
		}()
	}
}

func (p *contractPage) template() string {
	addBtn, price, addresses := "Add Shipment", `<input name="price" value="">`, addressContainer+addressContainer
	if p.trade {
		addBtn, price, addresses = "Add Commodity", "", addressContainer
	}
	return fmt.Sprintf(templateForm, p.group(), addBtn, price, addresses)
}

func (p *contractPage) group() string {
	price := ""
	if p.trade {
		price = `<input name="price" value="">`
	}
	return `<div class="TemplateSelection__group___g1">
  <input inputmode="numeric" value="">
  <div class="MaterialSelector__container___m1">
    <input class="MaterialSelector__input___i1">
    <div class="MaterialSelector__suggestionsContainer___s1"></div>
  </div>` + price + `
</div>`
}

func (p *contractPage) onCommand(ctx context.Context, d *htmldom.Driver, target dom.Element) {
	cmd, _ := d.Value(target)
	fields := strings.Fields(cmd)
	if len(fields) == 2 && strings.EqualFold(fields[0], "CONTD") {
		_ = d.AppendTo("#tiles", fmt.Sprintf(draftFrame, fields[1]))
	}
}

// onMaterialTyped offers a decoy whose label starts with the typed text
// before the exact ticker. Tickers starting with Z match nothing.
func (p *contractPage) onMaterialTyped(ctx context.Context, d *htmldom.Driver, target dom.Element) {
	typed, _ := d.Value(target)
	containers := d.Find(`[class*="MaterialSelector__suggestionsContainer"]`)
	if len(containers) == 0 {
		return
	}
	entry := `<li class="MaterialSelector__suggestionEntry___e1"><span class="ColoredIcon__label___l1">%s</span></li>`
	list := `<ul class="MaterialSelector__suggestionsList___u1">` + fmt.Sprintf(entry, typed+"C")
	if !strings.HasPrefix(typed, "Z") {
		list += fmt.Sprintf(entry, typed)
	}
	_ = d.Append(containers[len(containers)-1], list+"</ul>")
}

func (p *contractPage) onMaterialPicked(ctx context.Context, d *htmldom.Driver, target dom.Element) {
	text, _ := d.Text(ctx, target)
	p.mu.Lock()
	p.picked = append(p.picked, strings.TrimSpace(text))
	p.mu.Unlock()
	for _, l := range d.Find(`[class*="MaterialSelector__suggestionsList"]`) {
		_ = d.Remove(l)
	}
}

func (p *contractPage) onAddressTyped(ctx context.Context, d *htmldom.Driver, target dom.Element) {
	var b strings.Builder
	for _, loc := range locations {
		fmt.Fprintf(&b, `<div class="AddressSelector__suggestionContent___s1">%s</div>`, loc)
	}
	_ = d.AppendTo("#autosuggest-portal", b.String())
}

func (p *contractPage) onAddressPicked(ctx context.Context, d *htmldom.Driver, target dom.Element) {
	text, _ := d.Text(ctx, target)
	p.mu.Lock()
	p.addresses = append(p.addresses, text)
	p.mu.Unlock()
	for _, s := range d.Find(`[class*="AddressSelector__suggestionContent"]`) {
		_ = d.Remove(s)
	}
}

// value returns the value of the last element matching selector.
func (p *contractPage) value(t *testing.T, selector string) string {
	t.Helper()
	els := p.d.Find(selector)
	require.NotEmpty(t, els, "no element matches %s", selector)
	v, err := p.d.Value(els[len(els)-1])
	require.NoError(t, err)
	return v
}

func (p *contractPage) values(t *testing.T, selector string) []string {
	t.Helper()
	var out []string
	for _, el := range p.d.Find(selector) {
		v, err := p.d.Value(el)
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func (p *contractPage) snapshot() (picked, addresses []string, detailsSaved, conditions bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.picked...), append([]string(nil), p.addresses...), p.detailsSaved, p.conditions
}
