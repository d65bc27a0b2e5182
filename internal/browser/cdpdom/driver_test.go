package cdpdom_test

import (
	"context"
	"net/url"
	"os/exec"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/prunact/internal/browser/cdpdom"
	"github.com/xkilldash9x/prunact/internal/config"
	"github.com/xkilldash9x/prunact/internal/dom"
	"github.com/xkilldash9x/prunact/internal/gamedata"
)

const fixturePage = `<!DOCTYPE html><html><body>
<div id="tiles">
  <div class="ContractDrafts__naturalId___x1">D-7</div>
  <div class="ContractDrafts__naturalId___x1">D-8</div>
  <input id="amount" class="Input__input___a1">
  <textarea id="notes"></textarea>
  <select id="currency"><option value="AIC">AIC</option><option value="NCC">NCC</option></select>
  <button id="go" class="Button__btn___b2 Button__primary___c3">Go</button>
</div>
<script>
  window.events = [];
  document.getElementById("amount").addEventListener("input", e => events.push("input:" + e.target.value));
  document.getElementById("currency").addEventListener("change", e => events.push("change:" + e.target.value));
  document.getElementById("go").addEventListener("click", () => events.push("click"));
</script>
</body></html>`

// launch starts a headless Chrome on the fixture page, skipping the test when
// no browser is installed.
func launch(t *testing.T) (*cdpdom.Session, *cdpdom.Driver) {
	t.Helper()
	if testing.Short() {
		t.Skip("browser test skipped in short mode")
	}
	var execPath string
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if p, err := exec.LookPath(name); err == nil {
			execPath = p
			break
		}
	}
	if execPath == "" {
		t.Skip("no Chrome or Chromium installed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)
	s, err := cdpdom.Launch(ctx, config.BrowserConfig{
		Headless:        true,
		ExecPath:        execPath,
		GameURL:         "data:text/html," + url.PathEscape(fixturePage),
		PageLoadTimeout: 30 * time.Second,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, s.Driver(0, 1)
}

func TestDriver_AgainstChrome(t *testing.T) {
	s, d := launch(t)
	ctx := context.Background()

	root, err := d.Root(ctx)
	require.NoError(t, err)

	cells, err := d.QueryAll(ctx, root, `[class*="ContractDrafts__naturalId"]`)
	require.NoError(t, err)
	require.Len(t, cells, 2)
	text, err := d.Text(ctx, cells[1])
	require.NoError(t, err)
	assert.Equal(t, "D-8", text)

	none, err := d.QueryAll(ctx, root, ".missing")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, found, err := d.ByID(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, found)

	amount, found, err := d.ByID(ctx, "amount")
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, d.SetValue(ctx, amount, "250"))

	notes, _, err := d.ByID(ctx, "notes")
	require.NoError(t, err)
	require.NoError(t, d.SetTextAreaValue(ctx, notes, "Montem Supply"))
	notesText, err := d.Text(ctx, notes)
	require.NoError(t, err)
	assert.Empty(t, notesText, "value does not change text content")

	currency, _, err := d.ByID(ctx, "currency")
	require.NoError(t, err)
	values, err := d.OptionValues(ctx, currency)
	require.NoError(t, err)
	assert.Equal(t, []string{"AIC", "NCC"}, values)
	require.NoError(t, d.SelectIndex(ctx, currency, 1))
	assert.Error(t, d.SelectIndex(ctx, currency, 7))

	button, _, err := d.ByID(ctx, "go")
	require.NoError(t, err)
	primary, err := d.MatchesClass(ctx, button, "Button__primary")
	require.NoError(t, err)
	assert.True(t, primary)
	disabled, err := d.MatchesClass(ctx, button, "Button__disabled")
	require.NoError(t, err)
	assert.False(t, disabled)
	require.NoError(t, d.Click(ctx, button))
	require.NoError(t, d.SetDisplay(ctx, button, "none"))

	var events []string
	require.NoError(t, chromedp.Run(s.Context(), chromedp.Evaluate(`window.events`, &events)))
	assert.Equal(t, []string{"input:250", "change:NCC", "click"}, events)

	drafts := &gamedata.PageDraftSource{Driver: d, IDSelector: `[class*="ContractDrafts__naturalId"]`}
	all, err := drafts.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []gamedata.ContractDraft{{NaturalID: "D-7"}, {NaturalID: "D-8"}}, all)

	require.NoError(t, d.Release(ctx))
	_, err = d.Text(ctx, cells[0])
	assert.ErrorIs(t, err, dom.ErrStaleElement)
}
