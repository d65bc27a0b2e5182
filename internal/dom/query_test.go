package dom_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/prunact/internal/dom"
	"github.com/xkilldash9x/prunact/internal/dom/htmldom"
)

const page = `<html><body>
<button class="Button__btn___a">  Save </button>
<button class="Button__btn___a">Create New draft</button>
<button class="Button__btn___a">save</button>
<select id="tpl"><option value="SHIP">Ship</option><option value="BUYING">Buy</option></select>
<select id="cur"><option value="NCC">NCC</option><option value="CIS">CIS</option></select>
<div id="later"></div>
</body></html>`

func TestQueryHelpers(t *testing.T) {
	ctx := context.Background()
	d, err := htmldom.ParseString(page)
	require.NoError(t, err)
	root, err := d.Root(ctx)
	require.NoError(t, err)

	const btn = `[class*="Button__btn"]`
	assert.Equal(t, 3, dom.Count(ctx, d, root, btn))

	first, ok, err := dom.FindByText(ctx, d, root, btn, dom.TextEquals("save"))
	require.NoError(t, err)
	require.True(t, ok)
	last, ok, err := dom.FindLastByText(ctx, d, root, btn, dom.TextEquals("save"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, first, last)

	assert.True(t, dom.HasByText(ctx, d, root, btn, dom.TextContains("Create New")))
	assert.False(t, dom.HasByText(ctx, d, root, btn, dom.TextContains("create new")))
	assert.True(t, dom.HasByText(ctx, d, root, "button", dom.TextEquals("other", "SAVE")))

	cur, ok := dom.FindSelectWithOption(ctx, d, root, "CIS")
	require.True(t, ok)
	assert.Equal(t, 1, dom.OptionIndex(ctx, d, cur, "CIS"))
	assert.Equal(t, -1, dom.OptionIndex(ctx, d, cur, "ICA"))
	_, ok = dom.FindSelectWithOption(ctx, d, root, "ICA")
	assert.False(t, ok)
}

func TestWaitQuery(t *testing.T) {
	ctx := context.Background()
	d, err := htmldom.ParseString(page)
	require.NoError(t, err)
	root, err := d.Root(ctx)
	require.NoError(t, err)

	_, ok := dom.WaitQuery(ctx, d, root, "span.late", 50*time.Millisecond)
	assert.False(t, ok)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = d.AppendTo("#later", `<span class="late">here</span>`)
	}()
	el, ok := dom.WaitQuery(ctx, d, root, "span.late", time.Second)
	require.True(t, ok)
	text, err := d.Text(ctx, el)
	require.NoError(t, err)
	assert.Equal(t, "here", text)
}
