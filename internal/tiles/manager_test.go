package tiles_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/prunact/internal/act/selectors"
	"github.com/xkilldash9x/prunact/internal/dom"
	"github.com/xkilldash9x/prunact/internal/dom/htmldom"
	"github.com/xkilldash9x/prunact/internal/tiles"
)

const page = `<html><body>
<input class="PanelSelector__input___q">
<div id="tiles">
  <div class="TileFrame__frame___1">
    <div class="TileFrame__cmd___2">CONTD</div>
    <div class="TileFrame__anchor___3"><button>Create New</button></div>
  </div>
  <div class="TileFrame__frame___1">
    <div class="TileFrame__cmd___2">contd  ab12</div>
    <div class="TileFrame__anchor___3"><input name="title"></div>
  </div>
</div>
</body></html>`

func newManager(t *testing.T, timeout time.Duration) (*tiles.Manager, *htmldom.Driver) {
	t.Helper()
	d, err := htmldom.ParseString(page)
	require.NoError(t, err)
	return tiles.NewManager(d, selectors.Default().Tile, timeout, zaptest.NewLogger(t)), d
}

func TestManager_Find(t *testing.T) {
	ctx := context.Background()
	m, d := newManager(t, time.Second)

	exact, err := m.Find(ctx, "CONTD", false)
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, "CONTD", exact[0].ID)
	assert.True(t, dom.HasByText(ctx, d, exact[0].Anchor, "button", dom.TextEquals("create new")))

	all, err := m.Find(ctx, "contd", true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	draft, err := m.Find(ctx, "CONTD AB12", false)
	require.NoError(t, err)
	require.Len(t, draft, 1)
	assert.Equal(t, "contd  ab12", draft[0].ID)
}

func TestManager_RequestOpen(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, time.Second)
	tile, ok := m.Request(ctx, "CONTD")
	require.True(t, ok)
	assert.Equal(t, "CONTD", tile.ID)
}

func TestManager_RequestOpensThroughCommandInput(t *testing.T) {
	ctx := context.Background()
	m, d := newManager(t, time.Second)

	d.OnEnter(`[class*="PanelSelector__input"]`, func(ctx context.Context, d *htmldom.Driver, target dom.Element) {
		cmd, err := d.Value(target)
		require.NoError(t, err)
		go func() {
			time.Sleep(20 * time.Millisecond)
			_ = d.AppendTo("#tiles", fmt.Sprintf(
				`<div class="TileFrame__frame___1"><div class="TileFrame__cmd___2">%s</div><div class="TileFrame__anchor___3"></div></div>`, cmd))
		}()
	})

	tile, ok := m.Request(ctx, "CONTD XY99")
	require.True(t, ok)
	assert.Equal(t, "CONTD XY99", tile.ID)
}

func TestManager_RequestTimesOut(t *testing.T) {
	m, _ := newManager(t, 50*time.Millisecond)
	_, ok := m.Request(context.Background(), "INV")
	assert.False(t, ok)
}

func TestWhole(t *testing.T) {
	ctx := context.Background()
	d, err := htmldom.ParseString(page)
	require.NoError(t, err)
	w := tiles.Whole{Driver: d}

	tile, ok := w.Request(ctx, "CONTD ZZ")
	require.True(t, ok)
	root, _ := d.Root(ctx)
	assert.Equal(t, root, tile.Anchor)

	found, err := w.Find(ctx, "CONTD", true)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}
