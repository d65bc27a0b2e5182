// Package tiles finds and opens panels ("tiles") of the game UI. A tile is
// opened by typing its command into the command input and pressing Enter;
// it is recognized by the command shown in its header.
package tiles

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/act/selectors"
	"github.com/xkilldash9x/prunact/internal/dom"
	"github.com/xkilldash9x/prunact/internal/poll"
)

// DefaultTimeout bounds how long Request waits for a tile to appear.
const DefaultTimeout = 10 * time.Second

// Manager implements act.TileProvider over a dom.Driver.
type Manager struct {
	driver  dom.Driver
	sel     selectors.Tile
	timeout time.Duration
	logger  *zap.Logger
}

var _ act.TileProvider = (*Manager)(nil)

// NewManager creates a Manager. A zero timeout uses DefaultTimeout.
func NewManager(driver dom.Driver, sel selectors.Tile, timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{driver: driver, sel: sel, timeout: timeout, logger: logger.Named("tiles")}
}

// Find lists the open tiles whose command equals command, or starts with it
// when prefix is set. Commands compare case-insensitively.
func (m *Manager) Find(ctx context.Context, command string, prefix bool) ([]act.Tile, error) {
	root, err := m.driver.Root(ctx)
	if err != nil {
		return nil, err
	}
	frames, err := m.driver.QueryAll(ctx, root, m.sel.Frame)
	if err != nil {
		return nil, err
	}
	want := normalize(command)
	var out []act.Tile
	for _, frame := range frames {
		header, ok, err := dom.Query(ctx, m.driver, frame, m.sel.Command)
		if err != nil || !ok {
			continue
		}
		text, err := m.driver.Text(ctx, header)
		if err != nil {
			continue
		}
		got := normalize(text)
		if got != want && !(prefix && strings.HasPrefix(got, want)) {
			continue
		}
		anchor, ok, err := dom.Query(ctx, m.driver, frame, m.sel.Anchor)
		if err != nil || !ok {
			anchor = frame
		}
		out = append(out, act.Tile{ID: strings.TrimSpace(text), Anchor: anchor})
	}
	return out, nil
}

// Request returns the tile showing id, opening it through the command input
// when it is not already open.
func (m *Manager) Request(ctx context.Context, id string) (act.Tile, bool) {
	if tile, ok := m.first(ctx, id); ok {
		return tile, true
	}

	root, err := m.driver.Root(ctx)
	if err != nil {
		m.logger.Warn("Could not read page root.", zap.Error(err))
		return act.Tile{}, false
	}
	input, ok, err := dom.Query(ctx, m.driver, root, m.sel.CommandInput)
	if err != nil || !ok {
		m.logger.Warn("Command input not found.", zap.String("selector", m.sel.CommandInput), zap.Error(err))
		return act.Tile{}, false
	}
	if err := dom.FillInput(ctx, m.driver, input, id); err != nil {
		m.logger.Warn("Could not type tile command.", zap.String("command", id), zap.Error(err))
		return act.Tile{}, false
	}
	if err := m.driver.PressEnter(ctx, input); err != nil {
		m.logger.Warn("Could not submit tile command.", zap.String("command", id), zap.Error(err))
		return act.Tile{}, false
	}

	var tile act.Tile
	opened := poll.WaitFor(ctx, func(ctx context.Context) bool {
		t, ok := m.first(ctx, id)
		tile = t
		return ok
	}, m.timeout, poll.DefaultInterval)
	if !opened {
		m.logger.Debug("Tile did not open in time.", zap.String("command", id), zap.Duration("timeout", m.timeout))
		return act.Tile{}, false
	}
	return tile, true
}

func (m *Manager) first(ctx context.Context, id string) (act.Tile, bool) {
	found, err := m.Find(ctx, id, false)
	if err != nil || len(found) == 0 {
		return act.Tile{}, false
	}
	return found[0], true
}

func normalize(command string) string {
	return strings.ToUpper(strings.Join(strings.Fields(command), " "))
}

// Whole is a TileProvider that treats the entire page as every requested
// tile. It serves saved pages that show a single panel.
type Whole struct {
	Driver dom.Driver
}

var _ act.TileProvider = Whole{}

func (w Whole) Request(ctx context.Context, id string) (act.Tile, bool) {
	root, err := w.Driver.Root(ctx)
	if err != nil {
		return act.Tile{}, false
	}
	return act.Tile{ID: id, Anchor: root}, true
}

func (w Whole) Find(ctx context.Context, command string, _ bool) ([]act.Tile, error) {
	root, err := w.Driver.Root(ctx)
	if err != nil {
		return nil, err
	}
	return []act.Tile{{ID: command, Anchor: root}}, nil
}
