package gamedata

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/prunact/internal/dom"
)

// PageDraftSource reads the contract draft registry from the page: every
// element matching IDSelector holds the natural id of one draft.
type PageDraftSource struct {
	Driver     dom.Driver
	IDSelector string
}

// All implements ContractDraftSource. Duplicate ids, e.g. the same draft shown
// in two tiles, are reported once.
func (p *PageDraftSource) All(ctx context.Context) ([]ContractDraft, error) {
	root, err := p.Driver.Root(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document root: %w", err)
	}
	cells, err := p.Driver.QueryAll(ctx, root, p.IDSelector)
	if err != nil {
		return nil, fmt.Errorf("failed to list contract drafts: %w", err)
	}
	seen := make(map[string]bool, len(cells))
	drafts := make([]ContractDraft, 0, len(cells))
	for _, cell := range cells {
		text, err := p.Driver.Text(ctx, cell)
		if err != nil {
			continue
		}
		id := strings.TrimSpace(text)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		drafts = append(drafts, ContractDraft{NaturalID: id})
	}
	return drafts, nil
}
