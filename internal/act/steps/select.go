package steps

import (
	"context"
	"strings"
	"time"

	"github.com/xkilldash9x/prunact/internal/act/selectors"
	"github.com/xkilldash9x/prunact/internal/dom"
	"github.com/xkilldash9x/prunact/internal/poll"
)

// SelectLocation drives an address autosuggest inside container. The
// suggestions render in the page-level portal, not in the container; only
// one portal is open at a time so it is searched directly. The first
// suggestion containing location (case-insensitive) is clicked, or the first
// suggestion when none does.
func SelectLocation(ctx context.Context, d dom.Driver, sel selectors.Set, container dom.Element, location string, wait time.Duration) bool {
	input, ok := dom.WaitQuery(ctx, d, container, sel.AddressSelector.Input, dom.DefaultQueryWait)
	if !ok {
		return false
	}
	portal, ok, err := d.ByID(ctx, sel.AddressSelector.PortalID)
	if err != nil || !ok {
		return false
	}

	if err := d.Focus(ctx, input); err != nil {
		return false
	}
	if err := d.SetValue(ctx, input, location); err != nil {
		return false
	}

	appeared := poll.WaitFor(ctx, func(ctx context.Context) bool {
		return dom.Count(ctx, d, portal, sel.AddressSelector.SuggestionContent) > 0
	}, wait, poll.DefaultInterval)
	if !appeared {
		return false
	}

	suggestions, err := d.QueryAll(ctx, portal, sel.AddressSelector.SuggestionContent)
	if err != nil || len(suggestions) == 0 {
		return false
	}
	want := strings.ToLower(location)
	match := suggestions[0]
	for _, s := range suggestions {
		text, err := d.Text(ctx, s)
		if err == nil && strings.Contains(strings.ToLower(strings.TrimSpace(text)), want) {
			match = s
			break
		}
	}
	return d.Click(ctx, match) == nil
}

// SelectMaterial drives a material autosuggest inside container: it types
// ticker, hides the suggestion dropdown while it picks the entry whose label
// is exactly ticker, clicks it and lets the page settle.
func SelectMaterial(ctx context.Context, d dom.Driver, sel selectors.Set, container dom.Element, ticker string, settle time.Duration) bool {
	ms := sel.MaterialSelector
	input, ok := dom.WaitQuery(ctx, d, container, ms.Input, dom.DefaultQueryWait)
	if !ok {
		return false
	}
	suggestionsContainer, hasContainer := dom.WaitQuery(ctx, d, container, ms.SuggestionsContainer, dom.DefaultQueryWait)

	if err := d.Focus(ctx, input); err != nil {
		return false
	}
	if err := d.SetValue(ctx, input, ticker); err != nil {
		return false
	}

	list, hasList := dom.WaitQuery(ctx, d, container, ms.SuggestionsList, dom.DefaultQueryWait)

	restore := func() {
		if hasContainer {
			_ = d.SetDisplay(ctx, suggestionsContainer, "")
		}
	}
	if hasContainer {
		_ = d.SetDisplay(ctx, suggestionsContainer, "none")
	}

	var match dom.Element
	found := false
	if hasList {
		entries, _ := d.QueryAll(ctx, list, ms.SuggestionEntry)
		for _, entry := range entries {
			label, ok, err := dom.Query(ctx, d, entry, sel.ColoredIcon.Label)
			if err != nil || !ok {
				continue
			}
			if text, err := d.Text(ctx, label); err == nil && text == ticker {
				match, found = entry, true
				break
			}
		}
	}
	if !found {
		restore()
		return false
	}

	if err := d.Click(ctx, match); err != nil {
		restore()
		return false
	}
	restore()
	_ = poll.Sleep(ctx, settle)
	return true
}
