// Package dom defines the primitives used to read and mutate the game's page.
// Every mutation dispatches the events the page's framework needs in order to
// observe the change, so a value set through a Driver behaves like one typed by
// a user.
package dom

import (
	"context"
	"errors"
)

// Element is an opaque handle to a node of the page. Handles are only valid
// for the Driver that produced them.
type Element string

// ErrStaleElement is returned when a handle no longer refers to a live node.
var ErrStaleElement = errors.New("dom: stale element handle")

// Driver reads and mutates the live page.
type Driver interface {
	// Root returns the document element used as the scope of page-wide queries.
	Root(ctx context.Context) (Element, error)
	// ByID returns the element with the given id attribute.
	ByID(ctx context.Context, id string) (Element, bool, error)
	// QueryAll returns every descendant of scope matching a CSS selector, in
	// document order.
	QueryAll(ctx context.Context, scope Element, selector string) ([]Element, error)

	// Text returns the element's text content.
	Text(ctx context.Context, el Element) (string, error)
	// MatchesClass reports whether any class token of el starts with prefix.
	// Class names on the page are CSS-module hashes, so callers match on the
	// stable prefix.
	MatchesClass(ctx context.Context, el Element, prefix string) (bool, error)
	// OptionValues returns the option values of a select element.
	OptionValues(ctx context.Context, el Element) ([]string, error)

	Focus(ctx context.Context, el Element) error
	// SelectText selects the current content of an input.
	SelectText(ctx context.Context, el Element) error
	// SetValue replaces an input's value and dispatches input/change events.
	SetValue(ctx context.Context, el Element, value string) error
	// SetTextAreaValue is SetValue for textarea elements.
	SetTextAreaValue(ctx context.Context, el Element, value string) error
	// SelectIndex selects an option of a select element by index.
	SelectIndex(ctx context.Context, el Element, index int) error
	Click(ctx context.Context, el Element) error
	// SetDisplay sets the inline style.display of el ("" restores it).
	SetDisplay(ctx context.Context, el Element, display string) error
	// PressEnter focuses el and sends an Enter key press.
	PressEnter(ctx context.Context, el Element) error

	// Release drops every handle produced so far.
	Release(ctx context.Context) error
}
