package dom

import (
	"context"
	"strings"
	"time"

	"github.com/xkilldash9x/prunact/internal/poll"
)

// DefaultQueryWait bounds WaitQuery when no explicit timeout is given.
const DefaultQueryWait = 5 * time.Second

// Query returns the first descendant of scope matching selector.
func Query(ctx context.Context, d Driver, scope Element, selector string) (Element, bool, error) {
	all, err := d.QueryAll(ctx, scope, selector)
	if err != nil || len(all) == 0 {
		return "", false, err
	}
	return all[0], true, nil
}

// WaitQuery waits up to timeout for a descendant of scope matching selector.
// Lookup errors are treated as "not yet present".
func WaitQuery(ctx context.Context, d Driver, scope Element, selector string, timeout time.Duration) (Element, bool) {
	if timeout <= 0 {
		timeout = DefaultQueryWait
	}
	var found Element
	ok := poll.WaitFor(ctx, func(ctx context.Context) bool {
		el, ok, err := Query(ctx, d, scope, selector)
		if err != nil || !ok {
			return false
		}
		found = el
		return true
	}, timeout, poll.DefaultInterval)
	return found, ok
}

// Count returns the number of descendants of scope matching selector, 0 on error.
func Count(ctx context.Context, d Driver, scope Element, selector string) int {
	all, err := d.QueryAll(ctx, scope, selector)
	if err != nil {
		return 0
	}
	return len(all)
}

// TextPredicate tests the text content of an element.
type TextPredicate func(text string) bool

// TextEquals matches trimmed text case-insensitively.
func TextEquals(want ...string) TextPredicate {
	return func(text string) bool {
		t := strings.ToLower(strings.TrimSpace(text))
		for _, w := range want {
			if t == strings.ToLower(w) {
				return true
			}
		}
		return false
	}
}

// TextContains matches text that contains sub (case-sensitive).
func TextContains(sub string) TextPredicate {
	return func(text string) bool { return strings.Contains(text, sub) }
}

// FindByText returns the first element matching selector whose text satisfies pred.
func FindByText(ctx context.Context, d Driver, scope Element, selector string, pred TextPredicate) (Element, bool, error) {
	all, err := d.QueryAll(ctx, scope, selector)
	if err != nil {
		return "", false, err
	}
	for _, el := range all {
		text, err := d.Text(ctx, el)
		if err != nil {
			continue
		}
		if pred(text) {
			return el, true, nil
		}
	}
	return "", false, nil
}

// FindLastByText is FindByText searching from the end of the document.
func FindLastByText(ctx context.Context, d Driver, scope Element, selector string, pred TextPredicate) (Element, bool, error) {
	all, err := d.QueryAll(ctx, scope, selector)
	if err != nil {
		return "", false, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		text, err := d.Text(ctx, all[i])
		if err != nil {
			continue
		}
		if pred(text) {
			return all[i], true, nil
		}
	}
	return "", false, nil
}

// HasByText reports whether FindByText would find an element. Errors count as absent.
func HasByText(ctx context.Context, d Driver, scope Element, selector string, pred TextPredicate) bool {
	_, ok, err := FindByText(ctx, d, scope, selector, pred)
	return err == nil && ok
}

// OptionIndex returns the index of the option whose value equals value, or -1.
func OptionIndex(ctx context.Context, d Driver, sel Element, value string) int {
	values, err := d.OptionValues(ctx, sel)
	if err != nil {
		return -1
	}
	for i, v := range values {
		if v == value {
			return i
		}
	}
	return -1
}

// FindSelectWithOption returns the first select under scope that offers value.
func FindSelectWithOption(ctx context.Context, d Driver, scope Element, value string) (Element, bool) {
	selects, err := d.QueryAll(ctx, scope, "select")
	if err != nil {
		return "", false
	}
	for _, s := range selects {
		if OptionIndex(ctx, d, s, value) >= 0 {
			return s, true
		}
	}
	return "", false
}

// FillInput focuses an input, selects its content and replaces the value,
// which is how a user would overwrite a prefilled field.
func FillInput(ctx context.Context, d Driver, el Element, value string) error {
	if err := d.Focus(ctx, el); err != nil {
		return err
	}
	if err := d.SelectText(ctx, el); err != nil {
		return err
	}
	return d.SetValue(ctx, el, value)
}
