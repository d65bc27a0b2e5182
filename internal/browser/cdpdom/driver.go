// Package cdpdom drives the game client in Chrome over the DevTools protocol.
// Element handles are remote object ids of a single object group, so one
// Release call frees everything a step touched.
package cdpdom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/prunact/internal/dom"
)

const (
	objectGroup    = "prunact"
	releaseTimeout = 5 * time.Second
)

// Functions called with the element as this. Values are assigned through the
// prototype setter because the client's framework tracks the value property
// of the instance and ignores a plain assignment.
const (
	jsGetElementByID = `function(id) { return this.getElementById(id); }`
	jsQueryAll       = `function(sel) { return Array.from(this.querySelectorAll(sel)); }`
	jsLength         = `function() { return this.length; }`
	jsIndex          = `function(i) { return this[i]; }`
	jsText           = `function() { return this.textContent || ""; }`
	jsMatchesClass   = `function(prefix) { return Array.from(this.classList).some(c => c.startsWith(prefix)); }`
	jsOptionValues   = `function() { return Array.from(this.options || []).map(o => o.value); }`
	jsFocus          = `function() { this.focus(); }`
	jsSelectText     = `function() { if (typeof this.select === "function") { this.select(); } }`
	jsClick          = `function() { this.click(); }`
	jsSetDisplay     = `function(display) { this.style.display = display; }`
	jsSetValue       = `function(value, proto) {
		const setter = Object.getOwnPropertyDescriptor(window[proto].prototype, "value").set;
		setter.call(this, value);
		this.dispatchEvent(new Event("input", { bubbles: true }));
		this.dispatchEvent(new Event("change", { bubbles: true }));
	}`
	jsSelectIndex = `function(index) {
		const option = this.options[index];
		if (!option) { throw new Error("no option at index " + index); }
		const setter = Object.getOwnPropertyDescriptor(HTMLSelectElement.prototype, "value").set;
		setter.call(this, option.value);
		this.dispatchEvent(new Event("change", { bubbles: true }));
	}`
)

// Driver implements dom.Driver against a chromedp tab. Mutations are paced
// by a token bucket so a long plan does not flood the client.
type Driver struct {
	tab     context.Context
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ dom.Driver = (*Driver)(nil)

// NewDriver returns a driver for the tab context. A non-positive rate
// disables pacing.
func NewDriver(tab context.Context, ratePerSecond float64, burst int, logger *zap.Logger) *Driver {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Driver{tab: tab, limiter: rate.NewLimiter(limit, burst), logger: logger.Named("cdpdom")}
}

// run executes actions in the tab, bounded by the caller's context.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(d.tab, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return classify(err)
	}
	return nil
}

// mutate is run after waiting for a token.
func (d *Driver) mutate(ctx context.Context, actions ...chromedp.Action) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.run(ctx, actions...)
}

// classify maps protocol errors about released or collected objects to
// dom.ErrStaleElement.
func classify(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "Could not find object with given id") ||
		strings.Contains(msg, "Cannot find context with specified id") ||
		strings.Contains(msg, "Invalid remote object id") {
		return fmt.Errorf("%w: %v", dom.ErrStaleElement, err)
	}
	return err
}

func on(el dom.Element) chromedp.CallOption {
	return func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
		return p.WithObjectID(runtime.RemoteObjectID(el)).WithObjectGroup(objectGroup).WithSilent(true)
	}
}

func callOn(el dom.Element, fn string, res any, args ...any) chromedp.Action {
	return chromedp.CallFunctionOn(fn, res, on(el), args...)
}

func handle(obj *runtime.RemoteObject) (dom.Element, bool) {
	if obj == nil || obj.ObjectID == "" {
		return "", false
	}
	return dom.Element(obj.ObjectID), true
}

// Root implements dom.Driver.
func (d *Driver) Root(ctx context.Context) (dom.Element, error) {
	var obj *runtime.RemoteObject
	err := d.run(ctx, chromedp.Evaluate(`document`, &obj, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithObjectGroup(objectGroup).WithSilent(true)
	}))
	if err != nil {
		return "", fmt.Errorf("failed to resolve document: %w", err)
	}
	el, ok := handle(obj)
	if !ok {
		return "", errors.New("document has no object id")
	}
	return el, nil
}

// ByID implements dom.Driver.
func (d *Driver) ByID(ctx context.Context, id string) (dom.Element, bool, error) {
	root, err := d.Root(ctx)
	if err != nil {
		return "", false, err
	}
	var obj *runtime.RemoteObject
	if err := d.run(ctx, callOn(root, jsGetElementByID, &obj, id)); err != nil {
		return "", false, err
	}
	el, ok := handle(obj)
	return el, ok, nil
}

// QueryAll implements dom.Driver.
func (d *Driver) QueryAll(ctx context.Context, scope dom.Element, selector string) ([]dom.Element, error) {
	var list *runtime.RemoteObject
	var n int
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := callOn(scope, jsQueryAll, &list, selector).Do(ctx); err != nil {
			return err
		}
		arr, ok := handle(list)
		if !ok {
			return nil
		}
		return callOn(arr, jsLength, &n).Do(ctx)
	}))
	if err != nil {
		return nil, fmt.Errorf("query %q failed: %w", selector, err)
	}
	if n == 0 {
		return nil, nil
	}

	arr := dom.Element(list.ObjectID)
	out := make([]dom.Element, 0, n)
	err = d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for i := 0; i < n; i++ {
			var obj *runtime.RemoteObject
			if err := callOn(arr, jsIndex, &obj, i).Do(ctx); err != nil {
				return err
			}
			if el, ok := handle(obj); ok {
				out = append(out, el)
			}
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("query %q failed: %w", selector, err)
	}
	return out, nil
}

// Text implements dom.Driver.
func (d *Driver) Text(ctx context.Context, el dom.Element) (string, error) {
	var s string
	if err := d.run(ctx, callOn(el, jsText, &s)); err != nil {
		return "", err
	}
	return s, nil
}

// MatchesClass implements dom.Driver.
func (d *Driver) MatchesClass(ctx context.Context, el dom.Element, prefix string) (bool, error) {
	var ok bool
	if err := d.run(ctx, callOn(el, jsMatchesClass, &ok, prefix)); err != nil {
		return false, err
	}
	return ok, nil
}

// OptionValues implements dom.Driver.
func (d *Driver) OptionValues(ctx context.Context, el dom.Element) ([]string, error) {
	var values []string
	if err := d.run(ctx, callOn(el, jsOptionValues, &values)); err != nil {
		return nil, err
	}
	return values, nil
}

// Focus implements dom.Driver.
func (d *Driver) Focus(ctx context.Context, el dom.Element) error {
	return d.mutate(ctx, callOn(el, jsFocus, nil))
}

// SelectText implements dom.Driver.
func (d *Driver) SelectText(ctx context.Context, el dom.Element) error {
	return d.mutate(ctx, callOn(el, jsSelectText, nil))
}

// SetValue implements dom.Driver.
func (d *Driver) SetValue(ctx context.Context, el dom.Element, value string) error {
	d.logger.Debug("Setting input value", zap.String("value", value))
	return d.mutate(ctx, callOn(el, jsSetValue, nil, value, "HTMLInputElement"))
}

// SetTextAreaValue implements dom.Driver.
func (d *Driver) SetTextAreaValue(ctx context.Context, el dom.Element, value string) error {
	return d.mutate(ctx, callOn(el, jsSetValue, nil, value, "HTMLTextAreaElement"))
}

// SelectIndex implements dom.Driver.
func (d *Driver) SelectIndex(ctx context.Context, el dom.Element, index int) error {
	return d.mutate(ctx, callOn(el, jsSelectIndex, nil, index))
}

// Click implements dom.Driver.
func (d *Driver) Click(ctx context.Context, el dom.Element) error {
	return d.mutate(ctx, callOn(el, jsClick, nil))
}

// SetDisplay implements dom.Driver.
func (d *Driver) SetDisplay(ctx context.Context, el dom.Element, display string) error {
	return d.mutate(ctx, callOn(el, jsSetDisplay, nil, display))
}

// PressEnter implements dom.Driver.
func (d *Driver) PressEnter(ctx context.Context, el dom.Element) error {
	return d.mutate(ctx, callOn(el, jsFocus, nil), chromedp.KeyEvent(kb.Enter))
}

// Release implements dom.Driver. It still reaches the browser when the
// caller's context is already canceled.
func (d *Driver) Release(_ context.Context) error {
	cleanup, cancel := context.WithTimeout(Detach(d.tab), releaseTimeout)
	defer cancel()
	if err := chromedp.Run(cleanup, runtime.ReleaseObjectGroup(objectGroup)); err != nil {
		d.logger.Warn("Failed to release object group", zap.Error(err))
		return err
	}
	return nil
}
