// -- internal/dom/htmldom/driver.go --
// Package htmldom is an in-memory dom.Driver over a parsed HTML document. It
// stands in for the live page when rehearsing steps against saved HTML and in
// tests. Page behavior (a click opening a panel, typing showing suggestions)
// is scripted with handlers registered per selector.
package htmldom

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/prunact/internal/dom"
)

// EventType names a user interaction that handlers can react to.
type EventType string

const (
	EventClick EventType = "click"
	// EventInput fires after SetValue, SetTextAreaValue and SelectIndex.
	EventInput EventType = "input"
	EventEnter EventType = "enter"
)

// Handler reacts to an event on target. It runs without the driver lock
// held, so it may call any Driver method.
type Handler func(ctx context.Context, d *Driver, target dom.Element)

// Event is a recorded interaction.
type Event struct {
	Type   string `json:"type"`
	Target string `json:"target"`
	Value  string `json:"value,omitempty"`
}

type handler struct {
	event    EventType
	selector cascadia.Selector
	fn       Handler
}

// Driver implements dom.Driver over a goquery document.
type Driver struct {
	mu       sync.Mutex
	doc      *goquery.Document
	handles  map[dom.Element]*html.Node
	byNode   map[*html.Node]dom.Element
	next     int
	handlers []handler
	events   []Event
	focused  *html.Node
}

var _ dom.Driver = (*Driver)(nil)

// New wraps an already parsed document.
func New(doc *goquery.Document) *Driver {
	return &Driver{
		doc:     doc,
		handles: make(map[dom.Element]*html.Node),
		byNode:  make(map[*html.Node]dom.Element),
	}
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Driver, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return New(doc), nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Driver, error) { return Parse(strings.NewReader(s)) }

// On registers fn for event on elements matching selector. Like
// regexp.MustCompile it panics on an invalid selector.
func (d *Driver) On(event EventType, selector string, fn Handler) *Driver {
	m := cascadia.MustCompile(selector)
	d.mu.Lock()
	d.handlers = append(d.handlers, handler{event: event, selector: m, fn: fn})
	d.mu.Unlock()
	return d
}

func (d *Driver) OnClick(selector string, fn Handler) *Driver { return d.On(EventClick, selector, fn) }
func (d *Driver) OnInput(selector string, fn Handler) *Driver { return d.On(EventInput, selector, fn) }
func (d *Driver) OnEnter(selector string, fn Handler) *Driver { return d.On(EventEnter, selector, fn) }

// Events returns the recorded interactions in order.
func (d *Driver) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

// Focused returns the element that last received focus.
func (d *Driver) Focused() (dom.Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.focused == nil {
		return "", false
	}
	return d.handle(d.focused), true
}

// HTML renders the current document.
func (d *Driver) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Html()
}

// -- dom.Driver --

func (d *Driver) Root(context.Context) (dom.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handle(d.root()), nil
}

func (d *Driver) ByID(_ context.Context, id string) (dom.Element, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var found *html.Node
	d.doc.Find("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, _ := s.Attr("id"); v == id {
			found = s.Nodes[0]
			return false
		}
		return true
	})
	if found == nil {
		return "", false, nil
	}
	return d.handle(found), true, nil
}

func (d *Driver) QueryAll(_ context.Context, scope dom.Element, selector string) ([]dom.Element, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(scope)
	if err != nil {
		return nil, err
	}
	nodes := selection(n).FindMatcher(m).Nodes
	out := make([]dom.Element, len(nodes))
	for i, c := range nodes {
		out[i] = d.handle(c)
	}
	return out, nil
}

func (d *Driver) Text(_ context.Context, el dom.Element) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(el)
	if err != nil {
		return "", err
	}
	return selection(n).Text(), nil
}

func (d *Driver) MatchesClass(_ context.Context, el dom.Element, prefix string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(el)
	if err != nil {
		return false, err
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if strings.HasPrefix(c, prefix) {
			return true, nil
		}
	}
	return false, nil
}

func (d *Driver) OptionValues(_ context.Context, el dom.Element) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(el)
	if err != nil {
		return nil, err
	}
	var values []string
	selection(n).Find("option").Each(func(_ int, s *goquery.Selection) {
		values = append(values, optionValue(s))
	})
	return values, nil
}

func (d *Driver) Focus(_ context.Context, el dom.Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(el)
	if err != nil {
		return err
	}
	d.focused = n
	d.record("focus", n, "")
	return nil
}

func (d *Driver) SelectText(_ context.Context, el dom.Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(el)
	if err != nil {
		return err
	}
	d.record("select", n, "")
	return nil
}

func (d *Driver) SetValue(ctx context.Context, el dom.Element, value string) error {
	d.mu.Lock()
	n, err := d.node(el)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	setAttr(n, "value", value)
	d.record("set", n, value)
	matched := d.matching(EventInput, n)
	d.mu.Unlock()
	d.dispatch(ctx, matched, el)
	return nil
}

func (d *Driver) SetTextAreaValue(ctx context.Context, el dom.Element, value string) error {
	d.mu.Lock()
	n, err := d.node(el)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: value})
	d.record("set", n, value)
	matched := d.matching(EventInput, n)
	d.mu.Unlock()
	d.dispatch(ctx, matched, el)
	return nil
}

func (d *Driver) SelectIndex(ctx context.Context, el dom.Element, index int) error {
	d.mu.Lock()
	n, err := d.node(el)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	options := selection(n).Find("option")
	if index < 0 || index >= options.Length() {
		d.mu.Unlock()
		return fmt.Errorf("option index %d out of range [0,%d)", index, options.Length())
	}
	var value string
	options.Each(func(i int, s *goquery.Selection) {
		if i == index {
			setAttr(s.Nodes[0], "selected", "selected")
			value = optionValue(s)
		} else {
			removeAttr(s.Nodes[0], "selected")
		}
	})
	d.record("choose", n, value)
	matched := d.matching(EventInput, n)
	d.mu.Unlock()
	d.dispatch(ctx, matched, el)
	return nil
}

func (d *Driver) Click(ctx context.Context, el dom.Element) error {
	d.mu.Lock()
	n, err := d.node(el)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.record("click", n, "")
	matched := d.matching(EventClick, n)
	d.mu.Unlock()
	d.dispatch(ctx, matched, el)
	return nil
}

func (d *Driver) SetDisplay(_ context.Context, el dom.Element, display string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(el)
	if err != nil {
		return err
	}
	var decls []string
	for _, decl := range strings.Split(attr(n, "style"), ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" || strings.HasPrefix(strings.ToLower(decl), "display") {
			continue
		}
		decls = append(decls, decl)
	}
	if display != "" {
		decls = append(decls, "display: "+display)
	}
	if len(decls) == 0 {
		removeAttr(n, "style")
	} else {
		setAttr(n, "style", strings.Join(decls, "; "))
	}
	d.record("display", n, display)
	return nil
}

func (d *Driver) PressEnter(ctx context.Context, el dom.Element) error {
	d.mu.Lock()
	n, err := d.node(el)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.focused = n
	d.record("enter", n, "")
	matched := d.matching(EventEnter, n)
	d.mu.Unlock()
	d.dispatch(ctx, matched, el)
	return nil
}

// Release forgets every handle handed out so far.
func (d *Driver) Release(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handles = make(map[dom.Element]*html.Node)
	d.byNode = make(map[*html.Node]dom.Element)
	return nil
}

// -- scripting helpers --

// Find returns every element of the document matching selector.
func (d *Driver) Find(selector string) []dom.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	nodes := d.doc.Find(selector).Nodes
	out := make([]dom.Element, len(nodes))
	for i, n := range nodes {
		out[i] = d.handle(n)
	}
	return out
}

// Value returns the current value of an input, textarea or select.
func (d *Driver) Value(el dom.Element) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(el)
	if err != nil {
		return "", err
	}
	switch n.DataAtom {
	case atom.Textarea:
		return selection(n).Text(), nil
	case atom.Select:
		options := selection(n).Find("option")
		selected := options.FilterFunction(func(_ int, s *goquery.Selection) bool {
			_, ok := s.Attr("selected")
			return ok
		})
		if selected.Length() > 0 {
			return optionValue(selected.First()), nil
		}
		if options.Length() > 0 {
			return optionValue(options.First()), nil
		}
		return "", nil
	default:
		return attr(n, "value"), nil
	}
}

// Attr returns an attribute of el.
func (d *Driver) Attr(el dom.Element, key string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(el)
	if err != nil {
		return "", false, err
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true, nil
		}
	}
	return "", false, nil
}

// Append parses fragment and appends the resulting nodes to el.
func (d *Driver) Append(el dom.Element, fragment string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(el)
	if err != nil {
		return err
	}
	if n.Type == html.DocumentNode {
		if body := d.doc.Find("body"); body.Length() > 0 {
			n = body.Nodes[0]
		}
	}
	parent := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent)
	if err != nil {
		return fmt.Errorf("failed to parse fragment: %w", err)
	}
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// AppendTo is Append on the first element matching selector.
func (d *Driver) AppendTo(selector, fragment string) error {
	els := d.Find(selector)
	if len(els) == 0 {
		return fmt.Errorf("no element matches %q", selector)
	}
	return d.Append(els[0], fragment)
}

// SetAttr sets an attribute of el.
func (d *Driver) SetAttr(el dom.Element, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(el)
	if err != nil {
		return err
	}
	setAttr(n, key, value)
	return nil
}

// AddClass adds a class token to el.
func (d *Driver) AddClass(el dom.Element, class string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(el)
	if err != nil {
		return err
	}
	classes := strings.Fields(attr(n, "class"))
	for _, c := range classes {
		if c == class {
			return nil
		}
	}
	setAttr(n, "class", strings.Join(append(classes, class), " "))
	return nil
}

// RemoveClass removes every class token of el starting with prefix.
func (d *Driver) RemoveClass(el dom.Element, prefix string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(el)
	if err != nil {
		return err
	}
	var kept []string
	for _, c := range strings.Fields(attr(n, "class")) {
		if !strings.HasPrefix(c, prefix) {
			kept = append(kept, c)
		}
	}
	setAttr(n, "class", strings.Join(kept, " "))
	return nil
}

// Remove detaches el from the document. Its handle becomes stale.
func (d *Driver) Remove(el dom.Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.node(el)
	if err != nil {
		return err
	}
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	return nil
}

// -- internals; callers hold d.mu --

func (d *Driver) root() *html.Node { return d.doc.Nodes[0] }

func (d *Driver) handle(n *html.Node) dom.Element {
	if el, ok := d.byNode[n]; ok {
		return el
	}
	d.next++
	el := dom.Element("html:" + strconv.Itoa(d.next))
	d.handles[el] = n
	d.byNode[n] = el
	return el
}

func (d *Driver) node(el dom.Element) (*html.Node, error) {
	n, ok := d.handles[el]
	if !ok {
		return nil, dom.ErrStaleElement
	}
	root := d.root()
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return n, nil
		}
	}
	return nil, dom.ErrStaleElement
}

func (d *Driver) record(kind string, n *html.Node, value string) {
	d.events = append(d.events, Event{Type: kind, Target: Describe(n), Value: value})
}

func (d *Driver) matching(event EventType, n *html.Node) []Handler {
	var out []Handler
	for _, h := range d.handlers {
		if h.event == event && h.selector.Match(n) {
			out = append(out, h.fn)
		}
	}
	return out
}

func (d *Driver) dispatch(ctx context.Context, handlers []Handler, target dom.Element) {
	for _, fn := range handlers {
		fn(ctx, d, target)
	}
}

// Describe renders a short CSS-like label of a node for event logs.
func Describe(n *html.Node) string {
	if n.Type == html.DocumentNode {
		return "#document"
	}
	var b strings.Builder
	b.WriteString(n.Data)
	if id := attr(n, "id"); id != "" {
		b.WriteString("#" + id)
	}
	if name := attr(n, "name"); name != "" {
		b.WriteString(`[name="` + name + `"]`)
	}
	if classes := strings.Fields(attr(n, "class")); len(classes) > 0 {
		b.WriteString("." + classes[0])
	}
	return b.String()
}

func selection(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}

func optionValue(s *goquery.Selection) string {
	if v, ok := s.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(s.Text())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, value string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}
