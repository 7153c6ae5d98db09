package dom

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Event is a synthetic DOM event recorded by HTMLDocument
type Event struct {
	Type   string
	Target string
}

// HTMLDocument is a goquery-parsed page snapshot. Writes mutate the parsed
// tree and are recorded as events, which makes it usable both offline and
// as a stand-in for a live page in tests.
type HTMLDocument struct {
	mu         sync.Mutex
	doc        *goquery.Document
	url        string
	readyState string
	events     []Event
}

// ParseHTML parses raw markup into a document served at url
func ParseHTML(html, url string) (*HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return &HTMLDocument{doc: doc, url: url, readyState: ReadyStateComplete}, nil
}

// MustParseHTML is ParseHTML for fixtures
func MustParseHTML(html, url string) *HTMLDocument {
	d, err := ParseHTML(html, url)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *HTMLDocument) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url
}

// SetURL simulates an in-page navigation
func (d *HTMLDocument) SetURL(url string) {
	d.mu.Lock()
	d.url = url
	d.mu.Unlock()
}

func (d *HTMLDocument) ReadyState() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readyState
}

// SetReadyState simulates page loading
func (d *HTMLDocument) SetReadyState(state string) {
	d.mu.Lock()
	d.readyState = state
	d.mu.Unlock()
}

func (d *HTMLDocument) Find(selector string) []Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrapAll(d.doc.Find(selector))
}

// Append adds markup to the end of the first element matching selector,
// the way a client-side framework renders late content
func (d *HTMLDocument) Append(selector, html string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc.Find(selector).First().AppendHtml(html)
}

// Events returns a copy of the recorded events
func (d *HTMLDocument) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Event, len(d.events))
	copy(out, d.events)
	return out
}

// HTML renders the current tree
func (d *HTMLDocument) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	html, _ := d.doc.Html()
	return html
}

func (d *HTMLDocument) wrapAll(sel *goquery.Selection) []Node {
	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &htmlNode{doc: d, sel: s})
	})
	return nodes
}

func (d *HTMLDocument) wrap(sel *goquery.Selection) Node {
	if sel.Length() == 0 {
		return nil
	}
	return &htmlNode{doc: d, sel: sel.First()}
}

func (d *HTMLDocument) record(typ string, sel *goquery.Selection) {
	target := goquery.NodeName(sel)
	if key, ok := sel.Attr(FieldKeyAttr); ok {
		target = key
	} else if id, ok := sel.Attr("id"); ok {
		target = "#" + id
	}
	d.events = append(d.events, Event{Type: typ, Target: target})
}

type htmlNode struct {
	doc *HTMLDocument
	sel *goquery.Selection
}

func (n *htmlNode) Tag() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return goquery.NodeName(n.sel)
}

func (n *htmlNode) Text() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.sel.Text()
}

func (n *htmlNode) Attr(name string) (string, bool) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.sel.Attr(name)
}

func (n *htmlNode) Parent() Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.doc.wrap(n.sel.Parent())
}

func (n *htmlNode) PrevSibling() Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.doc.wrap(n.sel.Prev())
}

func (n *htmlNode) Find(selector string) []Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.doc.wrapAll(n.sel.Find(selector))
}

func (n *htmlNode) Matches(selector string) bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.sel.Is(selector)
}

func (n *htmlNode) Visible() bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if t, _ := n.sel.Attr("type"); strings.EqualFold(t, "hidden") {
		return false
	}
	for s := n.sel; s.Length() > 0; s = s.Parent() {
		if hiddenElement(s) {
			return false
		}
	}
	return true
}

func hiddenElement(s *goquery.Selection) bool {
	if _, ok := s.Attr("hidden"); ok {
		return true
	}
	if v, _ := s.Attr("aria-hidden"); v == "true" {
		return true
	}
	style, _ := s.Attr("style")
	style = strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

func (n *htmlNode) Disabled() bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if _, ok := n.sel.Attr("disabled"); ok {
		return true
	}
	if v, _ := n.sel.Attr("aria-disabled"); v == "true" {
		return true
	}
	return n.sel.Closest("fieldset[disabled]").Length() > 0
}

func (n *htmlNode) Value() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if goquery.NodeName(n.sel) == "textarea" {
		return n.sel.Text()
	}
	v, _ := n.sel.Attr("value")
	return v
}

func (n *htmlNode) SetAttr(name, value string) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	n.sel.SetAttr(name, value)
	return nil
}

func (n *htmlNode) SetValue(text string) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	switch goquery.NodeName(n.sel) {
	case "textarea":
		n.sel.SetText(text)
	case "input":
		n.sel.SetAttr("value", text)
	default:
		return fmt.Errorf("element <%s> has no value", goquery.NodeName(n.sel))
	}

	n.doc.record("input", n.sel)
	n.doc.record("change", n.sel)
	return nil
}

func (n *htmlNode) Click() error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if v, ok := n.sel.Attr("aria-expanded"); ok && v == "false" {
		n.sel.SetAttr("aria-expanded", "true")
	}
	n.doc.record("click", n.sel)
	return nil
}
