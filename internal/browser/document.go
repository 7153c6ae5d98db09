package browser

import (
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"proposal-autofill/internal/dom"
)

const queryTimeout = 5 * time.Second

// setValueJS writes through the native setter so framework-controlled
// inputs see the change, then fires bubbling input and change events.
const setValueJS = `(text) => {
	const proto = this.tagName === 'TEXTAREA' ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
	const desc = Object.getOwnPropertyDescriptor(proto, 'value');
	if (desc && desc.set) { desc.set.call(this, text); } else { this.value = text; }
	this.dispatchEvent(new Event('input', { bubbles: true }));
	this.dispatchEvent(new Event('change', { bubbles: true }));
}`

// Document adapts a live rod page to dom.Document
type Document struct {
	page *rod.Page
}

// NewDocument wraps page
func NewDocument(page *rod.Page) *Document {
	return &Document{page: page}
}

func (d *Document) URL() string {
	info, err := d.page.Timeout(queryTimeout).Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (d *Document) ReadyState() string {
	res, err := d.page.Timeout(queryTimeout).Eval(`() => document.readyState`)
	if err != nil {
		return dom.ReadyStateLoading
	}
	return res.Value.Str()
}

func (d *Document) Find(selector string) []dom.Node {
	els, err := d.page.Timeout(queryTimeout).Elements(selector)
	if err != nil {
		return nil
	}
	return wrapAll(els)
}

func wrapAll(els rod.Elements) []dom.Node {
	out := make([]dom.Node, 0, len(els))
	for _, el := range els {
		out = append(out, &node{el: el})
	}
	return out
}

// node adapts a rod element to dom.Node
type node struct {
	el *rod.Element
}

func (n *node) evalString(js string) string {
	res, err := n.el.Timeout(queryTimeout).Eval(js)
	if err != nil || res == nil {
		return ""
	}
	return res.Value.Str()
}

func (n *node) evalBool(js string) bool {
	res, err := n.el.Timeout(queryTimeout).Eval(js)
	if err != nil || res == nil {
		return false
	}
	return res.Value.Bool()
}

func (n *node) Tag() string {
	return strings.ToLower(n.evalString(`() => this.tagName`))
}

func (n *node) Text() string {
	return n.evalString(`() => this.textContent || ''`)
}

func (n *node) Attr(name string) (string, bool) {
	v, err := n.el.Timeout(queryTimeout).Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

func (n *node) Parent() dom.Node {
	p, err := n.el.Timeout(queryTimeout).Parent()
	if err != nil || p == nil {
		return nil
	}
	return &node{el: p}
}

// PrevSibling and Parent fail with rod's not-found error at the edges
func (n *node) PrevSibling() dom.Node {
	p, err := n.el.Timeout(queryTimeout).Previous()
	if err != nil || p == nil {
		return nil
	}
	return &node{el: p}
}

func (n *node) Find(selector string) []dom.Node {
	els, err := n.el.Timeout(queryTimeout).Elements(selector)
	if err != nil {
		return nil
	}
	return wrapAll(els)
}

func (n *node) Matches(selector string) bool {
	ok, err := n.el.Timeout(queryTimeout).Matches(selector)
	return err == nil && ok
}

func (n *node) Visible() bool {
	ok, err := n.el.Timeout(queryTimeout).Visible()
	return err == nil && ok
}

func (n *node) Disabled() bool {
	return n.evalBool(`() => this.disabled === true || this.getAttribute('aria-disabled') === 'true' || !!this.closest('fieldset[disabled]')`)
}

func (n *node) Value() string {
	return n.evalString(`() => (this.value !== undefined ? String(this.value) : (this.textContent || ''))`)
}

func (n *node) SetAttr(name, value string) error {
	_, err := n.el.Timeout(queryTimeout).Eval(`(n, v) => this.setAttribute(n, v)`, name, value)
	return err
}

func (n *node) SetValue(text string) error {
	_, err := n.el.Timeout(queryTimeout).Eval(setValueJS, text)
	return err
}

func (n *node) Click() error {
	return n.el.Timeout(queryTimeout).Click(proto.InputMouseButtonLeft, 1)
}
