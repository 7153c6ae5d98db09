// Package dom is the page abstraction the extraction and fill code runs
// against. A live browser page and a parsed HTML snapshot both satisfy it.
package dom

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// FieldKeyAttr is stamped on elements the filler needs to find again
const FieldKeyAttr = "data-pp-key"

// Ready states reported by Document.ReadyState
const (
	ReadyStateLoading  = "loading"
	ReadyStateComplete = "complete"
)

// Node is one element of the page.
// Read methods never fail: a detached or unreadable element reads as empty.
type Node interface {
	Tag() string
	// Text is the element's full text content, untrimmed
	Text() string
	Attr(name string) (string, bool)
	Parent() Node
	// PrevSibling is the previous element sibling
	PrevSibling() Node
	Find(selector string) []Node
	Matches(selector string) bool
	Visible() bool
	Disabled() bool
	// Value is the current form value of an input or textarea
	Value() string

	SetAttr(name, value string) error
	// SetValue writes the form value and dispatches bubbling input and
	// change events. It never focuses the element.
	SetValue(text string) error
	Click() error
}

// Document is the page as seen by the extractor and the fill controller
type Document interface {
	URL() string
	ReadyState() string
	Find(selector string) []Node
}

// First returns the first match of selector or nil
func First(doc Document, selector string) Node {
	nodes := doc.Find(selector)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// FieldKey returns the node's stable lookup key, stamping one if needed
func FieldKey(n Node) (string, error) {
	if n == nil {
		return "", fmt.Errorf("nil node")
	}
	if key, ok := n.Attr(FieldKeyAttr); ok && key != "" {
		return key, nil
	}

	key := uuid.NewString()
	if err := n.SetAttr(FieldKeyAttr, key); err != nil {
		return "", fmt.Errorf("failed to stamp field key: %w", err)
	}
	return key, nil
}

// Lookup resolves a field key back to its element, nil once the element is gone
func Lookup(doc Document, key string) Node {
	if key == "" {
		return nil
	}
	return First(doc, fmt.Sprintf(`[%s="%s"]`, FieldKeyAttr, key))
}

var spaceRun = regexp.MustCompile(`\s+`)

// CleanText trims and collapses runs of whitespace
func CleanText(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// TrimmedText is the node's text with surrounding whitespace removed
func TrimmedText(n Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Text())
}

// AttrOr returns the attribute value or ""
func AttrOr(n Node, name string) string {
	v, _ := n.Attr(name)
	return v
}

// Ancestors returns up to depth parents, nearest first. depth <= 0 walks to the root.
func Ancestors(n Node, depth int) []Node {
	var out []Node
	for p := n.Parent(); p != nil; p = p.Parent() {
		out = append(out, p)
		if depth > 0 && len(out) >= depth {
			break
		}
	}
	return out
}

// Closest returns the nearest ancestor (or n itself) matching selector
func Closest(n Node, selector string) Node {
	if n == nil {
		return nil
	}
	if n.Matches(selector) {
		return n
	}
	for _, p := range Ancestors(n, 0) {
		if p.Matches(selector) {
			return p
		}
	}
	return nil
}
