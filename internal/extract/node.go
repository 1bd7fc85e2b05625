// Package extract locates payout tables in a rendered document and turns them
// into plain-text headers and rows.
package extract

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Node is a read-only handle on a DOM element (or the whole document).
//
// Every lookup degrades to an empty result when nothing matches, so callers
// never have to guard against missing elements.
type Node interface {
	// First returns the first descendant matching selector.
	First(selector string) (Node, bool)

	// All returns every descendant matching selector in document order.
	All(selector string) []Node

	// Text returns the element's text content with whitespace normalized.
	Text() string

	// Within reports whether the element has an ancestor matching selector.
	Within(selector string) bool
}

// selectionNode adapts a goquery selection to Node.
type selectionNode struct {
	sel *goquery.Selection
}

// FromSelection wraps a goquery selection. A nil selection yields an empty node.
func FromSelection(sel *goquery.Selection) Node {
	if sel == nil {
		sel = &goquery.Selection{}
	}
	return selectionNode{sel: sel}
}

// FromDocument wraps a parsed goquery document.
func FromDocument(doc *goquery.Document) Node {
	if doc == nil {
		return FromSelection(nil)
	}
	return FromSelection(doc.Selection)
}

// Parse reads an HTML document and returns its root node.
func Parse(r io.Reader) (Node, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return FromDocument(goquery.NewDocumentFromNode(root)), nil
}

// ParseString is Parse over an in-memory document.
func ParseString(s string) (Node, error) {
	return Parse(strings.NewReader(s))
}

func (n selectionNode) First(selector string) (Node, bool) {
	found := n.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return selectionNode{sel: found}, true
}

func (n selectionNode) All(selector string) []Node {
	found := n.sel.Find(selector)
	nodes := make([]Node, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, selectionNode{sel: s})
	})
	return nodes
}

func (n selectionNode) Text() string {
	if n.sel.Length() == 0 {
		return ""
	}
	return NormalizeSpace(n.sel.Text())
}

func (n selectionNode) Within(selector string) bool {
	return n.sel.ParentsFiltered(selector).Length() > 0
}

// NormalizeSpace collapses every run of whitespace into a single space and
// trims both ends.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
