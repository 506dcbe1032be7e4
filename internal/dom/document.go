// Package dom is the page document seen by the filterer: an x/net/html
// tree plus attribute helpers, weak node membership and selector matching.
package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed page
type Document struct {
	root *html.Node
}

// Parse reads an HTML document
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString is Parse for an in-memory document
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node
func (d *Document) Root() *html.Node {
	return d.root
}

// ElementByID returns the first element with the given id, or nil
func (d *Document) ElementByID(id string) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if v, ok := GetAttr(n, "id"); ok && v == id {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

// Render serializes the document
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// walk visits n and its descendants depth first until visit returns false
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

// GetAttr returns the value of attribute key
func GetAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether the node carries attribute key
func HasAttr(n *html.Node, key string) bool {
	_, ok := GetAttr(n, key)
	return ok
}

// SetAttr sets attribute key, replacing any previous value
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes attribute key. An empty key is a no-op.
func RemoveAttr(n *html.Node, key string) {
	if key == "" {
		return
	}
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		attrs = append(attrs, a)
	}
	n.Attr = attrs
}
