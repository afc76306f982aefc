package quiz

import (
	"strings"

	"golang.org/x/net/html"
)

// nodeFilter selects element nodes. Filters never see text nodes.
type nodeFilter func(*html.Node) bool

func isTag(tags ...string) nodeFilter {
	return func(n *html.Node) bool {
		if n == nil || n.Type != html.ElementNode {
			return false
		}
		for _, t := range tags {
			if strings.EqualFold(n.Data, t) {
				return true
			}
		}
		return false
	}
}

func anyOf(filters ...nodeFilter) nodeFilter {
	return func(n *html.Node) bool {
		for _, f := range filters {
			if f != nil && f(n) {
				return true
			}
		}
		return false
	}
}

var (
	isInput  = isTag("input")
	isSelect = isTag("select")
	isLabel  = isTag("label")
)

func attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// descendants returns matching nodes below n in document order; n itself is
// never included.
func descendants(n *html.Node, match nodeFilter) []*html.Node {
	var out []*html.Node
	if n == nil {
		return out
	}
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func firstDescendant(n *html.Node, match nodeFilter) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := firstDescendant(c, match); found != nil {
			return found
		}
	}
	return nil
}

// closest returns the nearest proper ancestor of n accepted by match.
func closest(n *html.Node, match nodeFilter) *html.Node {
	if n == nil {
		return nil
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && match(p) {
			return p
		}
	}
	return nil
}

// textExcluding returns the visible text under n with every subtree accepted
// by exclude skipped. Each text fragment is trimmed, empty fragments are
// dropped and the rest joined with sep. The tree is never modified.
func textExcluding(n *html.Node, sep string, exclude nodeFilter) string {
	if n == nil {
		return ""
	}
	var parts []string
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if t := strings.TrimSpace(c.Data); t != "" {
					parts = append(parts, t)
				}
			case html.ElementNode:
				if exclude != nil && exclude(c) {
					continue
				}
				walk(c)
			}
		}
	}
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	walk(n)
	return strings.Join(parts, sep)
}

// textOf is textExcluding without exclusions.
func textOf(n *html.Node, sep string) string {
	return textExcluding(n, sep, nil)
}

// rawText concatenates text under n verbatim, skipping excluded subtrees.
func rawText(n *html.Node, exclude nodeFilter) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
			case html.ElementNode:
				if exclude != nil && exclude(c) {
					continue
				}
				walk(c)
			}
		}
	}
	if n != nil {
		walk(n)
	}
	return b.String()
}
