package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Matcher selects element nodes.
type Matcher func(n *html.Node) bool

// IsElement reports whether n is an element, optionally one of tags.
func IsElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}

// Tag matches elements by tag name.
func Tag(tags ...string) Matcher {
	return func(n *html.Node) bool { return IsElement(n, tags...) }
}

// Class matches elements carrying the class.
func Class(class string) Matcher {
	return func(n *html.Node) bool { return HasClass(n, class) }
}

// ClassContains matches elements whose class attribute contains fragment.
func ClassContains(fragment string) Matcher {
	return func(n *html.Node) bool {
		return IsElement(n) && strings.Contains(Attr(n, "class"), fragment)
	}
}

// AttrIs matches elements whose attribute equals val (case-insensitive).
func AttrIs(key, val string) Matcher {
	return func(n *html.Node) bool {
		v, ok := LookupAttr(n, key)
		return ok && strings.EqualFold(strings.TrimSpace(v), val)
	}
}

// AnyOf matches when any matcher does.
func AnyOf(ms ...Matcher) Matcher {
	return func(n *html.Node) bool {
		for _, m := range ms {
			if m(n) {
				return true
			}
		}
		return false
	}
}

// LookupAttr returns an attribute value and whether it is present.
func LookupAttr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Attr returns an attribute value or "".
func Attr(n *html.Node, key string) string {
	v, _ := LookupAttr(n, key)
	return v
}

// HasAttr reports whether the attribute is present.
func HasAttr(n *html.Node, key string) bool {
	_, ok := LookupAttr(n, key)
	return ok
}

// SetAttr sets or adds an attribute.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether n's class list contains class.
func HasClass(n *html.Node, class string) bool {
	if !IsElement(n) {
		return false
	}
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// InputType returns the lowercased type of an input, defaulting to "text".
func InputType(n *html.Node) string {
	t := strings.ToLower(strings.TrimSpace(Attr(n, "type")))
	if t == "" {
		return "text"
	}
	return t
}

// ButtonType returns the type of a button element. A missing type is submit.
func ButtonType(n *html.Node) string {
	t := strings.ToLower(strings.TrimSpace(Attr(n, "type")))
	if t == "" {
		return "submit"
	}
	return t
}

// Closest returns the nearest element, starting with n itself, that matches.
func Closest(n *html.Node, m Matcher) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && m(cur) {
			return cur
		}
	}
	return nil
}

// ParentElement returns the nearest element ancestor.
func ParentElement(n *html.Node) *html.Node {
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode {
			return cur
		}
	}
	return nil
}

// Contains reports whether n is root or one of its descendants.
func Contains(root, n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == root {
			return true
		}
	}
	return false
}

// Walk visits every element below root in document order, root included.
// Returning false from fn stops descent into that element's children.
func Walk(root *html.Node, fn func(n *html.Node) bool) {
	if root == nil {
		return
	}
	descend := true
	if root.Type == html.ElementNode {
		descend = fn(root)
	}
	if !descend {
		return
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}

// Find returns the first element below root (exclusive) matching m.
func Find(root *html.Node, m Matcher) *html.Node {
	var found *html.Node
	for c := root.FirstChild; c != nil && found == nil; c = c.NextSibling {
		Walk(c, func(n *html.Node) bool {
			if found != nil {
				return false
			}
			if m(n) {
				found = n
				return false
			}
			return true
		})
	}
	return found
}

// FindAll returns every element below root (exclusive) matching m, in document order.
func FindAll(root *html.Node, m Matcher) []*html.Node {
	var out []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, func(n *html.Node) bool {
			if m(n) {
				out = append(out, n)
			}
			return true
		})
	}
	return out
}

// ByID returns the element with the given id.
func ByID(root *html.Node, id string) *html.Node {
	if id == "" {
		return nil
	}
	return Find(root, func(n *html.Node) bool { return Attr(n, "id") == id })
}

// LowestCommonAncestor returns the deepest element containing every node.
func LowestCommonAncestor(nodes []*html.Node) *html.Node {
	if len(nodes) == 0 {
		return nil
	}
	for cur := ParentElement(nodes[0]); cur != nil; cur = ParentElement(cur) {
		all := true
		for _, n := range nodes[1:] {
			if !Contains(cur, n) {
				all = false
				break
			}
		}
		if all {
			return cur
		}
	}
	return nil
}

var skipText = map[string]bool{"script": true, "style": true, "template": true, "noscript": true}

// Text returns the whitespace-collapsed rendered text of n.
func Text(n *html.Node) string {
	return TextExcluding(n)
}

// TextExcluding returns the rendered text of n leaving out the given subtrees.
func TextExcluding(n *html.Node, skip ...*html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(cur *html.Node) {
		for _, s := range skip {
			if cur == s {
				return
			}
		}
		switch cur.Type {
		case html.TextNode:
			b.WriteString(cur.Data)
			b.WriteByte(' ')
			return
		case html.ElementNode:
			if skipText[cur.Data] {
				return
			}
			if cur.Data == "select" || cur.Data == "textarea" {
				// option lists and typed text are values, not labels
				return
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	if n != nil {
		visit(n)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Options returns the option elements of a select in order.
func Options(sel *html.Node) []*html.Node {
	return FindAll(sel, Tag("option"))
}

// OptionText returns the display text of an option, falling back to its value.
func OptionText(opt *html.Node) string {
	if t := Text(opt); t != "" {
		return t
	}
	return strings.TrimSpace(Attr(opt, "value"))
}

// OptionValue returns the submitted value of an option.
func OptionValue(opt *html.Node) string {
	if v, ok := LookupAttr(opt, "value"); ok {
		return v
	}
	return Text(opt)
}

// Disabled reports whether the element or an enclosing fieldset is disabled.
func Disabled(n *html.Node) bool {
	if HasAttr(n, "disabled") {
		return true
	}
	for cur := ParentElement(n); cur != nil; cur = ParentElement(cur) {
		if cur.Data == "fieldset" && HasAttr(cur, "disabled") {
			return true
		}
	}
	return false
}

// StyleHidden reports whether the inline style or attributes hide n itself.
func StyleHidden(n *html.Node) bool {
	if HasAttr(n, "hidden") {
		return true
	}
	style := strings.ReplaceAll(strings.ToLower(Attr(n, "style")), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}
