// Package model implements the AST entity shared by the decoder and the
// encoder: a single Node type tagged by name, its ordered attribute map, and
// the handful of tree operations both stages need.
package model

import "strings"

// Type governs how the encoder indents and line-breaks a node.
type Type string

const (
	Block  Type = "block"
	Inline Type = "inline"
)

// Align is a table column alignment, derived from a table's separator row.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Recognized node names.
const (
	Root        = "root"
	Section     = "section"
	Heading     = "heading"
	P           = "p"
	UL          = "ul"
	OL          = "ol"
	LI          = "li"
	DL          = "dl"
	Div         = "div"
	DT          = "dt"
	DD          = "dd"
	Blockquote  = "blockquote"
	Cite        = "cite"
	Pre         = "pre"
	Code        = "code"
	Table       = "table"
	THead       = "thead"
	TBody       = "tbody"
	TR          = "tr"
	TH          = "th"
	TD          = "td"
	Figure      = "figure"
	Figcaption  = "figcaption"
	Details     = "details"
	Summary     = "summary"
	HTML        = "html"
	A           = "a"
	Img         = "img"
	Em          = "em"
	Strong      = "strong"
	Text        = "text"
	Raw         = "raw"
	Empty       = "empty"
)

// Node is the single AST entity produced by the decoder, optionally mutated
// by a traverse plugin, and read-only during encoding.
//
// Do not mutate a Node's Children slice or Attr map after other code may
// hold a reference to it except through AppendChild/AppendChildren/AddText;
// those keep Parent back-edges consistent.
type Node struct {
	Name     string
	Kind     Type
	Parent   *Node
	Children []*Node
	Level    int
	Text     string
	Attr     *Attrs
	Aligns   []Align
}

// New creates a detached node of the given name and type. Level, Text and
// Attr are left at their zero values; use the With* helpers to set them.
func New(name string, kind Type) *Node {
	return &Node{Name: name, Kind: kind}
}

// WithLevel sets Level and returns the node, for compact construction.
func (n *Node) WithLevel(level int) *Node {
	n.Level = level
	return n
}

// WithText sets Text and returns the node, for compact construction.
func (n *Node) WithText(text string) *Node {
	n.Text = text
	return n
}

// WithAttr sets Attr and returns the node, for compact construction.
func (n *Node) WithAttr(attr *Attrs) *Node {
	n.Attr = attr
	return n
}

// AppendChild attaches child as the last child of n, setting child's Parent
// back-edge.
func (n *Node) AppendChild(child *Node) *Node {
	child.Parent = n
	n.Children = append(n.Children, child)
	return n
}

// AppendChildren attaches each of children in order.
func (n *Node) AppendChildren(children []*Node) *Node {
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

// LastChild returns n's final child, or nil if n has none.
func (n *Node) LastChild() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}

// escapable is the fixed set of characters whose escaping backslash is
// stripped by AddText.
const escapable = "*\\`![]<>()"

// Unescape removes a backslash preceding any character in the escapable set,
// leaving every other backslash untouched.
func Unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\\' && i+1 < len(runes) && strings.ContainsRune(escapable, runes[i+1]) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// AddText appends a new text child to n, carrying the unescaped literal, and
// returns the new child.
func (n *Node) AddText(s string) *Node {
	child := New(Text, Inline).WithText(Unescape(s))
	n.AppendChild(child)
	return child
}

// IsText reports whether n is a leaf text node.
func (n *Node) IsText() bool {
	return n.Name == Text
}

// Ancestors walks from n up through Parent, including n itself, calling fn
// until fn returns false or the root is reached.
func (n *Node) Ancestors(fn func(*Node) bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		if !fn(cur) {
			return
		}
	}
}
