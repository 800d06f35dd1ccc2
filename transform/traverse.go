// Package transform holds tree-level utilities over the model package's
// Node: a pre/post-order visitor (Traverse) and a heading-to-list rebuilder
// (ToTOC). Both read and rewrite the AST produced by markdown.Decode, as an
// optional post-processing step on top of the core decode/encode pipeline.
package transform

import "github.com/shodgson/mdengine/model"

// Plugin holds the two hooks Traverse calls at each node: Enter before a
// node's children are visited, Leave after. Both must return a node —
// typically the same node, unmodified, but either hook may substitute a
// different one.
type Plugin struct {
	Enter func(*model.Node) *model.Node
	Leave func(*model.Node) *model.Node
}

func identity(n *model.Node) *model.Node { return n }

// Traverse recursively visits n, replacing it with
// leave(traverse(enter(n))) at every level — pre-order Enter, post-order
// Leave. A nil hook behaves as the identity.
func Traverse(n *model.Node, p Plugin) *model.Node {
	enter, leave := p.Enter, p.Leave
	if enter == nil {
		enter = identity
	}
	if leave == nil {
		leave = identity
	}
	return traverse(n, enter, leave)
}

func traverse(n *model.Node, enter, leave func(*model.Node) *model.Node) *model.Node {
	n = enter(n)
	children := make([]*model.Node, len(n.Children))
	for i, c := range n.Children {
		nc := traverse(c, enter, leave)
		nc.Parent = n
		children[i] = nc
	}
	n.Children = children
	return leave(n)
}
