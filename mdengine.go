// Package mdengine is the public surface of the two-stage Markdown-to-HTML
// engine: Decode and Encode are the core pipeline; Format is the trivial
// composition of the two; Traverse and ToTOC are thin re-exports of the
// transform package's tree utilities, so callers need only import this one
// package for the common cases.
package mdengine

import (
	"github.com/shodgson/mdengine/markdown"
	"github.com/shodgson/mdengine/model"
	"github.com/shodgson/mdengine/render"
	"github.com/shodgson/mdengine/transform"
)

// Node is the AST entity shared by every stage of the pipeline.
type Node = model.Node

// EncodeOptions controls Encode's output formatting.
type EncodeOptions = render.Options

// SyntaxError is returned by Decode on the first grammar violation.
type SyntaxError = markdown.SyntaxError

// TraversePlugin holds the Enter/Leave hooks Traverse calls at every node.
type TraversePlugin = transform.Plugin

// Decode parses source, a document in the engine's Markdown dialect, into
// its AST root. It returns a *SyntaxError on the first grammar violation;
// there is no recovery mode.
func Decode(source string) (*Node, error) {
	return markdown.Decode(source)
}

// Encode serializes root to indented HTML5 text.
func Encode(root *Node, opts ...EncodeOptions) string {
	return render.Encode(root, opts...)
}

// Format decodes source and immediately encodes the result.
func Format(source string, opts ...EncodeOptions) (string, error) {
	root, err := Decode(source)
	if err != nil {
		return "", err
	}
	return Encode(root, opts...), nil
}

// Traverse walks root with the given plugin, pre-order Enter and
// post-order Leave.
func Traverse(root *Node, plugin TraversePlugin) *Node {
	return transform.Traverse(root, plugin)
}

// ToTOC rebuilds a flat, document-order sequence of heading nodes into a
// nested list tree of the given kind (model.UL or model.OL).
func ToTOC(headings []*Node, listKind string) *Node {
	return transform.ToTOC(headings, listKind)
}
