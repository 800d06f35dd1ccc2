// Package render implements the HTML encoder: a recursive AST walker that
// serializes a *model.Node tree into indented HTML5, applying the
// per-element formatting rules (attribute quoting, the mixed-inline
// grouping used by p/li/dt/dd, section-level article/section tagging, and
// the handful of leaf nodes that carry raw text).
//
// The dispatch-by-name switch and the indentation/line-buffering approach
// follow the same pattern as a DOM serializer walking a document tree,
// redirected here to emit HTML text directly instead of building a DOM.
package render

import (
	"fmt"
	"strings"

	"github.com/shodgson/mdengine/model"
)

const indentUnit = "  "

var alwaysQuoted = map[string]bool{
	"title": true, "alt": true, "cite": true, "href": true, "id": true,
}

// Options controls Encode's output. Indent is the starting indentation
// column; it defaults to 0.
type Options struct {
	Indent int
}

// Encode serializes root to indented HTML5 text.
func Encode(root *model.Node, opts ...Options) string {
	start := 0
	if len(opts) > 0 {
		start = opts[0].Indent
	}
	e := &encoder{}
	e.encode(root, strings.Repeat(" ", start))
	return e.buf.String()
}

type encoder struct {
	buf strings.Builder
}

func (e *encoder) encode(n *model.Node, indent string) {
	switch n.Name {
	case model.Root:
		for _, c := range n.Children {
			e.encode(c, indent)
		}
	case model.Text:
		e.encodeText(n, indent)
	case model.Raw:
		e.buf.WriteString(indent + n.Text + "\n")
	case model.Figcaption:
		e.buf.WriteString(indent + "<figcaption")
		e.writeAttrs(n)
		e.buf.WriteString(">" + escapeHTMLText(n.Text) + "</figcaption>\n")
	case model.Heading:
		e.encodeHeading(n, indent)
	case model.Section:
		e.encodeSection(n, indent)
	case model.P, model.DT, model.DD:
		e.encodeMixed(n, n.Name, indent)
	case model.LI:
		e.encodeListItem(n, indent)
	case model.TD, model.TH, model.Summary:
		e.encodeSingleLine(n, indent)
	case model.Pre:
		e.encodePre(n, indent)
	case model.HTML:
		for _, c := range n.Children {
			e.encode(c, indent)
		}
	case model.Empty:
		if n.Kind == model.Inline {
			for _, c := range n.Children {
				e.encode(c, "")
			}
		} else {
			for _, c := range n.Children {
				e.encode(c, indent)
			}
		}
	default:
		if n.Kind == model.Inline {
			e.encodeDefaultInline(n)
		} else if n.Kind == model.Block {
			e.encodeDefaultBlock(n, indent)
		} else {
			panic(fmt.Sprintf("render: cannot encode node %q of type %q", n.Name, n.Kind))
		}
	}
}

// encodeText applies the fixed five-character escape set, plus the
// whole-line "--- " to em-dash rewrite, but only when the text stands
// alone in its parent. The blockquote citation production attaches a
// "--- " text node immediately followed by a cite sibling, and that pair
// must render literally, so the rewrite is gated on singleton parentage
// rather than applied unconditionally.
func (e *encoder) encodeText(n *model.Node, indent string) {
	if n.Text == "--- " && n.Parent != nil && len(n.Parent.Children) == 1 {
		e.buf.WriteString(indent + "&mdash; ")
		return
	}
	e.buf.WriteString(indent + escapeHTMLText(n.Text))
}

func escapeHTMLText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func needsQuoting(v string) bool {
	return strings.ContainsAny(v, " \"'`=<>")
}

// writeAttrs serializes n's attribute map in insertion order: `_`-prefixed
// keys are suppressed, align is rewritten to a class, a fixed set of keys
// is always double-quoted, and details discards its own class attribute
// entirely.
func (e *encoder) writeAttrs(n *model.Node) {
	if n.Attr == nil {
		return
	}
	skipClass := n.Name == model.Details
	n.Attr.Each(func(key string, value *string) {
		if strings.HasPrefix(key, "_") {
			return
		}
		if key == "class" && skipClass {
			return
		}
		if key == "align" {
			if value != nil {
				e.buf.WriteString(" class=align-" + *value)
			}
			return
		}
		if value == nil {
			e.buf.WriteString(" " + key)
			return
		}
		v := *value
		if n.Name == model.A && key == "href" {
			v = model.Unescape(v)
		}
		if alwaysQuoted[key] || needsQuoting(v) {
			e.buf.WriteString(" " + key + `="` + v + `"`)
			return
		}
		e.buf.WriteString(" " + key + "=" + v)
	})
}

func (e *encoder) encodeInlineSeq(nodes []*model.Node) {
	for _, c := range nodes {
		e.encode(c, "")
	}
}

func (e *encoder) encodeHeading(n *model.Node, indent string) {
	level := 1
	if n.Parent != nil {
		level = n.Parent.Level
	}
	tag := fmt.Sprintf("h%d", level)
	e.buf.WriteString(indent + "<" + tag)
	e.writeAttrs(n)
	e.buf.WriteString(">")
	e.encodeInlineSeq(n.Children)
	e.buf.WriteString("</" + tag + ">\n")
}

func (e *encoder) encodeSection(n *model.Node, indent string) {
	tag := "section"
	if n.Level == 1 {
		tag = "article"
	}
	e.buf.WriteString(indent + "<" + tag)
	e.writeAttrs(n)
	e.buf.WriteString(">\n")
	child := indent + indentUnit
	for _, c := range n.Children {
		e.encode(c, child)
	}
	e.buf.WriteString(indent + "</" + tag + ">\n")
}

// encodeMixed implements the mixed-inline rule for p/dt/dd: purely inline
// content renders open-only (no closing tag); anything with a block
// child renders full open/close with indented line-groups and blocks.
func (e *encoder) encodeMixed(n *model.Node, tag string, indent string) {
	allInline := true
	for _, c := range n.Children {
		if c.Kind != model.Inline {
			allInline = false
			break
		}
	}

	e.buf.WriteString(indent + "<" + tag)
	e.writeAttrs(n)
	e.buf.WriteString(">")

	if allInline {
		e.encodeInlineSeq(n.Children)
		e.buf.WriteString("\n")
		return
	}

	e.buf.WriteString("\n")
	child := indent + indentUnit
	i := 0
	for i < len(n.Children) {
		c := n.Children[i]
		if c.Kind == model.Inline {
			e.buf.WriteString(child)
			for i < len(n.Children) && n.Children[i].Kind == model.Inline {
				e.encode(n.Children[i], "")
				i++
			}
			e.buf.WriteString("\n")
			continue
		}
		e.encode(c, child)
		i++
	}
	e.buf.WriteString(indent + "</" + tag + ">\n")
}

// encodeListItem never emits a closing tag: a parent li's inline run and
// its nested list both render under the opening <li>, and the next
// sibling (or the enclosing list's own close) implicitly ends it, matching
// HTML5's optional-closing-tag rule for li.
func (e *encoder) encodeListItem(n *model.Node, indent string) {
	e.buf.WriteString(indent + "<li")
	e.writeAttrs(n)
	e.buf.WriteString(">")

	child := indent + indentUnit
	wroteNewline := false
	i := 0
	for i < len(n.Children) {
		c := n.Children[i]
		if c.Kind == model.Inline {
			e.encode(c, "")
			i++
			continue
		}
		if !wroteNewline {
			e.buf.WriteString("\n")
			wroteNewline = true
		}
		e.encode(c, child)
		i++
	}
	if !wroteNewline {
		e.buf.WriteString("\n")
	}
}

func (e *encoder) encodeSingleLine(n *model.Node, indent string) {
	e.buf.WriteString(indent + "<" + n.Name)
	e.writeAttrs(n)
	e.buf.WriteString(">")
	e.encodeInlineSeq(n.Children)
	e.buf.WriteString("</" + n.Name + ">\n")
}

// encodePre handles the fence block directly rather than through the
// generic default-block dispatch: lang becomes both a class and a
// data-code attribute, path becomes data-path, and the child text lines
// are joined with bare newlines inside a single <code> with no additional
// escaping.
func (e *encoder) encodePre(n *model.Node, indent string) {
	var lang, path *string
	if n.Attr != nil {
		lang, _ = n.Attr.Get("lang")
		path, _ = n.Attr.Get("path")
	}

	attr := model.NewAttrs()
	if lang != nil {
		attr.SetString("class", *lang)
		attr.SetString("data-code", *lang)
	}
	if path != nil {
		attr.SetString("data-path", *path)
	}

	e.buf.WriteString(indent + "<pre")
	e.writeAttrs(&model.Node{Name: model.Pre, Attr: attr})
	e.buf.WriteString("><code translate=no")
	if lang != nil {
		e.buf.WriteString(" class=language-" + *lang)
	}
	e.buf.WriteString(">")

	lines := make([]string, len(n.Children))
	for i, c := range n.Children {
		lines[i] = c.Text
	}
	e.buf.WriteString(strings.Join(lines, "\n"))
	e.buf.WriteString("</code></pre>\n")
}

func (e *encoder) encodeDefaultBlock(n *model.Node, indent string) {
	e.buf.WriteString(indent + "<" + n.Name)
	e.writeAttrs(n)
	if len(n.Children) == 0 {
		e.buf.WriteString(">\n")
		return
	}
	e.buf.WriteString(">\n")
	child := indent + indentUnit
	for _, c := range n.Children {
		e.encode(c, child)
	}
	e.buf.WriteString(indent + "</" + n.Name + ">\n")
}

func (e *encoder) encodeDefaultInline(n *model.Node) {
	e.buf.WriteString("<" + n.Name)
	e.writeAttrs(n)
	if len(n.Children) == 0 {
		e.buf.WriteString(">")
		return
	}
	e.buf.WriteString(">")
	e.encodeInlineSeq(n.Children)
	e.buf.WriteString("</" + n.Name + ">")
}
