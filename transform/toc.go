package transform

import "github.com/shodgson/mdengine/model"

// ToTOC consumes a flat, document-order sequence of heading nodes (each
// still attached to its originating section, so heading.Parent.Level
// gives its level) and reconstructs a nested ul/ol tree mirroring that
// level sequence: a level increase of exactly one descends into a fresh
// nested list under the current last li; an equal level appends a sibling
// li; a lower level rises and re-attempts at that level.
//
// listKind is model.UL or model.OL, the kind of list to build at every
// depth.
func ToTOC(headings []*model.Node, listKind string) *model.Node {
	baseLevel := 1
	if len(headings) > 0 {
		baseLevel = headingLevel(headings[0])
	}

	root := model.New(listKind, model.Block).WithLevel(baseLevel)
	cursor := root

	for _, h := range headings {
		level := headingLevel(h)
		cursor = placeTOCEntry(cursor, listKind, level, h)
	}

	return root
}

func headingLevel(h *model.Node) int {
	if h.Parent != nil {
		return h.Parent.Level
	}
	return 1
}

func placeTOCEntry(cursor *model.Node, listKind string, level int, heading *model.Node) *model.Node {
	switch {
	case level == cursor.Level:
		cursor.AppendChild(newTOCItem(cursor.Level, heading))
		return cursor
	case level == cursor.Level+1:
		last := cursor.LastChild()
		if last == nil || last.Name != model.LI {
			panic("transform: ToTOC encountered a nested heading with no preceding sibling at its parent level")
		}
		nested := model.New(listKind, model.Block).WithLevel(level)
		last.AppendChild(nested)
		nested.AppendChild(newTOCItem(level, heading))
		return nested
	case level < cursor.Level:
		riser := riseTOCListTo(cursor, listKind, level)
		riser.AppendChild(newTOCItem(level, heading))
		return riser
	default:
		panic("transform: ToTOC encountered a heading level jump of more than one — the source AST violates the sectioning invariant")
	}
}

func newTOCItem(level int, heading *model.Node) *model.Node {
	li := model.New(model.LI, model.Block).WithLevel(level)
	li.AppendChildren(heading.Children)
	return li
}

func riseTOCListTo(cursor *model.Node, listKind string, level int) *model.Node {
	for p := cursor; p != nil; p = p.Parent {
		if p.Name == listKind && p.Level == level {
			return p
		}
	}
	return cursor
}
